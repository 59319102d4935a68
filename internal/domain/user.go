package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("user is not verified")
	ErrCodeInvalid        = errors.New("verification code is invalid or expired")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError carries a caller-safe description of bad input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// User is the sole persisted entity. PasswordHash is the bcrypt hash of the
// password secret; it must never appear in any outward representation.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string

	IsVerified                bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time

	ResetTokenHash    *string
	ResetTokenExpires *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
