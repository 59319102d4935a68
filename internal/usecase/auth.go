package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lenlo121500/auth-system/internal/domain"
	"github.com/lenlo121500/auth-system/internal/email"
	"github.com/lenlo121500/auth-system/internal/metrics"
	"github.com/lenlo121500/auth-system/internal/repository"
	"github.com/lenlo121500/auth-system/internal/token"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// AuthUsecase orchestrates the account lifecycle: signup, email
// verification, login, forgot/reset password, session check. Multi-write
// operations run inside one store transaction; email sends are best-effort
// side effects issued after the writes commit.
type AuthUsecase struct {
	users     repository.UserRepository
	mailer    email.Sender
	tokens    *token.Issuer
	clientURL string
	logger    *slog.Logger
}

func NewAuthUsecase(users repository.UserRepository, mailer email.Sender, tokens *token.Issuer, clientURL string, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:     users,
		mailer:    mailer,
		tokens:    tokens,
		clientURL: clientURL,
		logger:    logger.With("component", "auth_usecase"),
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates an unverified user, issues a session token, and emails the
// verification code. The duplicate pre-check inside the transaction is
// advisory; the unique index on email is the final arbiter when two signups
// race.
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", &domain.ValidationError{Msg: "all fields are required"}
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", &domain.ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	code, codeExpiresAt, err := u.tokens.NewVerificationCode()
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:                      in.Name,
		Email:                     in.Email,
		PasswordHash:              string(hash),
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &codeExpiresAt,
	}

	err = u.users.WithinTransaction(ctx, func(ctx context.Context, r repository.UserRepository) error {
		if _, err := r.FindByEmail(ctx, in.Email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("check existing user: %w", err)
		}
		return r.Create(ctx, user)
	})
	if err != nil {
		return nil, "", err
	}

	session, err := u.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, "", err
	}

	if err := u.mailer.SendVerification(ctx, user.Email, code); err != nil {
		u.logger.ErrorContext(ctx, "send verification email", "user_id", user.ID, "error", err)
		metrics.EmailsSentTotal.WithLabelValues("verification", "error").Inc()
	} else {
		metrics.EmailsSentTotal.WithLabelValues("verification", "ok").Inc()
	}
	metrics.SignupsTotal.Inc()

	return user, session, nil
}

// VerifyEmail consumes a verification code: the matching user becomes
// verified and the code fields are cleared in the same write, so replaying
// the code fails.
func (u *AuthUsecase) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, domain.ErrCodeInvalid
	}

	var user *domain.User
	err := u.users.WithinTransaction(ctx, func(ctx context.Context, r repository.UserRepository) error {
		found, err := r.FindByVerificationCode(ctx, code, time.Now())
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrCodeInvalid
			}
			return fmt.Errorf("find user by code: %w", err)
		}

		found.IsVerified = true
		found.VerificationCode = nil
		found.VerificationCodeExpiresAt = nil
		if err := r.Save(ctx, found); err != nil {
			return fmt.Errorf("save verified user: %w", err)
		}

		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := u.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		u.logger.ErrorContext(ctx, "send welcome email", "user_id", user.ID, "error", err)
		metrics.EmailsSentTotal.WithLabelValues("welcome", "error").Inc()
	} else {
		metrics.EmailsSentTotal.WithLabelValues("welcome", "ok").Inc()
	}

	return user, nil
}

// Login authenticates a verified user. The handler maps every failure kind
// here to one generic message; the distinct sentinels exist for logs and
// tests only.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*domain.User, string, error) {
	if emailAddr == "" || password == "" {
		return nil, "", &domain.ValidationError{Msg: "all fields are required"}
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !user.IsVerified {
		return nil, "", domain.ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	// Targeted update: a full Save here would write back the pre-check
	// snapshot and undo any password reset committed since the read.
	now := time.Now()
	user.LastLoginAt = &now
	if err := u.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("update last login: %w", err)
	}

	session, err := u.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, session, nil
}

// ForgotPassword stores the hash of a fresh reset token and emails the raw
// value as a link. The raw token is returned to the caller for internal use
// (tests, ops tooling) and must never reach the HTTP response.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) (string, error) {
	var rawToken string

	err := u.users.WithinTransaction(ctx, func(ctx context.Context, r repository.UserRepository) error {
		user, err := r.FindByEmail(ctx, emailAddr)
		if err != nil {
			return err
		}

		raw, hash, expiresAt, err := u.tokens.NewResetToken()
		if err != nil {
			return err
		}

		user.ResetTokenHash = &hash
		user.ResetTokenExpires = &expiresAt
		if err := r.Save(ctx, user); err != nil {
			return fmt.Errorf("save reset token: %w", err)
		}

		rawToken = raw
		return nil
	})
	if err != nil {
		return "", err
	}

	link := u.clientURL + "/reset-password/" + rawToken
	if err := u.mailer.SendResetRequest(ctx, emailAddr, link); err != nil {
		u.logger.ErrorContext(ctx, "send reset email", "error", err)
		metrics.EmailsSentTotal.WithLabelValues("reset_request", "error").Inc()
	} else {
		metrics.EmailsSentTotal.WithLabelValues("reset_request", "ok").Inc()
	}

	return rawToken, nil
}

// ResetPassword consumes a raw reset token: the new password hash is stored
// and the token fields cleared in one transaction, so the token is
// single-use.
func (u *AuthUsecase) ResetPassword(ctx context.Context, rawToken, password string) error {
	if len(password) < minPasswordLen {
		return &domain.ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLen)}
	}

	var userEmail string
	tokenHash := token.HashResetToken(rawToken)

	err := u.users.WithinTransaction(ctx, func(ctx context.Context, r repository.UserRepository) error {
		user, err := r.FindByResetTokenHash(ctx, tokenHash, time.Now())
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrTokenInvalid
			}
			return fmt.Errorf("find user by reset token: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user.PasswordHash = string(hash)
		user.ResetTokenHash = nil
		user.ResetTokenExpires = nil
		if err := r.Save(ctx, user); err != nil {
			return fmt.Errorf("save new password: %w", err)
		}

		userEmail = user.Email
		return nil
	})
	if err != nil {
		return err
	}

	if err := u.mailer.SendResetSuccess(ctx, userEmail); err != nil {
		u.logger.ErrorContext(ctx, "send reset success email", "error", err)
		metrics.EmailsSentTotal.WithLabelValues("reset_success", "error").Inc()
	} else {
		metrics.EmailsSentTotal.WithLabelValues("reset_success", "ok").Inc()
	}

	return nil
}

// CheckAuth returns the user behind an already-verified session token.
func (u *AuthUsecase) CheckAuth(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
