// Package token issues and validates the two credential kinds the service
// hands out: signed session JWTs and single-use one-time values
// (email-verification codes, password-reset tokens).
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lenlo121500/auth-system/internal/domain"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultOneTimeTTL = 1 * time.Hour
)

type Issuer struct {
	jwtKey     []byte
	sessionTTL time.Duration
	oneTimeTTL time.Duration
}

func NewIssuer(jwtKey []byte) *Issuer {
	return &Issuer{
		jwtKey:     jwtKey,
		sessionTTL: defaultSessionTTL,
		oneTimeTTL: defaultOneTimeTTL,
	}
}

// SessionTTL is the lifetime of issued session tokens; the HTTP layer uses
// it as the cookie max-age.
func (i *Issuer) SessionTTL() time.Duration { return i.sessionTTL }

// IssueSession signs an HS256 JWT binding userID for the session lifetime.
func (i *Issuer) IssueSession(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(i.sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSession verifies signature and expiry and returns the embedded user ID.
func (i *Issuer) ParseSession(raw string) (string, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.jwtKey, nil
	})
	if err != nil || !t.Valid {
		return "", domain.ErrUnauthorized
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

// NewVerificationCode returns a uniform-random six-digit code and its expiry.
func (i *Issuer) NewVerificationCode() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)
	return code, time.Now().Add(i.oneTimeTTL), nil
}

// NewResetToken returns a raw 256-bit random token, the SHA-256 hex of it
// (the only form ever persisted), and its expiry.
func (i *Issuer) NewResetToken() (raw, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashResetToken(raw), time.Now().Add(i.oneTimeTTL), nil
}

// HashResetToken maps a raw reset token to its stored form.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
