package repository

import (
	"context"
	"time"

	"github.com/lenlo121500/auth-system/internal/domain"
)

// UserRepository is the credential store contract. Save persists every
// mutable field of an already-created user in one write, so callers must
// only pass it a user read freshly inside the same transaction.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Save(ctx context.Context, user *domain.User) error

	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// UpdateLastLogin touches only the last-login column. Login runs outside
	// a transaction, so writing the whole snapshot there could clobber a
	// password reset committed after its read.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// FindByVerificationCode and FindByResetTokenHash only match users whose
	// stored value expires strictly after now — expiry is exclusive.
	FindByVerificationCode(ctx context.Context, code string, now time.Time) (*domain.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// WithinTransaction runs work against a repository bound to a single
	// transaction: commit on nil return, rollback on error, the underlying
	// session always released. Nested calls are not supported.
	WithinTransaction(ctx context.Context, work func(ctx context.Context, r UserRepository) error) error

	PurgeExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
