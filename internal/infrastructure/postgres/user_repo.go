package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lenlo121500/auth-system/internal/domain"
	"github.com/lenlo121500/auth-system/internal/repository"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repository needs. pgx.Tx also
// satisfies it, so a transaction-bound repository reuses the same code.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, is_verified,
	verification_code, verification_code_expires_at,
	reset_token_hash, reset_token_expires_at,
	last_login_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (
			id, name, email, password_hash,
			verification_code, verification_code_expires_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.VerificationCode, user.VerificationCodeExpiresAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Save persists every mutable field of an existing user. The caller's user
// must come from a fresh read in the same transaction or the write clobbers
// concurrent updates; flows outside a transaction use the targeted update
// methods instead.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			name = $2,
			password_hash = $3,
			is_verified = $4,
			verification_code = $5,
			verification_code_expires_at = $6,
			reset_token_hash = $7,
			reset_token_expires_at = $8,
			last_login_at = $9,
			updated_at = NOW()
		WHERE id = $1`,
		user.ID, user.Name, user.PasswordHash, user.IsVerified,
		user.VerificationCode, user.VerificationCodeExpiresAt,
		user.ResetTokenHash, user.ResetTokenExpires,
		user.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET last_login_at = $2, updated_at = NOW()
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByVerificationCode(ctx context.Context, code string, now time.Time) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE verification_code = $1 AND verification_code_expires_at > $2`,
		code, now)
	return scanUser(row)
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`,
		tokenHash, now)
	return scanUser(row)
}

// WithinTransaction commits on a nil return from work, rolls back otherwise.
// The deferred rollback is a no-op once the transaction has committed.
func (r *UserRepository) WithinTransaction(ctx context.Context, work func(ctx context.Context, r repository.UserRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := work(ctx, &UserRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *UserRepository) PurgeExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET verification_code = NULL,
			verification_code_expires_at = NULL, updated_at = NOW()
		WHERE verification_code IS NOT NULL
			AND verification_code_expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge verification codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token_hash = NULL,
			reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token_hash IS NOT NULL
			AND reset_token_expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsVerified,
		&u.VerificationCode, &u.VerificationCodeExpiresAt,
		&u.ResetTokenHash, &u.ResetTokenExpires,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
