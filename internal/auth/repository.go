package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NUbem000/NubemERP/internal/platform/db"
	"github.com/NUbem000/NubemERP/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	RecordFailedLogin(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error
	ResetFailedLogins(ctx context.Context, id int64) error
	MarkEmailVerified(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, plan, email_verified, is_active,
	failed_login_attempts, locked_until, created_at`

// CreateUser inserts a new account and fills the generated ID.
func (r *PGRepository) CreateUser(ctx context.Context, u *User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role, plan, email_verified, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		RETURNING id, created_at`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.Plan, u.EmailVerified,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicateEmail
		}
		return fmt.Errorf("auth: create user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// RecordFailedLogin stores the updated failure counter and lockout time.
func (r *PGRepository) RecordFailedLogin(ctx context.Context, id int64, attempts int, lockedUntil *time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1`, id, attempts, lockedUntil)
	if err != nil {
		return fmt.Errorf("auth: record failed login: %w", err)
	}
	return nil
}

// ResetFailedLogins clears the failure counter after a successful login.
func (r *PGRepository) ResetFailedLogins(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("auth: reset failed logins: %w", err)
	}
	return nil
}

// MarkEmailVerified flags the account's email address as confirmed.
func (r *PGRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("auth: mark email verified: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	return nil
}

// RecordLogin stamps the most recent successful login.
func (r *PGRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("auth: record login: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan,
		&u.EmailVerified, &u.IsActive, &u.FailedLoginAttempts, &u.LockedUntil, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
