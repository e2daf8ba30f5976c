package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Company, settings,
// profile, permissions, subscription and api_access live in JSONB
// columns beside the flat account fields.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUser = `
	SELECT id, email, name, password_hash, role, is_active,
	       company, settings, profile, permissions, subscription, api_access,
	       last_login, created_at, updated_at
	FROM users`

// GetUser loads a single account by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers returns a page of accounts matching the filter plus the
// total match count.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Role != "" {
		where += fmt.Sprintf(" AND role = $%d", argNum)
		args = append(args, filter.Role)
		argNum++
	}
	if filter.Plan != "" {
		where += fmt.Sprintf(" AND subscription->>'plan' = $%d", argNum)
		args = append(args, string(filter.Plan))
		argNum++
	}
	if filter.Active != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argNum)
		args = append(args, *filter.Active)
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	query := selectUser + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

// UpdateProfile stores the self-service editable fields.
func (r *Repository) UpdateProfile(ctx context.Context, u *User) error {
	company, settings, profile, err := marshalProfileFields(u)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE users SET name = $2, company = $3, settings = $4, profile = $5, updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.Name, company, settings, profile)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	return nil
}

// UpdateSubscription stores the new subscription state. The flat plan
// column is kept in sync for the auth module's credential view.
func (r *Repository) UpdateSubscription(ctx context.Context, id int64, sub Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("users: marshal subscription: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE users SET subscription = $2, plan = $3, updated_at = NOW() WHERE id = $1`,
		id, payload, string(sub.Plan))
	if err != nil {
		return fmt.Errorf("users: update subscription: %w", err)
	}
	return nil
}

// UpdateAPIAccess stores the API access state.
func (r *Repository) UpdateAPIAccess(ctx context.Context, id int64, access APIAccess) error {
	payload, err := json.Marshal(apiAccessRecord{
		Enabled:    access.Enabled,
		Key:        access.Key,
		Secret:     access.Secret,
		WebhookURL: access.WebhookURL,
	})
	if err != nil {
		return fmt.Errorf("users: marshal api access: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE users SET api_access = $2, updated_at = NOW() WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("users: update api access: %w", err)
	}
	return nil
}

// UpdateAdminFields applies the administrator-editable fields.
func (r *Repository) UpdateAdminFields(ctx context.Context, id int64, fields AdminUpdate) error {
	set := "updated_at = NOW()"
	args := []any{id}
	argNum := 2

	if fields.Role != nil {
		set += fmt.Sprintf(", role = $%d", argNum)
		args = append(args, *fields.Role)
		argNum++
	}
	if fields.IsActive != nil {
		set += fmt.Sprintf(", is_active = $%d", argNum)
		args = append(args, *fields.IsActive)
		argNum++
	}
	if fields.Permissions != nil {
		payload, err := json.Marshal(fields.Permissions)
		if err != nil {
			return fmt.Errorf("users: marshal permissions: %w", err)
		}
		set += fmt.Sprintf(", permissions = $%d", argNum)
		args = append(args, payload)
		argNum++
	}
	if fields.Plan != nil {
		set += fmt.Sprintf(", plan = $%d, subscription = jsonb_set(subscription, '{plan}', to_jsonb($%d::text))", argNum, argNum)
		args = append(args, string(*fields.Plan))
		argNum++
	}

	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`UPDATE users SET %s WHERE id = $1`, set), args...)
	if err != nil {
		return fmt.Errorf("users: admin update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles the account's active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// apiAccessRecord is the JSONB shape of APIAccess; the key and secret
// are stored but excluded from API responses by the domain type.
type apiAccessRecord struct {
	Enabled    bool   `json:"enabled"`
	Key        string `json:"key,omitempty"`
	Secret     string `json:"secret,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

func marshalProfileFields(u *User) (company, settings, profile []byte, err error) {
	if company, err = json.Marshal(u.Company); err != nil {
		return nil, nil, nil, fmt.Errorf("users: marshal company: %w", err)
	}
	if settings, err = json.Marshal(u.Settings); err != nil {
		return nil, nil, nil, fmt.Errorf("users: marshal settings: %w", err)
	}
	if profile, err = json.Marshal(u.Profile); err != nil {
		return nil, nil, nil, fmt.Errorf("users: marshal profile: %w", err)
	}
	return company, settings, profile, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u         User
		company   []byte
		settings  []byte
		profile   []byte
		perms     []byte
		sub       []byte
		apiAccess []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive,
		&company, &settings, &profile, &perms, &sub, &apiAccess,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: scan user: %w", err)
	}

	if err := json.Unmarshal(company, &u.Company); err != nil {
		return nil, fmt.Errorf("users: decode company: %w", err)
	}
	if err := json.Unmarshal(settings, &u.Settings); err != nil {
		return nil, fmt.Errorf("users: decode settings: %w", err)
	}
	if err := json.Unmarshal(profile, &u.Profile); err != nil {
		return nil, fmt.Errorf("users: decode profile: %w", err)
	}
	if err := json.Unmarshal(perms, &u.Permissions); err != nil {
		return nil, fmt.Errorf("users: decode permissions: %w", err)
	}
	if err := json.Unmarshal(sub, &u.Subscription); err != nil {
		return nil, fmt.Errorf("users: decode subscription: %w", err)
	}
	var record apiAccessRecord
	if err := json.Unmarshal(apiAccess, &record); err != nil {
		return nil, fmt.Errorf("users: decode api access: %w", err)
	}
	u.APIAccess = APIAccess{
		Enabled:    record.Enabled,
		Key:        record.Key,
		Secret:     record.Secret,
		WebhookURL: record.WebhookURL,
	}
	return &u, nil
}

var _ RepositoryPort = (*Repository)(nil)
