package modules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/NUbem000/NubemERP/internal/shared"
)

// RepositoryPort defines data access methods for the module catalog.
type RepositoryPort interface {
	ListModules(ctx context.Context, filter ListFilter) ([]Module, error)
	GetModule(ctx context.Context, slug string) (*Module, error)
	UpsertModule(ctx context.Context, m *Module) error
	UpdateUsage(ctx context.Context, slug string, usage Usage) error
	SetEnabled(ctx context.Context, slug string, enabled bool) error
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Category Category
	Status   Status
	Enabled  *bool
}

// Repository provides PostgreSQL backed persistence. Features and
// pricing are stored as JSONB beside the flat columns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectModule = `
	SELECT id, slug, name, description, icon, color, category,
	       usage_percentage, active_users, usage_updated_at,
	       features, base_price, currency, billing_cycle,
	       status, is_enabled, sort_order, created_at, updated_at
	FROM modules`

// ListModules returns catalog entries matching the filter, ordered by
// their configured position.
func (r *Repository) ListModules(ctx context.Context, filter ListFilter) ([]Module, error) {
	query := selectModule + ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, string(filter.Category))
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.Enabled != nil {
		query += fmt.Sprintf(" AND is_enabled = $%d", argNum)
		args = append(args, *filter.Enabled)
		argNum++
	}
	query += " ORDER BY sort_order, slug"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("modules: list: %w", err)
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetModule loads a catalog entry by slug.
func (r *Repository) GetModule(ctx context.Context, slug string) (*Module, error) {
	row := r.pool.QueryRow(ctx, selectModule+` WHERE slug = $1`, slug)
	return scanModule(row)
}

// UpsertModule inserts or replaces a catalog entry, keyed by slug.
func (r *Repository) UpsertModule(ctx context.Context, m *Module) error {
	features, err := json.Marshal(m.Features)
	if err != nil {
		return fmt.Errorf("modules: marshal features: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO modules (slug, name, description, icon, color, category,
			usage_percentage, active_users, usage_updated_at,
			features, base_price, currency, billing_cycle,
			status, is_enabled, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color,
			category = EXCLUDED.category,
			features = EXCLUDED.features,
			base_price = EXCLUDED.base_price,
			currency = EXCLUDED.currency,
			billing_cycle = EXCLUDED.billing_cycle,
			status = EXCLUDED.status,
			sort_order = EXCLUDED.sort_order,
			updated_at = NOW()
		RETURNING id`,
		m.Slug, m.Name, m.Description, m.Icon, m.Color, string(m.Category),
		m.Usage.Percentage, m.Usage.ActiveUsers,
		features, m.Pricing.BasePrice, m.Pricing.Currency, m.Pricing.BillingCycle,
		string(m.Status), m.IsEnabled, m.Order,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("modules: upsert %s: %w", m.Slug, err)
	}
	return nil
}

// UpdateUsage stores the module's latest adoption figures.
func (r *Repository) UpdateUsage(ctx context.Context, slug string, usage Usage) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE modules SET usage_percentage = $2, active_users = $3, usage_updated_at = NOW(), updated_at = NOW()
		WHERE slug = $1`, slug, usage.Percentage, usage.ActiveUsers)
	if err != nil {
		return fmt.Errorf("modules: update usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetEnabled toggles a module's availability.
func (r *Repository) SetEnabled(ctx context.Context, slug string, enabled bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE modules SET is_enabled = $2, updated_at = NOW() WHERE slug = $1`, slug, enabled)
	if err != nil {
		return fmt.Errorf("modules: set enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanModule(row pgx.Row) (*Module, error) {
	var (
		m         Module
		features  []byte
		basePrice pgtype.Numeric
	)
	err := row.Scan(&m.ID, &m.Slug, &m.Name, &m.Description, &m.Icon, &m.Color, &m.Category,
		&m.Usage.Percentage, &m.Usage.ActiveUsers, &m.Usage.LastUpdated,
		&features, &basePrice, &m.Pricing.Currency, &m.Pricing.BillingCycle,
		&m.Status, &m.IsEnabled, &m.Order, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("modules: scan: %w", err)
	}
	if err := json.Unmarshal(features, &m.Features); err != nil {
		return nil, fmt.Errorf("modules: decode features: %w", err)
	}
	if basePrice.Valid {
		m.Pricing.BasePrice = decimal.NewFromBigInt(basePrice.Int, basePrice.Exp)
	}
	return &m, nil
}

var _ RepositoryPort = (*Repository)(nil)
