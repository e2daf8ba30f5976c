package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceProvider hands out monotonically increasing sequence values
// scoped by series key. Implementations must guarantee that no two
// concurrent callers receive the same value for the same series; gaps
// caused by aborted invoice creations are acceptable.
type SequenceProvider interface {
	Next(ctx context.Context, series string) (int64, error)
}

// FormatNumber renders the human-readable document number, e.g.
// FAC2026-00042. The year is taken from the assignment time.
func FormatNumber(series string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%d-%05d", series, at.Year(), seq)
}

// PGSequenceProvider implements SequenceProvider on a per-series
// counter row. The increment relies on the database's row-level
// serialization, so concurrent callers never observe the same value.
type PGSequenceProvider struct {
	pool *pgxpool.Pool
}

// NewPGSequenceProvider constructs a PGSequenceProvider.
func NewPGSequenceProvider(pool *pgxpool.Pool) *PGSequenceProvider {
	return &PGSequenceProvider{pool: pool}
}

// Next atomically increments and returns the counter for series.
func (p *PGSequenceProvider) Next(ctx context.Context, series string) (int64, error) {
	const query = `
		INSERT INTO invoice_sequences (series, last_value)
		VALUES ($1, 1)
		ON CONFLICT (series)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`

	var value int64
	if err := p.pool.QueryRow(ctx, query, series).Scan(&value); err != nil {
		return 0, fmt.Errorf("invoicing: next sequence for %s: %w", series, err)
	}
	return value, nil
}

var _ SequenceProvider = (*PGSequenceProvider)(nil)
