package reps

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the rep has no stored rate row.
var ErrNotFound = errors.New("rep rate not found")

// RateRepository provides PostgreSQL backed persistence for commission rates.
type RateRepository struct {
	pool        *pgxpool.Pool
	defaultRate float64
}

// NewRateRepository constructs a rate repository. Reps without a stored rate
// fall back to defaultRate.
func NewRateRepository(pool *pgxpool.Pool, defaultRate float64) *RateRepository {
	return &RateRepository{pool: pool, defaultRate: defaultRate}
}

// DefaultRate returns the fallback commission rate.
func (r *RateRepository) DefaultRate() float64 {
	return r.defaultRate
}

// GetRate returns the stored commission rate for a canonical rep name, or
// the default rate when none is on file.
func (r *RateRepository) GetRate(ctx context.Context, repName string) (float64, error) {
	var rate float64
	err := r.pool.QueryRow(ctx,
		`SELECT rate FROM rep_rates WHERE rep_name = $1`, repName,
	).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.defaultRate, nil
		}
		return 0, err
	}
	return rate, nil
}

// UpsertRate stores a rep's commission rate, replacing any previous value.
func (r *RateRepository) UpsertRate(ctx context.Context, repName string, rate float64) (RepRate, error) {
	var out RepRate
	err := r.pool.QueryRow(ctx,
		`INSERT INTO rep_rates (rep_name, rate, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (rep_name) DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at
		 RETURNING rep_name, rate, updated_at`,
		repName, rate, time.Now().UTC(),
	).Scan(&out.RepName, &out.Rate, &out.UpdatedAt)
	if err != nil {
		return RepRate{}, err
	}
	return out, nil
}

// DeleteRate removes a rep's stored rate, reverting the rep to the default.
// Returns ErrNotFound when no rate was on file.
func (r *RateRepository) DeleteRate(ctx context.Context, repName string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM rep_rates WHERE rep_name = $1`, repName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRates returns every stored rate ordered by rep name.
func (r *RateRepository) ListRates(ctx context.Context) ([]RepRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rep_name, rate, updated_at FROM rep_rates ORDER BY rep_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []RepRate
	for rows.Next() {
		var rr RepRate
		if err := rows.Scan(&rr.RepName, &rr.Rate, &rr.UpdatedAt); err != nil {
			return nil, err
		}
		rates = append(rates, rr)
	}
	return rates, rows.Err()
}
