// README: Pricing store backed by PostgreSQL (vehicle_rates table).
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRate(ctx context.Context, c Category) (Rate, error) {
	r := Rate{Category: c}
	err := s.db.QueryRow(ctx, `
		SELECT rate_per_km
		FROM vehicle_rates
		WHERE category = $1`, string(c),
	).Scan(&r.RatePerKm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrNoRate
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}

func (s *Store) UpsertRate(ctx context.Context, r Rate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicle_rates (category, rate_per_km, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (category) DO UPDATE
		SET rate_per_km = EXCLUDED.rate_per_km, updated_at = NOW()`,
		string(r.Category), r.RatePerKm,
	)
	return err
}
