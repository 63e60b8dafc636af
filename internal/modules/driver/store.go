// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vtc/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (id, name, phone, is_online, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(d.ID), d.Name, d.Phone, d.IsOnline, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	var d Driver
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, is_online, created_at, updated_at
		FROM drivers
		WHERE id = $1`, string(id),
	).Scan(&d.ID, &d.Name, &d.Phone, &d.IsOnline, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns the whole roster ordered by name.
func (s *Store) List(ctx context.Context) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, is_online, created_at, updated_at
		FROM drivers
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.IsOnline, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *Store) SetOnline(ctx context.Context, id types.ID, online bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET is_online = $1, updated_at = NOW() WHERE id = $2`,
		online, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
