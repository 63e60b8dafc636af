// README: Booking store backed by PostgreSQL; writes are conditional on the previously read state.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vtc/internal/modules/pricing"
	"vtc/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `
	id, customer_name, customer_phone, pickup, dropoff,
	scheduled_date, estimated_duration_minutes, status, status_version, driver_id,
	vehicle_category, is_round_trip, distance_km, price, created_at, updated_at`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16
		)`,
		string(b.ID), b.CustomerName, b.CustomerPhone, b.Pickup, b.Dropoff,
		b.ScheduledDate, b.EstimatedDurationMinutes, string(b.Status), b.StatusVersion, toStringPtr(b.DriverID),
		string(b.VehicleCategory), b.IsRoundTrip, b.DistanceKm, b.Price, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListBetween returns bookings scheduled in [from, to) plus immediate rides created in it.
func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE (scheduled_date >= $1 AND scheduled_date < $2)
		   OR (scheduled_date IS NULL AND created_at >= $1 AND created_at < $2)
		ORDER BY COALESCE(scheduled_date, created_at), id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AssignDriver(ctx context.Context, id types.ID, from, to Status, version int, prevDriver *types.ID, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    driver_id = $2,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5
		  AND driver_id IS NOT DISTINCT FROM $6`,
		string(to), string(driverID), string(id), string(from), version, toStringPtr(prevDriver),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, driver_id, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		toStringPtr(e.DriverID),
		e.ActorType,
		e.ActorID,
		e.CreatedAt,
	)
	return err
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var scheduled sql.NullTime
	var duration sql.NullInt32
	var driverID sql.NullString
	var category string

	err := row.Scan(
		&b.ID, &b.CustomerName, &b.CustomerPhone, &b.Pickup, &b.Dropoff,
		&scheduled, &duration, &b.Status, &b.StatusVersion, &driverID,
		&category, &b.IsRoundTrip, &b.DistanceKm, &b.Price, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scheduled.Valid {
		t := scheduled.Time
		b.ScheduledDate = &t
	}
	if duration.Valid {
		d := int(duration.Int32)
		b.EstimatedDurationMinutes = &d
	}
	if driverID.Valid {
		b.DriverID = types.IDPtr(types.ID(driverID.String))
	}
	b.VehicleCategory = pricing.Category(category)
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
