// README: Dispatch service loads a booking's day and assigns drivers that the resolver accepts.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vtc/internal/modules/booking"
	"vtc/internal/modules/driver"
	"vtc/internal/observability"
	"vtc/internal/types"
)

var ErrDriverUnavailable = errors.New("driver is not available for this booking")

type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	ListForDay(ctx context.Context, day time.Time) ([]*booking.Booking, error)
	AssignDriver(ctx context.Context, cmd booking.AssignCommand) (*booking.Booking, error)
}

type Drivers interface {
	List(ctx context.Context) ([]*driver.Driver, error)
}

type Service struct {
	bookings Bookings
	drivers  Drivers
	resolver Resolver
	log      *slog.Logger
	now      func() time.Time
}

type Options struct {
	Resolver Resolver
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewService(bookings Bookings, drivers Drivers, opts Options) *Service {
	s := &Service{
		bookings: bookings,
		drivers:  drivers,
		resolver: opts.Resolver,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if s.resolver == (Resolver{}) {
		s.resolver = DefaultResolver()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Availability resolves the drivers free to take the booking.
func (s *Service) Availability(ctx context.Context, bookingID types.ID) (Result, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	return s.availabilityFor(ctx, b)
}

func (s *Service) availabilityFor(ctx context.Context, b *booking.Booking) (Result, error) {
	day := s.now()
	if b.ScheduledDate != nil {
		day = *b.ScheduledDate
	}
	sameDay, err := s.bookings.ListForDay(ctx, day)
	if err != nil {
		return Result{}, fmt.Errorf("list bookings: %w", err)
	}
	roster, err := s.drivers.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list drivers: %w", err)
	}

	drivers := make([]Driver, 0, len(roster))
	for _, d := range roster {
		drivers = append(drivers, Driver{ID: d.ID, IsOnline: d.IsOnline})
	}
	existing := make([]Booking, 0, len(sameDay))
	for _, other := range sameDay {
		if other.ID == b.ID {
			continue
		}
		existing = append(existing, Booking{
			ID:                       other.ID,
			ScheduledDate:            other.ScheduledDate,
			EstimatedDurationMinutes: other.EstimatedDurationMinutes,
			Status:                   other.Status,
			DriverID:                 other.DriverID,
		})
	}

	res := s.resolver.Resolve(Candidate{
		ScheduledDate:            b.ScheduledDate,
		EstimatedDurationMinutes: b.EstimatedDurationMinutes,
	}, drivers, existing)
	observability.EligibleDrivers.Observe(float64(len(res.Eligible)))
	return res, nil
}

// Assign re-checks availability and assigns the driver through the booking service.
func (s *Service) Assign(ctx context.Context, bookingID, driverID types.ID, actorID string) (*booking.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	res, err := s.availabilityFor(ctx, b)
	if err != nil {
		return nil, err
	}
	if !res.IsEligible(driverID) {
		observability.AssignmentsTotal.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %s", ErrDriverUnavailable, driverID)
	}

	out, err := s.bookings.AssignDriver(ctx, booking.AssignCommand{
		BookingID: bookingID,
		DriverID:  driverID,
		ActorID:   actorID,
	})
	if err != nil {
		result := "error"
		if errors.Is(err, booking.ErrConflict) {
			result = "conflict"
		}
		observability.AssignmentsTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	observability.AssignmentsTotal.WithLabelValues("ok").Inc()
	s.log.Info("driver assigned", "booking_id", bookingID, "driver_id", driverID)
	return out, nil
}
