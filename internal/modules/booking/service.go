// README: Booking service implements creation, status transitions and driver assignment with optimistic locking.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vtc/internal/modules/pricing"
	"vtc/internal/observability"
	"vtc/internal/types"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)
	// UpdateStatus writes only if status and version are unchanged; false means nothing matched.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	// AssignDriver writes only if status, version and the previous driver are unchanged.
	AssignDriver(ctx context.Context, id types.ID, from, to Status, version int, prevDriver *types.ID, driverID types.ID) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type PriceValidator interface {
	Validate(ctx context.Context, cmd pricing.ValidateCommand) (pricing.ValidationResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

type Service struct {
	store  Repository
	prices PriceValidator
	events EventPublisher
	log    *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

type Options struct {
	Events   EventPublisher
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

func NewService(store Repository, prices PriceValidator, opts Options) *Service {
	s := &Service{
		store:  store,
		prices: prices,
		events: opts.Events,
		log:    opts.Logger,
		loc:    opts.Location,
		now:    opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateCommand struct {
	CustomerName             string
	CustomerPhone            string
	Pickup                   string
	Dropoff                  string
	ScheduledDate            *time.Time
	EstimatedDurationMinutes *int
	VehicleCategory          string
	IsRoundTrip              bool
	DistanceKm               float64
	ClientPrice              float64
}

type TransitionCommand struct {
	BookingID types.ID
	To        Status
	ActorType string
	ActorID   string
}

type AssignCommand struct {
	BookingID types.ID
	DriverID  types.ID
	ActorID   string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	category, err := validateCreate(cmd)
	if err != nil {
		return nil, err
	}

	if s.prices != nil {
		res, err := s.prices.Validate(ctx, pricing.ValidateCommand{
			ClientPrice: cmd.ClientPrice,
			Origin:      cmd.Pickup,
			Destination: cmd.Dropoff,
			Category:    category,
			IsRoundTrip: cmd.IsRoundTrip,
		})
		if err != nil {
			return nil, fmt.Errorf("validate price: %w", err)
		}
		if !res.Valid {
			return nil, res.Err
		}
	}

	now := s.now()
	b := &Booking{
		ID:                       types.ID(uuid.NewString()),
		CustomerName:             strings.TrimSpace(cmd.CustomerName),
		CustomerPhone:            strings.TrimSpace(cmd.CustomerPhone),
		Pickup:                   strings.TrimSpace(cmd.Pickup),
		Dropoff:                  strings.TrimSpace(cmd.Dropoff),
		ScheduledDate:            cmd.ScheduledDate,
		EstimatedDurationMinutes: cmd.EstimatedDurationMinutes,
		Status:                   StatusPending,
		VehicleCategory:          category,
		IsRoundTrip:              cmd.IsRoundTrip,
		DistanceKm:               cmd.DistanceKm,
		Price:                    types.RoundCents(cmd.ClientPrice),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	s.record(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "customer",
		CreatedAt:  now,
	})
	s.log.Info("booking created", "booking_id", b.ID, "category", category, "price", b.Price)
	return b, nil
}

func validateCreate(cmd CreateCommand) (pricing.Category, error) {
	if strings.TrimSpace(cmd.CustomerName) == "" || strings.TrimSpace(cmd.CustomerPhone) == "" {
		return "", fmt.Errorf("%w: customer name and phone are required", ErrBadRequest)
	}
	if strings.TrimSpace(cmd.Pickup) == "" || strings.TrimSpace(cmd.Dropoff) == "" {
		return "", fmt.Errorf("%w: pickup and dropoff are required", ErrBadRequest)
	}
	if cmd.ClientPrice <= 0 || cmd.DistanceKm < 0 {
		return "", fmt.Errorf("%w: price must be positive", ErrBadRequest)
	}
	if cmd.EstimatedDurationMinutes != nil && *cmd.EstimatedDurationMinutes <= 0 {
		return "", fmt.Errorf("%w: estimated duration must be positive", ErrBadRequest)
	}
	return pricing.ParseCategory(cmd.VehicleCategory)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

// ListForDay returns the bookings of the calendar day containing day, in the service location.
func (s *Service) ListForDay(ctx context.Context, day time.Time) ([]*Booking, error) {
	d := day.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return s.store.ListBetween(ctx, start, start.AddDate(0, 0, 1))
}

// Location is the timezone used to cut calendar days.
func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(b.Status, cmd.To); err != nil {
		observability.BookingTransitionsTotal.WithLabelValues(string(cmd.To), "invalid").Inc()
		return nil, err
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, cmd.To, b.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.BookingTransitionsTotal.WithLabelValues(string(cmd.To), "conflict").Inc()
		return nil, ErrConflict
	}
	observability.BookingTransitionsTotal.WithLabelValues(string(cmd.To), "ok").Inc()

	from := b.Status
	b.Status = cmd.To
	b.StatusVersion++
	b.UpdatedAt = s.now()
	s.record(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   cmd.To,
		DriverID:   b.DriverID,
		ActorType:  cmd.ActorType,
		ActorID:    optionalString(cmd.ActorID),
		CreatedAt:  b.UpdatedAt,
	})
	return b, nil
}

// AssignDriver sets the booking's driver. A pending booking becomes confirmed.
func (s *Service) AssignDriver(ctx context.Context, cmd AssignCommand) (*Booking, error) {
	if cmd.DriverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrBadRequest)
	}
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot assign a driver to a %s booking", ErrInvalidState, b.Status)
	}
	ok, err := s.store.AssignDriver(ctx, b.ID, b.Status, StatusConfirmed, b.StatusVersion, b.DriverID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	from := b.Status
	b.Status = StatusConfirmed
	b.StatusVersion++
	b.DriverID = types.IDPtr(cmd.DriverID)
	b.UpdatedAt = s.now()
	s.record(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   StatusConfirmed,
		DriverID:   b.DriverID,
		ActorType:  "admin",
		ActorID:    optionalString(cmd.ActorID),
		CreatedAt:  b.UpdatedAt,
	})
	return b, nil
}

// record persists the state event and publishes it; both are best effort once the
// state change itself is committed.
func (s *Service) record(ctx context.Context, e *Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.log.Error("append booking event", "error", err, "booking_id", e.BookingID)
	}
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, *e); err != nil {
		s.log.Warn("publish booking event", "error", err, "booking_id", e.BookingID, "to", e.ToStatus)
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
