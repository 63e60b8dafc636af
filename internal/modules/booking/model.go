// README: Booking aggregate, status definitions and the status state machine.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vtc/internal/modules/pricing"
	"vtc/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Booking struct {
	ID                       types.ID
	CustomerName             string
	CustomerPhone            string
	Pickup                   string
	Dropoff                  string
	ScheduledDate            *time.Time
	EstimatedDurationMinutes *int
	Status                   Status
	StatusVersion            int
	DriverID                 *types.ID
	VehicleCategory          pricing.Category
	IsRoundTrip              bool
	DistanceKm               float64
	Price                    float64
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type Event struct {
	ID         int64     `json:"-"`
	BookingID  types.ID  `json:"booking_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	DriverID   *types.ID `json:"driver_id,omitempty"`
	ActorType  string    `json:"actor_type"`
	ActorID    *string   `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllowedTransitions represents the booking state flow as code.
// completed and cancelled are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError reports a rejected status change with everything needed to
// render a precise message.
type TransitionError struct {
	Current   Status
	Attempted Status
	Allowed   []Status
}

func (e *TransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		parts := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			parts[i] = string(s)
		}
		allowed = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("invalid transition from %s to %s (allowed: %s)", e.Current, e.Attempted, allowed)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidState }

func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	allowed := append([]Status(nil), AllowedTransitions[from]...)
	return &TransitionError{Current: from, Attempted: to, Allowed: allowed}
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrBadRequest, s)
}

// OccupiesDriver reports whether a booking in this status blocks its driver's timeline.
func (s Status) OccupiesDriver() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

func (s Status) IsTerminal() bool {
	return len(AllowedTransitions[s]) == 0
}

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking was modified by another user, retry")
	ErrBadRequest   = errors.New("bad request")
)
