// README: Availability resolver decides which online drivers can take a booking without overlapping their rides.
package dispatch

import (
	"time"

	"vtc/internal/modules/booking"
	"vtc/internal/types"
)

const (
	// DefaultBuffer is the transition time required between two rides of one driver.
	DefaultBuffer = 15 * time.Minute
	// DefaultDuration is assumed for bookings without an estimated duration.
	DefaultDuration = 30 * time.Minute
)

type Driver struct {
	ID       types.ID
	IsOnline bool
}

// Booking is the slice of a booking the resolver needs.
type Booking struct {
	ID                       types.ID
	ScheduledDate            *time.Time
	EstimatedDurationMinutes *int
	Status                   booking.Status
	DriverID                 *types.ID
}

type Candidate struct {
	ScheduledDate            *time.Time
	EstimatedDurationMinutes *int
}

type Window struct {
	Start time.Time
	End   time.Time
}

type Result struct {
	Eligible []types.ID `json:"eligible"`
	Busy     []types.ID `json:"busy"`
}

type Resolver struct {
	Buffer          time.Duration
	DefaultDuration time.Duration
}

func DefaultResolver() Resolver {
	return Resolver{Buffer: DefaultBuffer, DefaultDuration: DefaultDuration}
}

// NewResolver builds a resolver from minute settings; non-positive values keep the defaults.
func NewResolver(bufferMinutes, defaultDurationMinutes int) Resolver {
	r := DefaultResolver()
	if bufferMinutes > 0 {
		r.Buffer = time.Duration(bufferMinutes) * time.Minute
	}
	if defaultDurationMinutes > 0 {
		r.DefaultDuration = time.Duration(defaultDurationMinutes) * time.Minute
	}
	return r
}

// Window returns [start, start+duration). ok is false for an undated booking.
func (r Resolver) Window(scheduled *time.Time, durationMinutes *int) (Window, bool) {
	if scheduled == nil {
		return Window{}, false
	}
	d := r.DefaultDuration
	if durationMinutes != nil && *durationMinutes > 0 {
		d = time.Duration(*durationMinutes) * time.Minute
	}
	return Window{Start: *scheduled, End: scheduled.Add(d)}, true
}

// Conflicts applies the buffer on both sides of the existing window.
func (r Resolver) Conflicts(candidate, existing Window) bool {
	return candidate.Start.Before(existing.End.Add(r.Buffer)) &&
		candidate.End.Add(r.Buffer).After(existing.Start)
}

// Resolve splits the online drivers into eligible and busy, keeping roster order.
// Offline drivers appear in neither list.
func (r Resolver) Resolve(c Candidate, drivers []Driver, bookings []Booking) Result {
	res := Result{Eligible: []types.ID{}, Busy: []types.ID{}}

	cw, dated := r.Window(c.ScheduledDate, c.EstimatedDurationMinutes)
	busy := map[types.ID]bool{}
	if dated {
		for _, b := range bookings {
			if b.DriverID == nil || !b.Status.OccupiesDriver() {
				continue
			}
			ew, ok := r.Window(b.ScheduledDate, b.EstimatedDurationMinutes)
			if !ok {
				continue
			}
			if r.Conflicts(cw, ew) {
				busy[*b.DriverID] = true
			}
		}
	}

	for _, d := range drivers {
		if !d.IsOnline {
			continue
		}
		if busy[d.ID] {
			res.Busy = append(res.Busy, d.ID)
			continue
		}
		res.Eligible = append(res.Eligible, d.ID)
	}
	return res
}

// IsEligible reports whether id is in the eligible list.
func (r Result) IsEligible(id types.ID) bool {
	for _, e := range r.Eligible {
		if e == id {
			return true
		}
	}
	return false
}
