// README: Pricing service computes quotes and validates client prices against the routing provider.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"vtc/internal/observability"
)

// RouteProvider returns driving distance/duration between two addresses.
type RouteProvider interface {
	Route(ctx context.Context, origin, destination string) (Route, error)
}

type RateStore interface {
	GetRate(ctx context.Context, c Category) (Rate, error)
	UpsertRate(ctx context.Context, r Rate) error
}

type Service struct {
	store        RateStore
	routes       RouteProvider
	defaultRates map[Category]float64
	strategy     RoundTripStrategy
	log          *slog.Logger
}

type Options struct {
	// DefaultRatePerKm keys are category names.
	DefaultRatePerKm map[string]float64
	Strategy         RoundTripStrategy
	Logger           *slog.Logger
}

func NewService(store RateStore, routes RouteProvider, opts Options) *Service {
	s := &Service{
		store:        store,
		routes:       routes,
		defaultRates: make(map[Category]float64, len(opts.DefaultRatePerKm)),
		strategy:     opts.Strategy,
		log:          opts.Logger,
	}
	for k, v := range opts.DefaultRatePerKm {
		if c, err := ParseCategory(k); err == nil {
			s.defaultRates[c] = v
		}
	}
	if s.strategy == nil {
		s.strategy = SimpleRoundTrip
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

var (
	ErrBadRequest = errors.New("bad request")
	ErrNoRate     = errors.New("no rate configured for category")

	// ErrRouteUnavailable means the routing provider could not produce a route.
	ErrRouteUnavailable = errors.New("routing provider unavailable")
)

type QuoteCommand struct {
	// Either DistanceKm/DurationMinutes or Origin/Destination must be set.
	DistanceKm      float64
	DurationMinutes float64
	Origin          string
	Destination     string
	Category        Category
	IsRoundTrip     bool
	// Strategy overrides the service default when non-nil.
	Strategy RoundTripStrategy
}

type ValidateCommand struct {
	ClientPrice float64
	Origin      string
	Destination string
	Category    Category
	IsRoundTrip bool
}

func (s *Service) Quote(ctx context.Context, cmd QuoteCommand) (Quote, error) {
	if cmd.DistanceKm < 0 || cmd.DurationMinutes < 0 {
		return Quote{}, ErrBadRequest
	}
	if _, err := ParseCategory(string(cmd.Category)); err != nil {
		return Quote{}, err
	}
	if cmd.Origin != "" && cmd.Destination != "" {
		if s.routes == nil {
			return Quote{}, fmt.Errorf("%w: not configured", ErrRouteUnavailable)
		}
		r, err := s.routes.Route(ctx, cmd.Origin, cmd.Destination)
		if err != nil {
			return Quote{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
		}
		cmd.DistanceKm, cmd.DurationMinutes = r.DistanceKm, r.DurationMinutes
	}
	strategy := cmd.Strategy
	if strategy == nil {
		strategy = s.strategy
	}
	q := CalculateFinalPrice(QuoteRequest{
		DistanceKm:      cmd.DistanceKm,
		DurationMinutes: cmd.DurationMinutes,
		Category:        cmd.Category,
		IsRoundTrip:     cmd.IsRoundTrip,
		Strategy:        strategy,
	})
	observability.QuotesTotal.WithLabelValues(string(cmd.Category), strconv.FormatBool(q.IsTrafficSurcharge)).Inc()
	return q, nil
}

// Validate recomputes the expected price. When the routing provider is unavailable
// the client price is accepted and a warning is logged (fail open).
func (s *Service) Validate(ctx context.Context, cmd ValidateCommand) (ValidationResult, error) {
	if cmd.ClientPrice < 0 || cmd.Origin == "" || cmd.Destination == "" {
		return ValidationResult{}, ErrBadRequest
	}
	if _, err := ParseCategory(string(cmd.Category)); err != nil {
		return ValidationResult{}, err
	}
	if s.routes == nil {
		return s.failOpen(cmd, errors.New("routing provider not configured")), nil
	}
	route, err := s.routes.Route(ctx, cmd.Origin, cmd.Destination)
	if err != nil {
		return s.failOpen(cmd, err), nil
	}
	rate, err := s.ratePerKm(ctx, cmd.Category)
	if err != nil {
		return ValidationResult{}, err
	}

	res := ValidatePrice(ValidationInput{
		ClientPrice:     cmd.ClientPrice,
		DistanceKm:      route.DistanceKm,
		DurationMinutes: route.DurationMinutes,
		Category:        cmd.Category,
		IsRoundTrip:     cmd.IsRoundTrip,
		RatePerKm:       rate,
	})
	if res.Valid {
		observability.PriceValidationsTotal.WithLabelValues("accepted").Inc()
	} else {
		observability.PriceValidationsTotal.WithLabelValues("rejected").Inc()
		s.log.Info("client price rejected",
			"client_price", cmd.ClientPrice,
			"calculated_price", *res.CalculatedPrice,
			"category", cmd.Category,
		)
	}
	return res, nil
}

func (s *Service) failOpen(cmd ValidateCommand, cause error) ValidationResult {
	observability.PriceValidationsTotal.WithLabelValues("fail_open").Inc()
	s.log.Warn("routing provider unavailable, accepting client price",
		"error", cause,
		"client_price", cmd.ClientPrice,
		"category", cmd.Category,
	)
	return ValidationResult{Valid: true}
}

// SetRate stores the per-km rate used by price validation for one category.
func (s *Service) SetRate(ctx context.Context, r Rate) error {
	c, err := ParseCategory(string(r.Category))
	if err != nil {
		return err
	}
	if r.RatePerKm <= 0 {
		return fmt.Errorf("%w: rate per km must be positive", ErrBadRequest)
	}
	if s.store == nil {
		return errors.New("rate store not configured")
	}
	r.Category = c
	if err := s.store.UpsertRate(ctx, r); err != nil {
		return err
	}
	s.log.Info("rate updated", "category", c, "rate_per_km", r.RatePerKm)
	return nil
}

func (s *Service) ratePerKm(ctx context.Context, c Category) (float64, error) {
	if s.store != nil {
		r, err := s.store.GetRate(ctx, c)
		if err == nil {
			return r.RatePerKm, nil
		}
		if !errors.Is(err, ErrNoRate) {
			return 0, fmt.Errorf("load rate for %s: %w", c, err)
		}
	}
	if v, ok := s.defaultRates[c]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNoRate, c)
}
