package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtc/internal/logging"
)

func TestZonalPrice_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		category Category
		want     float64
	}{
		{"standard zero", 0, CategoryStandard, 15},
		{"standard at 3km stays in first tier", 3, CategoryStandard, 15},
		{"standard just above 3km", 3.0001, CategoryStandard, 25},
		{"standard at 7km stays in second tier", 7, CategoryStandard, 25},
		{"standard 10km", 10, CategoryStandard, 25 + 3*1.90},
		{"berline at 3km", 3, CategoryBerline, 25},
		{"berline at 7km", 7, CategoryBerline, 35},
		{"berline 10km", 10, CategoryBerline, 35 + 3*3.50},
		{"van matches berline", 12, CategoryVan, 35 + 5*3.50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ZonalPrice(tt.distance, tt.category), 1e-9)
		})
	}
}

func TestZonalPrice_NonDecreasingAndContinuousAtSeven(t *testing.T) {
	for _, c := range []Category{CategoryStandard, CategoryBerline, CategoryVan} {
		prev := ZonalPrice(0, c)
		for d := 0.0; d <= 40; d += 0.25 {
			cur := ZonalPrice(d, c)
			assert.GreaterOrEqual(t, cur, prev, "%s at %.2fkm", c, d)
			prev = cur
		}
		atSeven := ZonalPrice(7, c)
		justAbove := ZonalPrice(7.0001, c)
		assert.Greater(t, justAbove, atSeven)
		assert.Less(t, justAbove-atSeven, 0.001)
	}
}

func TestCalculateFinalPrice_ShortRideUsesZonal(t *testing.T) {
	q := CalculateFinalPrice(QuoteRequest{DistanceKm: 2, DurationMinutes: 10, Category: CategoryStandard})

	assert.Equal(t, 15.0, q.Price)
	assert.Equal(t, 15.0, q.PriceBasedOnDistance)
	assert.Equal(t, 10.20, q.PriceBasedOnTime)
	assert.False(t, q.IsTrafficSurcharge)
}

func TestCalculateFinalPrice_TrafficSurcharge(t *testing.T) {
	q := CalculateFinalPrice(QuoteRequest{DistanceKm: 5, DurationMinutes: 60, Category: CategoryStandard})

	assert.Equal(t, 25.0, q.PriceBasedOnDistance)
	assert.Equal(t, 53.50, q.PriceBasedOnTime)
	assert.Equal(t, 53.50, q.Price)
	assert.True(t, q.IsTrafficSurcharge)
}

func TestCalculateFinalPrice_TieIsNotSurcharge(t *testing.T) {
	// 0km: zonal 15, time = 18.75 min * 0.80 = 15.
	q := CalculateFinalPrice(QuoteRequest{DistanceKm: 0, DurationMinutes: 18.75, Category: CategoryStandard})

	assert.Equal(t, 15.0, q.Price)
	assert.False(t, q.IsTrafficSurcharge)
}

func TestCalculateFinalPrice_SimpleRoundTripDoubles(t *testing.T) {
	distances := []float64{0, 2, 3, 5, 7, 10, 12.5}
	durations := []float64{0, 10, 45, 90}
	for _, c := range []Category{CategoryStandard, CategoryBerline, CategoryVan} {
		for _, d := range distances {
			for _, m := range durations {
				oneWay := CalculateFinalPrice(QuoteRequest{DistanceKm: d, DurationMinutes: m, Category: c})
				round := CalculateFinalPrice(QuoteRequest{DistanceKm: d, DurationMinutes: m, Category: c, IsRoundTrip: true, Strategy: SimpleRoundTrip})

				assert.InDelta(t, 2*oneWay.Price, round.Price, 1e-9, "%s d=%v t=%v", c, d, m)
				assert.GreaterOrEqual(t, oneWay.Price, oneWay.PriceBasedOnDistance)
				assert.GreaterOrEqual(t, oneWay.Price, oneWay.PriceBasedOnTime)
				assert.InDelta(t, math.Max(oneWay.PriceBasedOnDistance, oneWay.PriceBasedOnTime), oneWay.Price, 1e-9)
			}
		}
	}
}

func TestCalculateFinalPrice_PremiumRoundTrip(t *testing.T) {
	oneWay := CalculateFinalPrice(QuoteRequest{DistanceKm: 2, DurationMinutes: 10, Category: CategoryStandard, Strategy: PremiumRoundTrip})
	assert.Equal(t, 17.0, oneWay.Price, "booking fee added to one-way fare")

	round := CalculateFinalPrice(QuoteRequest{DistanceKm: 2, DurationMinutes: 10, Category: CategoryStandard, IsRoundTrip: true, Strategy: PremiumRoundTrip})
	assert.Equal(t, 37.4, round.Price)
	assert.Equal(t, 15.0, round.PriceBasedOnDistance, "components are not affected by the strategy")
}

func TestCalculateFinalPrice_RoundsToCents(t *testing.T) {
	q := CalculateFinalPrice(QuoteRequest{DistanceKm: 7.5, DurationMinutes: 23.7, Category: CategoryStandard})
	for _, v := range []float64{q.Price, q.PriceBasedOnDistance, q.PriceBasedOnTime} {
		cents := v * 100
		assert.InDelta(t, math.Round(cents), cents, 1e-6, "%v has more than 2 decimals", v)
	}
	assert.Equal(t, 27.21, q.Price)
	assert.True(t, q.IsTrafficSurcharge)
}

func TestParseCategoryAndStrategy(t *testing.T) {
	c, err := ParseCategory(" Berline ")
	require.NoError(t, err)
	assert.Equal(t, CategoryBerline, c)

	_, err = ParseCategory("limousine")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	s, err := ParseRoundTripStrategy("premium")
	require.NoError(t, err)
	assert.Equal(t, "premium", s.Name())
	s, err = ParseRoundTripStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "simple", s.Name())
	_, err = ParseRoundTripStrategy("triple")
	assert.Error(t, err)
}

type stubRoutes struct {
	route Route
	err   error
	calls int
}

func (s *stubRoutes) Route(_ context.Context, _, _ string) (Route, error) {
	s.calls++
	return s.route, s.err
}

type stubRates struct {
	rates map[Category]float64
	err   error
}

func (s *stubRates) UpsertRate(_ context.Context, r Rate) error {
	if s.rates == nil {
		s.rates = map[Category]float64{}
	}
	s.rates[r.Category] = r.RatePerKm
	return nil
}

func (s *stubRates) GetRate(_ context.Context, c Category) (Rate, error) {
	if s.err != nil {
		return Rate{}, s.err
	}
	v, ok := s.rates[c]
	if !ok {
		return Rate{}, ErrNoRate
	}
	return Rate{Category: c, RatePerKm: v}, nil
}

func newTestService(rates RateStore, routes RouteProvider) *Service {
	return NewService(rates, routes, Options{
		DefaultRatePerKm: map[string]float64{"standard": 1.90, "berline": 3.50, "van": 3.50},
		Logger:           logging.Discard(),
	})
}

func TestService_QuoteFromRoute(t *testing.T) {
	routes := &stubRoutes{route: Route{DistanceKm: 5, DurationMinutes: 60}}
	svc := newTestService(nil, routes)

	q, err := svc.Quote(context.Background(), QuoteCommand{
		Origin:      "Gare de Lyon, Paris",
		Destination: "Orly",
		Category:    CategoryStandard,
	})
	require.NoError(t, err)
	assert.Equal(t, 53.50, q.Price)
	assert.Equal(t, 1, routes.calls)
}

func TestService_QuoteRejectsBadInput(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.Quote(context.Background(), QuoteCommand{DistanceKm: -1, Category: CategoryStandard})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Quote(context.Background(), QuoteCommand{DistanceKm: 1, Category: "bus"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestService_QuoteRouteErrorIsReturned(t *testing.T) {
	svc := newTestService(nil, &stubRoutes{err: errors.New("timeout")})

	_, err := svc.Quote(context.Background(), QuoteCommand{Origin: "a", Destination: "b", Category: CategoryVan})
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestService_SetRate(t *testing.T) {
	rates := &stubRates{}
	svc := newTestService(rates, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetRate(ctx, Rate{Category: " VAN ", RatePerKm: 4.2}))
	assert.Equal(t, 4.2, rates.rates[CategoryVan])

	assert.ErrorIs(t, svc.SetRate(ctx, Rate{Category: CategoryVan, RatePerKm: 0}), ErrBadRequest)
	assert.ErrorIs(t, svc.SetRate(ctx, Rate{Category: "bus", RatePerKm: 2}), ErrInvalidCategory)
}

func TestService_QuoteUsesConfiguredStrategy(t *testing.T) {
	svc := NewService(nil, nil, Options{Strategy: PremiumRoundTrip, Logger: logging.Discard()})

	q, err := svc.Quote(context.Background(), QuoteCommand{DistanceKm: 2, DurationMinutes: 10, Category: CategoryStandard, IsRoundTrip: true})
	require.NoError(t, err)
	assert.Equal(t, 37.4, q.Price)

	q, err = svc.Quote(context.Background(), QuoteCommand{DistanceKm: 2, DurationMinutes: 10, Category: CategoryStandard, IsRoundTrip: true, Strategy: SimpleRoundTrip})
	require.NoError(t, err)
	assert.Equal(t, 30.0, q.Price)
}

func TestService_ValidateFailsOpenWhenRoutingDown(t *testing.T) {
	svc := newTestService(&stubRates{}, &stubRoutes{err: errors.New("maps api error: 503")})

	res, err := svc.Validate(context.Background(), ValidateCommand{
		ClientPrice: 1, Origin: "a", Destination: "b", Category: CategoryStandard,
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Nil(t, res.CalculatedPrice)
}

func TestService_ValidateUsesStoredRate(t *testing.T) {
	routes := &stubRoutes{route: Route{DistanceKm: 10, DurationMinutes: 25}}
	svc := newTestService(&stubRates{rates: map[Category]float64{CategoryStandard: 2.5}}, routes)

	// 10km * 2.5 = 25, +2 fee = 27.
	res, err := svc.Validate(context.Background(), ValidateCommand{
		ClientPrice: 27, Origin: "a", Destination: "b", Category: CategoryStandard,
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.CalculatedPrice)
	assert.Equal(t, 27.0, *res.CalculatedPrice)
}

func TestService_ValidateFallsBackToDefaultRate(t *testing.T) {
	routes := &stubRoutes{route: Route{DistanceKm: 10, DurationMinutes: 25}}
	svc := newTestService(&stubRates{rates: map[Category]float64{}}, routes)

	// 10km * 1.90 = 19, +2 fee = 21; 40 is far outside 10%.
	res, err := svc.Validate(context.Background(), ValidateCommand{
		ClientPrice: 40, Origin: "a", Destination: "b", Category: CategoryStandard,
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	var mismatch *PriceMismatchError
	require.ErrorAs(t, res.Err, &mismatch)
	assert.Equal(t, 40.0, mismatch.ClientPrice)
	assert.Equal(t, 21.0, mismatch.CalculatedPrice)
	assert.ErrorIs(t, res.Err, ErrPriceMismatch)
}

func TestService_ValidateStoreErrorIsReturned(t *testing.T) {
	routes := &stubRoutes{route: Route{DistanceKm: 10}}
	svc := newTestService(&stubRates{err: errors.New("connection refused")}, routes)

	_, err := svc.Validate(context.Background(), ValidateCommand{
		ClientPrice: 21, Origin: "a", Destination: "b", Category: CategoryStandard,
	})
	assert.Error(t, err)
}
