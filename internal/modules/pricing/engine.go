// README: Hybrid pricing engine: max of a zonal fare and a traffic-safety time fare.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"vtc/internal/types"
)

const (
	tierShortKm = 3.0
	tierMidKm   = 7.0

	timeFarePerKm  = 1.10
	timeFarePerMin = 0.80

	// premiumRoundTripFactor is applied on top of doubling by PremiumRoundTrip.
	premiumRoundTripFactor = 1.10
)

type zonalTariff struct {
	short, mid, perKmBeyond float64
}

var zonalTariffs = map[Category]zonalTariff{
	CategoryStandard: {short: 15, mid: 25, perKmBeyond: 1.90},
	CategoryBerline:  {short: 25, mid: 35, perKmBeyond: 3.50},
	CategoryVan:      {short: 25, mid: 35, perKmBeyond: 3.50},
}

var bookingFees = map[Category]float64{
	CategoryStandard: 2,
	CategoryBerline:  3,
	CategoryVan:      3,
}

// ZonalPrice is the tiered flat-then-linear fare. Tier bounds are inclusive on the
// lower tier. Unknown categories are priced as berline.
func ZonalPrice(distanceKm float64, c Category) float64 {
	t, ok := zonalTariffs[c]
	if !ok {
		t = zonalTariffs[CategoryBerline]
	}
	switch {
	case distanceKm <= tierShortKm:
		return t.short
	case distanceKm <= tierMidKm:
		return t.mid
	default:
		return t.mid + (distanceKm-tierMidKm)*t.perKmBeyond
	}
}

// TimePrice is the traffic-safety fare; it grows with both distance and duration.
func TimePrice(distanceKm, durationMinutes float64) float64 {
	return distanceKm*timeFarePerKm + durationMinutes*timeFarePerMin
}

// BookingFee is the flat per-category fee used by PremiumRoundTrip and validation.
func BookingFee(c Category) float64 {
	if fee, ok := bookingFees[c]; ok {
		return fee
	}
	return bookingFees[CategoryBerline]
}

// RoundTripStrategy turns a one-way fare into the final fare.
type RoundTripStrategy interface {
	Name() string
	Apply(oneWay float64, c Category, isRoundTrip bool) float64
}

type simpleRoundTrip struct{}

func (simpleRoundTrip) Name() string { return "simple" }

func (simpleRoundTrip) Apply(oneWay float64, _ Category, isRoundTrip bool) float64 {
	if isRoundTrip {
		return oneWay * 2
	}
	return oneWay
}

type premiumRoundTrip struct{}

func (premiumRoundTrip) Name() string { return "premium" }

func (premiumRoundTrip) Apply(oneWay float64, c Category, isRoundTrip bool) float64 {
	v := oneWay + BookingFee(c)
	if isRoundTrip {
		return v * 2 * premiumRoundTripFactor
	}
	return v
}

var (
	// SimpleRoundTrip doubles the one-way fare.
	SimpleRoundTrip RoundTripStrategy = simpleRoundTrip{}
	// PremiumRoundTrip adds the booking fee, then doubles with a 10% premium.
	PremiumRoundTrip RoundTripStrategy = premiumRoundTrip{}
)

func ParseRoundTripStrategy(s string) (RoundTripStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return SimpleRoundTrip, nil
	case "premium":
		return PremiumRoundTrip, nil
	}
	return nil, fmt.Errorf("unknown round trip strategy %q", s)
}

// CalculateFinalPrice is total over finite non-negative inputs.
func CalculateFinalPrice(req QuoteRequest) Quote {
	byDistance := ZonalPrice(req.DistanceKm, req.Category)
	byTime := TimePrice(req.DistanceKm, req.DurationMinutes)

	strategy := req.Strategy
	if strategy == nil {
		strategy = SimpleRoundTrip
	}
	final := strategy.Apply(math.Max(byDistance, byTime), req.Category, req.IsRoundTrip)

	return Quote{
		Price:                types.RoundCents(final),
		PriceBasedOnDistance: types.RoundCents(byDistance),
		PriceBasedOnTime:     types.RoundCents(byTime),
		IsTrafficSurcharge:   byTime > byDistance,
	}
}
