// README: Server-side recomputation of a client-submitted price.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"vtc/internal/types"
)

const (
	// minimumBaseFare floors the distance-based fare used by validation.
	minimumBaseFare = 15.0
	// priceTolerance absorbs live-traffic drift between client estimate and server recomputation.
	priceTolerance = 0.10
)

var ErrPriceMismatch = errors.New("price mismatch")

// PriceMismatchError carries both amounts so the caller can render a precise message.
type PriceMismatchError struct {
	ClientPrice     float64
	CalculatedPrice float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: submitted %.2f, expected %.2f (tolerance %.0f%%)",
		e.ClientPrice, e.CalculatedPrice, priceTolerance*100)
}

func (e *PriceMismatchError) Unwrap() error { return ErrPriceMismatch }

type ValidationInput struct {
	ClientPrice     float64
	DistanceKm      float64
	DurationMinutes float64
	Category        Category
	IsRoundTrip     bool
	RatePerKm       float64
}

type ValidationResult struct {
	Valid bool
	// CalculatedPrice is nil when validation failed open.
	CalculatedPrice *float64
	Err             error
}

// ExpectedPrice recomputes the authoritative price from the stored per-km rate.
func ExpectedPrice(in ValidationInput) float64 {
	base := math.Max(in.DistanceKm*in.RatePerKm, minimumBaseFare)
	// PremiumRoundTrip adds the booking fee to the one-way fare.
	return types.RoundCents(PremiumRoundTrip.Apply(base, in.Category, in.IsRoundTrip))
}

func ValidatePrice(in ValidationInput) ValidationResult {
	calculated := ExpectedPrice(in)
	res := ValidationResult{CalculatedPrice: &calculated}
	if math.Abs(in.ClientPrice-calculated) <= priceTolerance*calculated {
		res.Valid = true
		return res
	}
	res.Err = &PriceMismatchError{ClientPrice: in.ClientPrice, CalculatedPrice: calculated}
	return res
}
