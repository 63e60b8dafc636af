// README: Pricing inputs, quote output and per-category rate definitions.
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

type Category string

const (
	CategoryStandard Category = "standard"
	CategoryBerline  Category = "berline"
	CategoryVan      Category = "van"
)

var ErrInvalidCategory = errors.New("invalid vehicle category")

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryStandard, CategoryBerline, CategoryVan:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q (allowed: standard, berline, van)", ErrInvalidCategory, s)
}

// Rate is the stored per-km rate used by server-side validation.
type Rate struct {
	Category  Category
	RatePerKm float64
}

type QuoteRequest struct {
	DistanceKm      float64
	DurationMinutes float64
	Category        Category
	IsRoundTrip     bool
	// Strategy selects the round-trip formula; nil means SimpleRoundTrip.
	Strategy RoundTripStrategy
}

type Quote struct {
	Price                float64 `json:"price"`
	PriceBasedOnDistance float64 `json:"priceBasedOnDistance"`
	PriceBasedOnTime     float64 `json:"priceBasedOnTime"`
	IsTrafficSurcharge   bool    `json:"isTrafficSurcharge"`
}

// Route is the authoritative trip geometry from the routing provider.
type Route struct {
	DistanceKm      float64
	DurationMinutes float64
}
