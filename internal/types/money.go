// README: Money helpers shared by pricing and booking (amounts are euros as float64).
package types

import "math"

// Currency is the only currency the service quotes in.
const Currency = "EUR"

// RoundCents rounds a non-negative amount half-up to 2 decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
