// Package indicator provides technical indicator calculations over candle data.
//
// All indicators are pure functions from a candle sequence to a series that
// is point-aligned with the input: output[i] carries the same time as
// data[i], with the warm-up span marked invalid until enough history exists.
// Recomputing a series from the same input always yields identical output.
package indicator

import "math"

// round2 rounds to 2 decimal places for display-stable moving averages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
