package recommendation

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile (0..100) of an ascending slice using
// linear interpolation between order statistics: the rank is p/100*(n-1) and
// the result interpolates between the two neighbouring samples (Hyndman-Fan
// type 7, the common spreadsheet and numpy default). It returns NaN for an
// empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// sortedCopy leaves the caller's distribution untouched.
func sortedCopy(dist []float64) []float64 {
	out := slices.Clone(dist)
	slices.Sort(out)
	return out
}
