package aggregate

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile (0 <= p <= 1) of data using linear
// interpolation between closest ranks (Hyndman-Fan type 7): with sorted x
// and h = (n-1)p, Q = x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)]).
// It returns NaN for empty data.
func Quantile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return math.NaN()
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
