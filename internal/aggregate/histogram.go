package aggregate

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"assesstime/domain/core"
	"assesstime/domain/summary"
)

// BuildHistogram buckets durations into fixed-width bins aligned to
// multiples of width. The first bin holds the minimum and the last the
// maximum; empty interior bins are kept. A non-positive width yields nil.
func BuildHistogram(activity core.ActivityID, durations []time.Duration, width time.Duration) *summary.Histogram {
	if width <= 0 || len(durations) == 0 {
		return nil
	}

	x := sortedNanos(durations)
	first := time.Duration(x[0]) / width
	last := time.Duration(x[len(x)-1])/width + 1

	dividers := make([]float64, 0, last-first+1)
	for k := first; k <= last; k++ {
		dividers = append(dividers, float64(k*width))
	}
	counts := stat.Histogram(nil, dividers, x, nil)

	h := &summary.Histogram{Activity: activity, BinWidth: width, Bins: make([]summary.Bin, len(counts))}
	for i, c := range counts {
		h.Bins[i] = summary.Bin{
			Start: time.Duration(dividers[i]),
			End:   time.Duration(dividers[i+1]),
			Count: int(c),
		}
	}
	return h
}
