// Package profiling describes the shape of a completion-time distribution:
// skewness, excess kurtosis and Tukey box-plot bounds.
package profiling

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Tukey fence multiplier
const fence = 1.5

// Profile is the shape analysis of one sample. Undefined moments are nil.
type Profile struct {
	Skewness     *float64
	Kurtosis     *float64 // excess
	IQR          float64
	LowerWhisker float64
	UpperWhisker float64
	Outliers     int
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Analyze profiles data given its first and third quartiles. data need not
// be sorted.
func (da *DistributionAnalyzer) Analyze(data []float64, q25, q75 float64) Profile {
	p := Profile{IQR: q75 - q25}
	if len(data) == 0 {
		return p
	}

	// Skew is bias corrected and needs n >= 3; ExKurtosis needs n >= 4.
	// Both are NaN for constant data.
	if len(data) >= 3 {
		p.Skewness = defined(stat.Skew(data, nil))
	}
	if len(data) >= 4 {
		p.Kurtosis = defined(stat.ExKurtosis(data, nil))
	}

	p.LowerWhisker, p.UpperWhisker, p.Outliers = whiskers(data, q25, q75)
	return p
}

// whiskers returns the most extreme observations inside the Tukey fences
// and the number of observations outside them.
func whiskers(data []float64, q25, q75 float64) (lower, upper float64, outliers int) {
	iqr := q75 - q25
	lowerBound := q25 - fence*iqr
	upperBound := q75 + fence*iqr

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	lower, upper = math.NaN(), math.NaN()
	for _, x := range sorted {
		if x < lowerBound || x > upperBound {
			outliers++
			continue
		}
		if math.IsNaN(lower) {
			lower = x
		}
		upper = x
	}
	// the quartiles bracket at least one observation, so both bounds are set
	return lower, upper, outliers
}

func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
