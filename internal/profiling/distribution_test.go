package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSymmetric(t *testing.T) {
	p := NewDistributionAnalyzer().Analyze([]float64{1, 2, 3, 4, 5}, 2, 4)

	require.NotNil(t, p.Skewness)
	assert.InDelta(t, 0, *p.Skewness, 1e-12)
	require.NotNil(t, p.Kurtosis)
	assert.Less(t, *p.Kurtosis, 0.0)
	assert.Equal(t, 2.0, p.IQR)
	assert.Zero(t, p.Outliers)
	assert.Equal(t, 1.0, p.LowerWhisker)
	assert.Equal(t, 5.0, p.UpperWhisker)
}

func TestAnalyzeUndefinedMoments(t *testing.T) {
	da := NewDistributionAnalyzer()

	small := da.Analyze([]float64{1, 2}, 1.25, 1.75)
	assert.Nil(t, small.Skewness)
	assert.Nil(t, small.Kurtosis)

	constant := da.Analyze([]float64{3, 3, 3, 3}, 3, 3)
	assert.Nil(t, constant.Skewness)
	assert.Nil(t, constant.Kurtosis)
	assert.Equal(t, 3.0, constant.LowerWhisker)
	assert.Equal(t, 3.0, constant.UpperWhisker)
}

func TestAnalyzeOutliers(t *testing.T) {
	p := NewDistributionAnalyzer().Analyze([]float64{100, 1, 2, 3, 4}, 2, 4)

	assert.Equal(t, 1, p.Outliers)
	assert.Equal(t, 1.0, p.LowerWhisker)
	assert.Equal(t, 4.0, p.UpperWhisker)
	require.NotNil(t, p.Skewness)
	assert.Greater(t, *p.Skewness, 0.0)
}
