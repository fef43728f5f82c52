package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVariants = `
defaults:
  funnel:
    min_duration: 1m
    max_duration: 10h
variants:
  ms-ddm:
    files: [ms.csv]
    funnel:
      complete_action_label: End activity Spring 2025 MS DDM Administration
      complete_match: contains
  cot-hs:
    files: [cot.csv]
    schema:
      time_format: "%m/%d/%Y %H:%M:%S"
    funnel:
      group_by: respondent_activity
      pause_keyword: Pause activity
      pause_match_case: true
      same_day_only: true
      max_duration: 24h
`

func TestParseVariants(t *testing.T) {
	v, err := ParseVariants([]byte(sampleVariants), Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"cot-hs", "ms-ddm"}, v.Names())

	ms, err := v.Get("ms-ddm")
	require.NoError(t, err)
	assert.Equal(t, "ms-ddm", ms.Name)
	assert.Equal(t, []string{"ms.csv"}, ms.Files)
	assert.Equal(t, MatchContains, ms.Funnel.CompleteMatch)
	assert.Equal(t, 10*time.Hour, ms.Funnel.MaxDuration)
	assert.False(t, ms.Funnel.SameDayOnly)
	// untouched keys keep defaults
	assert.True(t, ms.Funnel.FilterPauses)
	assert.Equal(t, "Assignment", ms.Schema.RespondentColumn)

	cot, err := v.Get("cot-hs")
	require.NoError(t, err)
	assert.True(t, cot.Funnel.SameDayOnly)
	assert.Equal(t, 24*time.Hour, cot.Funnel.MaxDuration)
	assert.Equal(t, time.Minute, cot.Funnel.MinDuration)
	assert.Equal(t, GroupByRespondentActivity, cot.Funnel.GroupBy)
	assert.True(t, cot.Funnel.PauseMatchCase)
}

func TestParseVariantsUnknown(t *testing.T) {
	v, err := ParseVariants([]byte(sampleVariants), Default())
	require.NoError(t, err)
	_, err = v.Get("nope")
	assert.Error(t, err)
}

func TestParseVariantsInvalid(t *testing.T) {
	doc := `
variants:
  broken:
    funnel:
      min_duration: 2h
      max_duration: 1h
`
	_, err := ParseVariants([]byte(doc), Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestParseVariantsMalformed(t *testing.T) {
	_, err := ParseVariants([]byte("variants: [unclosed"), Default())
	assert.Error(t, err)
}

func TestLoadVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleVariants), 0o644))

	base := Default()
	base.Schema.Delimiter = ";"
	v, err := LoadVariants(path, base)
	require.NoError(t, err)

	cot, err := v.Get("cot-hs")
	require.NoError(t, err)
	assert.Equal(t, ";", cot.Schema.Delimiter)

	_, err = LoadVariants(filepath.Join(t.TempDir(), "missing.yaml"), Default())
	assert.Error(t, err)
}
