package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrftimeToLayout(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"%m/%d/%Y %H:%M:%S", "1/2/2006 15:4:5"},
		{"%Y-%m-%dT%H:%M:%S%z", "2006-1-2T15:4:5-0700"},
		{"%d-%b-%y %I:%M %p", "2-Jan-06 3:4 PM"},
		{"%H:%M:%S.%f", "15:4:5.999999999"},
		{"100%%", "100%"},
		{"2006-01-02 15:04:05", "2006-01-02 15:04:05"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := StrftimeToLayout(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStrftimeToLayoutErrors(t *testing.T) {
	_, err := StrftimeToLayout("%Q")
	assert.Error(t, err)
	_, err = StrftimeToLayout("%Y-%")
	assert.Error(t, err)
}

func TestTimeParserLenientPadding(t *testing.T) {
	p, err := NewTimeParser("%m/%d/%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	want := time.Date(2025, 4, 1, 9, 5, 3, 0, time.UTC)
	for _, in := range []string{"04/01/2025 09:05:03", "4/1/2025 9:05:03", " 4/1/2025 09:05:03 "} {
		got, err := p.Parse(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err = p.Parse("31/31/2025 25:61:00")
	assert.Error(t, err)
	_, err = p.Parse("")
	assert.Error(t, err)
}

func TestTimeParserAuto(t *testing.T) {
	p, err := NewTimeParser("", time.UTC)
	require.NoError(t, err)
	assert.Greater(t, len(p.layouts), 1)

	for _, in := range []string{
		"2025-04-01T09:00:00Z",
		"2025-04-01 09:00:00",
		"4/1/2025 9:00:00",
		"4/1/2025 9:00:00 AM",
	} {
		got, err := p.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, 9, got.Hour(), in)
		assert.Equal(t, time.April, got.Month(), in)
	}
}

func TestTimeParserLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	p, err := NewTimeParser("2006-01-02 15:04:05", loc)
	require.NoError(t, err)

	got, err := p.Parse("2025-04-01 23:50:00")
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 23, got.Hour())
}

func TestParseSerial(t *testing.T) {
	p, err := NewTimeParser("%m/%d/%Y %H:%M:%S", time.UTC)
	require.NoError(t, err)

	// 45748 is 2025-04-01; .375 is 09:00
	got, ok := p.ParseSerial("45748", "0.375")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), got)

	_, ok = p.ParseSerial("not a number", "")
	assert.False(t, ok)
	_, ok = p.ParseSerial("45748", "1.5")
	assert.False(t, ok)
}
