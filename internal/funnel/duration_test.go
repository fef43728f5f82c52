package funnel

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/internal/errors"
	"assesstime/internal/testkit"
)

func span(start, end time.Time) session.Session {
	return session.Session{
		Key:      core.SessionKey{Respondent: "A"},
		Start:    start,
		End:      end,
		HasBegin: true,
		HasEnd:   true,
	}
}

func TestDuration(t *testing.T) {
	d, err := Duration(span(testkit.Day(1, 9, 0, 0), testkit.Day(1, 9, 45, 0)))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)

	d, err = Duration(span(testkit.Day(1, 9, 0, 0), testkit.Day(1, 9, 0, 0)))
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDurationNegativeSpan(t *testing.T) {
	_, err := Duration(span(testkit.Day(1, 10, 0, 0), testkit.Day(1, 9, 0, 0)))

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeDataIntegrityError))
	assert.True(t, stderrors.Is(err, core.ErrNegativeSpan))
}

func TestDurationMissingBoundary(t *testing.T) {
	s := span(testkit.Day(1, 9, 0, 0), testkit.Day(1, 9, 30, 0))
	s.HasEnd = false

	_, err := Duration(s)
	assert.True(t, stderrors.Is(err, core.ErrMissingBoundary))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(span(testkit.Day(1, 0, 0, 0), testkit.Day(1, 23, 59, 59))))
	assert.False(t, SameDay(span(testkit.Day(1, 23, 50, 0), testkit.Day(2, 0, 20, 0))))
}

func TestWithinBounds(t *testing.T) {
	assert.False(t, WithinBounds(time.Minute, time.Minute, time.Hour))
	assert.True(t, WithinBounds(2*time.Minute, time.Minute, time.Hour))
	assert.False(t, WithinBounds(time.Hour, time.Minute, time.Hour))
}
