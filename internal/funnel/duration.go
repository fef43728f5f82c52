package funnel

import (
	"fmt"
	"time"

	"assesstime/domain/core"
	"assesstime/domain/session"
	"assesstime/internal/errors"
)

// Duration returns end - start for a session with both boundaries. A
// negative span is a DataIntegrityError: the source systems never log an
// end before its begin.
func Duration(s session.Session) (time.Duration, error) {
	if !s.HasBegin || !s.HasEnd {
		return 0, errors.Wrap(core.ErrMissingBoundary, fmt.Sprintf("session %s", s.Key))
	}
	d := s.End.Sub(s.Start)
	if d < 0 {
		err := errors.DataIntegrityError(s.Key.String(),
			fmt.Sprintf("end %s precedes begin %s", s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339)))
		err.Cause = core.ErrNegativeSpan
		return 0, err
	}
	return d, nil
}

// SameDay reports whether the session starts and ends on the same calendar
// date. Only the date portion of each timestamp is compared.
func SameDay(s session.Session) bool {
	return core.SameCalendarDate(s.Start, s.End)
}

// WithinBounds reports whether min < d < max.
func WithinBounds(d, min, max time.Duration) bool {
	return d > min && d < max
}
