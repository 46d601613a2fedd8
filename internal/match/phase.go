package match

import (
	"fmt"
	"time"

	"github.com/mauv0809/rivalry/internal/failure"
)

const (
	// CheckinWindow is how long before kick-off a confirmed match enters check-in.
	CheckinWindow = 2 * time.Hour
	// CancellationCutoff is the minimum notice required to cancel a confirmed match.
	CancellationCutoff = 24 * time.Hour
)

var (
	ErrCancellationWindow = failure.Stale("matches can only be cancelled at least 24 hours before kick-off")
	ErrInvalidDate        = failure.Precondition("date must be formatted as YYYY-MM-DD")
	ErrInvalidClock       = failure.Precondition("time must be formatted as HH:MM")
)

// DerivePhase selects the lifecycle phase for a match at the given instant.
// It is never persisted.
func DerivePhase(m *Match, now time.Time) Phase {
	switch {
	case m.Status == StatusFinished:
		return PhasePostmatch
	case m.Status == StatusConfirmed && m.ScheduledAt != nil && m.ScheduledAt.Sub(now) < CheckinWindow:
		return PhaseCheckin
	default:
		return PhasePrevia
	}
}

// CheckCancellable returns nil when the match may be cancelled at now.
// Unscheduled pending matches have no window to violate.
func CheckCancellable(m *Match, now time.Time) error {
	switch m.Status {
	case StatusPending:
		if m.ScheduledAt == nil || m.ScheduledAt.Sub(now) >= CancellationCutoff {
			return nil
		}
		return ErrCancellationWindow
	case StatusConfirmed:
		if m.ScheduledAt != nil && m.ScheduledAt.Sub(now) >= CancellationCutoff {
			return nil
		}
		return ErrCancellationWindow
	default:
		return ErrStaleMatch
	}
}

// CanSubmitResult reports whether a result may be recorded at now: the match
// is live, or confirmed and inside the check-in window.
func CanSubmitResult(m *Match, now time.Time) bool {
	return m.Status == StatusLive || (m.Status == StatusConfirmed && DerivePhase(m, now) == PhaseCheckin)
}

// ComposeLocal combines a calendar date and a wall-clock time into one
// instant, interpreted in loc.
func ComposeLocal(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return time.Time{}, ErrInvalidClock
	}
	t, err := time.ParseInLocation(time.DateOnly+" 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to compose %s %s: %w", date, clock, err)
	}
	return t, nil
}
