package popup

import "time"

// Backoff steps after each dismissal of the subscription popup.
const (
	FirstBackoff  = 3 * 24 * time.Hour
	SecondBackoff = 7 * 24 * time.Hour
	MaxBackoff    = 14 * 24 * time.Hour
)

// State is the per-visitor popup state carried between visits.
type State struct {
	DismissCount        int       `json:"dismissCount"`
	LastDismissed       time.Time `json:"lastDismissed"`
	Subscribed          bool      `json:"subscribed"`
	OnboardingDismissed bool      `json:"onboardingDismissed"`
}

// Backoff returns how long the popup stays hidden after n dismissals.
func Backoff(n int) time.Duration {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return FirstBackoff
	case n == 2:
		return SecondBackoff
	}
	return MaxBackoff
}

// ShouldShow reports whether the subscription popup may be shown at now.
// PRE: none
// POST: false for subscribed visitors; true for visitors who never dismissed
// INVARIANT: s is not mutated
func ShouldShow(s State, now time.Time) bool {
	if s.Subscribed {
		return false
	}
	if s.DismissCount <= 0 || s.LastDismissed.IsZero() {
		return true
	}
	return !now.Before(s.LastDismissed.Add(Backoff(s.DismissCount)))
}

// NextShowAt returns when the popup becomes eligible again.
func NextShowAt(s State) time.Time {
	if s.DismissCount <= 0 || s.LastDismissed.IsZero() {
		return time.Time{}
	}
	return s.LastDismissed.Add(Backoff(s.DismissCount))
}

// Dismiss records a dismissal at now.
// POST: DismissCount incremented; LastDismissed = now
func Dismiss(s State, now time.Time) State {
	s.DismissCount++
	s.LastDismissed = now
	return s
}

// MarkSubscribed stops the popup from showing again.
func MarkSubscribed(s State) State {
	s.Subscribed = true
	return s
}

// DismissOnboarding records that the onboarding banner was closed.
func DismissOnboarding(s State) State {
	s.OnboardingDismissed = true
	return s
}
