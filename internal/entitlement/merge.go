// Package entitlement implements the pure merge rules for time-boxed add-on
// grants. It has no storage dependencies so the rules can be tested directly.
package entitlement

import "time"

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPaused   Status = "PAUSED"
	StatusInactive Status = "INACTIVE"
)

// State is an entitlement's current grant. ExpiresAt is meaningful only while
// ACTIVE; Remaining only while PAUSED.
type State struct {
	Status    Status
	ExpiresAt time.Time
	Remaining time.Duration
}

// Zero reports whether the state describes no grant at all.
func (s State) Zero() bool {
	return s.Status == "" || (s.Status == StatusInactive && s.Remaining <= 0)
}

// Merge combines a newly purchased duration with the existing grant.
//
// An unexpired active grant is extended from its current expiry, not from now.
// A paused grant banks the purchased time without activating it. Anything else
// (absent, inactive, or expired) activates fresh from now. Banked time is never
// discarded.
func Merge(existing State, added time.Duration, now time.Time) State {
	switch {
	case existing.Status == StatusActive && existing.ExpiresAt.After(now):
		return State{
			Status:    StatusActive,
			ExpiresAt: existing.ExpiresAt.Add(added),
		}
	case existing.Status == StatusPaused && existing.Remaining > 0:
		return State{
			Status:    StatusPaused,
			Remaining: existing.Remaining + added,
		}
	default:
		return State{
			Status:    StatusActive,
			ExpiresAt: now.Add(added),
		}
	}
}
