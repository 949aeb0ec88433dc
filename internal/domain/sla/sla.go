// Package sla holds the pure deadline arithmetic used by the sweep.
// Nothing here performs I/O; callers supply the reference time so one
// sweep pass evaluates every candidate against the same clock reading.
package sla

import (
	"math"
	"time"

	"github.com/cityfix/cityfix/internal/domain/model"
)

// DefaultLookahead bounds the at-risk window when no override is configured.
const DefaultLookahead = 4 * time.Hour

// IsOverdue reports whether req has breached its deadline as of now.
// A deadline exactly equal to now is not a breach; the comparison is
// strictly before. Terminal and already-overdue requests never qualify.
func IsOverdue(req model.ServiceRequest, now time.Time) bool {
	if req.SLADeadline == nil {
		return false
	}
	if !req.Status.Active() {
		return false
	}
	return req.SLADeadline.Before(now)
}

// DelayHours returns how far past deadline now is, in hours rounded to
// one decimal. Callers must pass the same now used for the breach check,
// so the result is never negative for a detected breach.
func DelayHours(deadline, now time.Time) float64 {
	hours := now.Sub(deadline).Hours()
	return math.Round(hours*10) / 10
}

// IsAtRisk reports whether req's deadline falls inside (now, now+lookahead].
// This feeds the read-only at-risk view; it never mutates state. Requests
// already overdue belong to the breach set, not the at-risk one.
func IsAtRisk(req model.ServiceRequest, now time.Time, lookahead time.Duration) bool {
	if req.SLADeadline == nil {
		return false
	}
	if !req.Status.Active() {
		return false
	}
	d := *req.SLADeadline
	return d.After(now) && !d.After(now.Add(lookahead))
}
