// Package model contains domain models passed between layers.
package model

// Status is the lifecycle state of a service request. The set is closed;
// transitions outside it are rejected at the boundary.
type Status string

// Request lifecycle states.
const (
	StatusSubmitted  Status = "submitted"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusOverdue    Status = "overdue"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAssigned, StatusInProgress, StatusOverdue, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state. Terminal requests are
// never touched by the deadline sweep.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Active reports whether a request in state s still counts against its
// deadline: not terminal and not already flagged overdue.
func (s Status) Active() bool {
	return !s.Terminal() && s != StatusOverdue
}

// Priority is the urgency class assigned to a service request.
type Priority string

// Request priorities, lowest to highest urgency.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight orders priorities for task listings: urgent first.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}
