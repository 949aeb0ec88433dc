package model

import "time"

// WorkerProfile is the ranking-relevant slice of a field worker's profile.
// TotalScore is derived: it is only ever written by a full recalculation
// pass, never hand-edited or incremented in place.
type WorkerProfile struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	CompletedTasks int       `json:"completed_tasks"`
	SLAViolations  int       `json:"sla_violations"`
	AverageRating  float64   `json:"average_rating"`
	TotalScore     float64   `json:"total_score"`
	CreatedAt      time.Time `json:"created_at"`
}
