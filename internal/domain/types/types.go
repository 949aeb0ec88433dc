// Package types contains common read shapes shared across the application.
package types

// Ranking is one row of the worker leaderboard, ordered by TotalScore.
type Ranking struct {
	Rank           int     `json:"rank"`
	WorkerID       string  `json:"id"`
	FullName       string  `json:"full_name"`
	CompletedTasks int     `json:"completed_tasks"`
	SLAViolations  int     `json:"sla_violations"`
	AverageRating  float64 `json:"average_rating"`
	TotalScore     float64 `json:"total_score"`
}

// SweepResult tallies one deadline sweep pass.
// Marked counts requests flagged overdue; Violations counts only the
// violation rows that were actually inserted, so the two can diverge when
// a per-request write fails partway.
type SweepResult struct {
	Checked    int `json:"checked"`
	Marked     int `json:"marked"`
	Violations int `json:"violations"`
}

// RecalcResult tallies one ranking recalculation pass.
type RecalcResult struct {
	Updated int `json:"updated"`
}
