// Package testreports is a load and verification harness that drives a
// running CityFix instance over HTTP: it submits synthetic citizen
// reports, triggers a sweep and a ranking recalculation, and checks the
// results for consistency.
package testreports

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumReports int           // Number of reports to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Report mirrors the POST /requests wire schema.
type Report struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id"`
	Priority    string `json:"priority"`
	CitizenID   string `json:"citizen_id"`
	Address     string `json:"address,omitempty"`
	ClientRef   string `json:"client_ref"`
}

// StoredReport is the subset of the response body the harness checks.
type StoredReport struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	SLADeadline *string `json:"sla_deadline"`
}

// RankingEntry is one row of GET /workers/rankings.
type RankingEntry struct {
	Rank       int     `json:"rank"`
	WorkerID   string  `json:"id"`
	FullName   string  `json:"full_name"`
	TotalScore float64 `json:"total_score"`
}

// SweepResult mirrors the POST /sla/check response.
type SweepResult struct {
	Checked    int `json:"checked"`
	Marked     int `json:"marked"`
	Violations int `json:"violations"`
}

// Stats holds run statistics.
type Stats struct {
	ReportsGenerated  int
	ReportsSubmitted  int
	ReportsSuccessful int
	ReportsDuplicate  int
	ReportsFailed     int
	SweepChecked      int
	SweepViolations   int
	RankingsRetrieved int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
