// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load(ctx) layers
//     file and environment overrides on top.
//   - External errors are wrapped via this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PostgresDSN points at the backing Postgres instance. Empty selects
	// the in-memory store (tests and single-node setups).
	PostgresDSN string `koanf:"postgres_dsn"`

	// AtRiskLookaheadHours is the window of the read-only at-risk view.
	AtRiskLookaheadHours int `koanf:"at_risk_lookahead_hours"`

	// SLAHours maps request priority to the response window, in hours,
	// applied when a citizen report is accepted.
	SLAHours map[string]int `koanf:"sla_hours"`

	// Ranking score weights. Changing these breaks comparability with
	// previously persisted scores.
	CompletedWeight float64 `koanf:"completed_weight"`
	ViolationWeight float64 `koanf:"violation_weight"`
	RatingWeight    float64 `koanf:"rating_weight"`

	// ViolationsLimit caps GET /sla/violations?limit.
	ViolationsLimit int `koanf:"violations_limit"`

	// SweepRatePerSecond and SweepRateBurst bound how often the admin
	// trigger endpoints may fire.
	SweepRatePerSecond float64 `koanf:"sweep_rate_per_second"`
	SweepRateBurst     int     `koanf:"sweep_rate_burst"`

	// NotificationWorkers sizes the dispatch pool; NotificationCapacity
	// bounds the pending-notice queue. Zero workers disables the pipeline.
	NotificationWorkers  int `koanf:"notification_workers"`
	NotificationCapacity int `koanf:"notification_capacity"`

	// DedupeSize bounds the duplicate-submission token guard.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8090",
		PostgresDSN:          "",
		AtRiskLookaheadHours: 4,
		SLAHours: map[string]int{
			"urgent": 4,
			"high":   24,
			"medium": 48,
			"low":    72,
		},
		CompletedWeight:      10,
		ViolationWeight:      15,
		RatingWeight:         5,
		ViolationsLimit:      100,
		SweepRatePerSecond:   1,
		SweepRateBurst:       3,
		NotificationWorkers:  2,
		NotificationCapacity: 1024,
		DedupeSize:           50000,
	}
}
