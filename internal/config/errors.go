package config

import (
	"errors"
)

// Sentinel kinds for configuration failures, matchable with errors.Is.
// ErrInvalidConfig covers values that fail validation (bad SLA windows,
// empty listen address); ErrLoadConfig covers provider failures while
// layering the YAML file and CITYFIX_ environment overrides.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
