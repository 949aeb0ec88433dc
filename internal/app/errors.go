package service

import "errors"

// Sentinel kinds for service-level errors.
var (
	ErrValidation  = errors.New("invalid input")
	ErrNotAssigned = errors.New("request not assigned to this worker")
	ErrDuplicate   = errors.New("duplicate submission")
)
