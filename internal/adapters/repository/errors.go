package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("request not found")
	ErrWorkerNotFound = errors.New("worker not found")
	ErrAlreadyClaimed = errors.New("request already claimed")
	ErrInvalidLimit   = errors.New("invalid listing limit")
)
