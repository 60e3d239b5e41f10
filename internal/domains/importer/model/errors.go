package model

import "errors"

var (
	// ErrJobNotFound is returned when a job lookup misses.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal is returned when a write would overwrite a terminal
	// status (completed/failed/cancelled are immutable).
	ErrJobTerminal = errors.New("job is in a terminal state")
)
