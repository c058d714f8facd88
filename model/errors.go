package model

import "errors"

var (
	// ErrInput marks structural problems with the input (too few cities,
	// malformed question sets). It aborts the run.
	ErrInput = errors.New("invalid input")
	// ErrData marks a single bad record (missing or invalid coordinates).
	// The record is excluded and the run continues.
	ErrData = errors.New("invalid data")
	// ErrNotFound marks a lookup of a city that is not part of the graph.
	ErrNotFound = errors.New("not found")
)
