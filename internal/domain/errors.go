package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyTaskID is returned when a task has no identifier.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrEmptyUserID is returned when a submission carries no user.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrEmptySymbol is returned when a task has no symbol to analyze.
	ErrEmptySymbol = errors.New("symbol cannot be empty")

	// ErrNoSymbols is returned when a batch submission lists no symbols.
	ErrNoSymbols = errors.New("batch must contain at least one symbol")

	// ErrInvalidTaskStatus is returned when a task status is not valid.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrAdmissionDenied is returned when the per-user or global
	// concurrency ceiling blocks a submission.
	ErrAdmissionDenied = errors.New("concurrency limit reached")

	// ErrTaskNotFound is returned when no task record exists for an ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrBatchNotFound is returned when no batch record exists for an ID.
	ErrBatchNotFound = errors.New("batch not found")
)
