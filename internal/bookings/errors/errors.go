package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrAlreadyDecided is returned when a status transition expected a
	// PENDING booking but another decision got there first.
	ErrAlreadyDecided = errors.New("booking already decided")

	ErrDuplicateActive = errors.New("requester already holds an active booking for this date")

	// ErrDayLocked is returned when the per-date advisory lock is held.
	ErrDayLocked = errors.New("date is locked by another decision in progress")
)
