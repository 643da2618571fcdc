package domain

import "errors"

var (
	// ErrNotFound is returned when a task id does not resolve for the owner.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidRange is returned when start >= end, minutes fall outside a day,
	// or a series ends before it starts.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrInvalidFrequency is returned for a negative frequency.
	ErrInvalidFrequency = errors.New("invalid frequency")
	// ErrInvalidDate is returned for a missing or malformed calendar day.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInconsistentSeries means a link points at a row that does not exist.
	// The store is corrupt; callers should treat it as an internal error.
	ErrInconsistentSeries = errors.New("inconsistent series")
)

// IsValidationError reports whether err was caused by bad caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrInvalidDate)
}
