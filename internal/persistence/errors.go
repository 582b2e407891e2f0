package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrSaveFailed is returned when a snapshot could not be stored durably.
	ErrSaveFailed = errors.New("persistence: save failed")
)
