package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when a referenced member, resource, or reservation does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrEligibilityDenied is returned when the booking member holds no active grant
	// for the resource's required licence.
	ErrEligibilityDenied = errors.New("application: eligibility denied")
	// ErrClosedDate is returned when the requested date is an explicit closure.
	ErrClosedDate = errors.New("application: closed date")
	// ErrOutsideOperatingHours is returned when the interval falls outside the
	// day's operating window, including days that are configured closed.
	ErrOutsideOperatingHours = errors.New("application: outside operating hours")
	// ErrDurationExceeded is returned when the interval is longer than the
	// resource's maximum reservation duration.
	ErrDurationExceeded = errors.New("application: duration exceeded")
	// ErrOverlap is returned when the interval overlaps a committed reservation.
	ErrOverlap = errors.New("application: overlapping reservation")
	// ErrPersistence is returned when the snapshot write failed; the prior
	// committed state remains the system of record.
	ErrPersistence = errors.New("application: persistence failure")
	// ErrInvalidCredentials is returned when password verification fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
