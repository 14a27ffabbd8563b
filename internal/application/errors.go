package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when no authenticated principal is available.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrPastDate is returned when a mutation targets a day before today.
	ErrPastDate = errors.New("application: date is in the past")
	// ErrResourceUnavailable is returned when a reservation targets a missing or inactive resource.
	ErrResourceUnavailable = errors.New("application: resource unavailable")
	// ErrPresenceRequired is returned when the user is not declared in the office for the day.
	ErrPresenceRequired = errors.New("application: office presence required")
	// ErrResourceAlreadyBooked is returned when the resource already holds a reservation for the day.
	ErrResourceAlreadyBooked = errors.New("application: resource already booked")
	// ErrUserAlreadyBooked is returned when the user already holds a reservation of the kind for the day.
	ErrUserAlreadyBooked = errors.New("application: user already booked")
	// ErrConflict is returned for a uniqueness violation that cannot be classified further.
	ErrConflict = errors.New("application: conflict")
	// ErrDuplicateCode is returned when a resource code is already taken.
	ErrDuplicateCode = errors.New("application: duplicate code")
	// ErrDuplicateEmail is returned when an email address is already registered.
	ErrDuplicateEmail = errors.New("application: duplicate email")
	// ErrSelfProtection is returned when an administrator tries to demote, deactivate or delete themselves.
	ErrSelfProtection = errors.New("application: cannot modify own account this way")
	// ErrHasFutureReservations is matched by FutureReservationsError.
	ErrHasFutureReservations = errors.New("application: future reservations exist")
	// ErrPartialFailure is matched by PartialFailureError.
	ErrPartialFailure = errors.New("application: partially applied")
	// ErrConfirmationRequired is matched by ConfirmationRequiredError.
	ErrConfirmationRequired = errors.New("application: confirmation required")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a deactivated user tries to authenticate.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for sessions that were logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
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
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
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

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// FutureReservationsError reports how many reservations dated today or later
// block a deletion.
type FutureReservationsError struct {
	Count int
}

func (e *FutureReservationsError) Error() string {
	return fmt.Sprintf("application: %d future reservations exist", e.Count)
}

// Is lets errors.Is match ErrHasFutureReservations.
func (e *FutureReservationsError) Is(target error) bool {
	return target == ErrHasFutureReservations
}

// PartialFailureError reports a bulk transition whose reservation cleanup was
// committed while the presence update was not.
type PartialFailureError struct {
	CancelledDesk    int
	CancelledParking int
	Err              error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("application: cancelled %d desk and %d parking reservations but presence was not updated: %v",
		e.CancelledDesk, e.CancelledParking, e.Err)
}

// Is lets errors.Is match ErrPartialFailure.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// ConfirmationRequiredError lists the reservations that a presence change
// would cancel. Nothing was modified.
type ConfirmationRequiredError struct {
	Conflicts []DayConflict
}

func (e *ConfirmationRequiredError) Error() string {
	dates := make([]string, 0, len(e.Conflicts))
	for _, conflict := range e.Conflicts {
		dates = append(dates, conflict.Date.String())
	}
	return "application: confirmation required for " + strings.Join(dates, ", ")
}

// Is lets errors.Is match ErrConfirmationRequired.
func (e *ConfirmationRequiredError) Is(target error) bool {
	return target == ErrConfirmationRequired
}
