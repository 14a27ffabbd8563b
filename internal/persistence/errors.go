package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned for rejected writes other than uniqueness, such as missing keys.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrResourceSlotTaken is returned when a resource already holds a reservation for the day.
	ErrResourceSlotTaken = errors.New("persistence: resource already reserved for date")
	// ErrUserSlotTaken is returned when a user already holds a reservation of the same kind for the day.
	ErrUserSlotTaken = errors.New("persistence: user already holds a reservation for date")
	// ErrResourceInactive is returned when a reservation targets a missing or deactivated resource.
	ErrResourceInactive = errors.New("persistence: resource inactive or missing")
	// ErrHasFutureReservations is matched by FutureReservationsError.
	ErrHasFutureReservations = errors.New("persistence: future reservations exist")
)

// FutureReservationsError reports how many reservations dated today or later
// block the deletion of a resource or user.
type FutureReservationsError struct {
	Count int
}

func (e *FutureReservationsError) Error() string {
	return fmt.Sprintf("persistence: %d future reservations exist", e.Count)
}

// Is lets errors.Is match ErrHasFutureReservations.
func (e *FutureReservationsError) Is(target error) bool {
	return target == ErrHasFutureReservations
}
