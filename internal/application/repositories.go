package application

import (
	"context"
	"errors"
	"time"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

// ResourceRepository captures the inventory operations of one resource kind.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id string) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	DeleteResource(ctx context.Context, id string, today calendar.Date) error
	ListResources(ctx context.Context, activeOnly bool) ([]Resource, error)
}

// ReservationLedger captures the reservation rows of one resource kind.
// Reserve must check the resource and both daily slots and insert in one
// transaction.
type ReservationLedger interface {
	Reserve(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservationsForDate(ctx context.Context, date calendar.Date) ([]Reservation, error)
	ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
	ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error)
}

// DayBatchRepository reads and removes a user's reservations in both ledgers
// for a set of dates. DeleteUserReservationsOn runs in one transaction.
type DayBatchRepository interface {
	ListUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]Reservation, error)
	DeleteUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]Reservation, error)
}

// PresenceRepository captures the presence ledger. GetPresence returns
// ErrNotFound when no record is stored.
type PresenceRepository interface {
	GetPresence(ctx context.Context, userID string, date calendar.Date) (Presence, error)
	UpsertPresence(ctx context.Context, presence Presence) (Presence, error)
	UpsertPresences(ctx context.Context, presences []Presence) error
	ListPresencesForUser(ctx context.Context, userID string, span calendar.Span) ([]Presence, error)
	ListPresencesForDate(ctx context.Context, date calendar.Date) ([]Presence, error)
}

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, credentials UserCredentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, credentials UserCredentials) (User, error)
	DeleteUser(ctx context.Context, id string, today calendar.Date) error
	ListUsers(ctx context.Context) ([]User, error)
	ListUserStats(ctx context.Context, today calendar.Date) ([]UserStats, error)
}

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Ledgers groups the per-kind repositories used by cross-ledger services.
type Ledgers struct {
	Resources    map[ledger.Kind]ResourceRepository
	Reservations map[ledger.Kind]ReservationLedger
}

// mapRepoError translates storage errors shared by every service.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	var future *persistence.FutureReservationsError
	switch {
	case errors.As(err, &future):
		return &FutureReservationsError{Count: future.Count}
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrResourceSlotTaken):
		return ErrResourceAlreadyBooked
	case errors.Is(err, persistence.ErrUserSlotTaken):
		return ErrUserAlreadyBooked
	case errors.Is(err, persistence.ErrResourceInactive):
		return ErrResourceUnavailable
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
