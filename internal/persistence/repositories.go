package persistence

import (
	"context"
	"time"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUserStats(ctx context.Context, today calendar.Date) ([]UserStats, error)
	// DeleteUser removes the user together with presences, past reservations and
	// sessions, or fails with *FutureReservationsError.
	DeleteUser(ctx context.Context, id string, today calendar.Date) error
}

// ResourceRepository stores the inventory of one ledger kind.
type ResourceRepository interface {
	Kind() ledger.Kind
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context, activeOnly bool) ([]Resource, error)
	// DeleteResource removes the resource and its past reservations, or fails
	// with *FutureReservationsError.
	DeleteResource(ctx context.Context, id string, today calendar.Date) error
}

// ReservationRepository stores one reservation ledger.
type ReservationRepository interface {
	Kind() ledger.Kind
	// Reserve inserts the reservation inside one transaction after re-checking
	// the resource and both daily slots.
	Reserve(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservationsForDate(ctx context.Context, date calendar.Date) ([]Reservation, error)
	ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// ReservationBatchRepository works across both ledgers for one user.
type ReservationBatchRepository interface {
	ListUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]Reservation, error)
	// DeleteUserReservationsOn deletes every reservation of the user on the
	// given dates in a single transaction and returns the removed rows.
	DeleteUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]Reservation, error)
}

// PresenceRepository stores the presence ledger.
type PresenceRepository interface {
	GetPresence(ctx context.Context, userID string, date calendar.Date) (Presence, error)
	UpsertPresence(ctx context.Context, presence Presence) (Presence, error)
	// UpsertPresences writes every record in one transaction.
	UpsertPresences(ctx context.Context, presences []Presence) error
	ListPresencesForUser(ctx context.Context, userID string, span calendar.Span) ([]Presence, error)
	ListPresencesForDate(ctx context.Context, date calendar.Date) ([]Presence, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
