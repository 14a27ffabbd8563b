package persistence

import (
	"time"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

// User represents an employee account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStats decorates a user with reservation counters for administration views.
type UserStats struct {
	User
	DeskReservations     int
	ParkingReservations  int
	UpcomingReservations int
}

// Resource is a bookable desk or parking spot.
type Resource struct {
	ID            string
	Kind          ledger.Kind
	Code          string
	Name          string
	LocationLabel *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// ReservationCount is populated by listings only.
	ReservationCount int
}

// Presence is the declared mode of a user on one day.
type Presence struct {
	ID        string
	UserID    string
	Date      calendar.Date
	Mode      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is a row of either ledger. The resource and user fields after
// CreatedAt are filled from joins on reads.
type Reservation struct {
	ID         string
	Kind       ledger.Kind
	UserID     string
	ResourceID string
	Date       calendar.Date
	CreatedAt  time.Time

	ResourceCode     string
	ResourceName     string
	ResourceLocation *string
	UserName         string
	UserEmail        string
}

// ReservationFilter narrows ledger listings. Zero values leave a bound open.
type ReservationFilter struct {
	From   calendar.Date
	To     calendar.Date
	UserID string
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
