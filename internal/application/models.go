package application

import (
	"strings"
	"time"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts role names case-insensitively.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// PresenceMode is a user's declared status for one day.
type PresenceMode string

const (
	ModeHome   PresenceMode = "HOME"
	ModeOffice PresenceMode = "OFFICE"
	ModeAbsent PresenceMode = "ABSENT"
)

// ParsePresenceMode accepts mode names case-insensitively.
func ParsePresenceMode(value string) (PresenceMode, bool) {
	switch PresenceMode(strings.ToUpper(strings.TrimSpace(value))) {
	case ModeHome:
		return ModeHome, true
	case ModeOffice:
		return ModeOffice, true
	case ModeAbsent:
		return ModeAbsent, true
	}
	return "", false
}

func (m PresenceMode) valid() bool {
	return m == ModeHome || m == ModeOffice || m == ModeAbsent
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	Name    string
	IsAdmin bool
}

func (p Principal) authenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// Resource is a bookable desk or parking spot.
type Resource struct {
	ID               string
	Kind             ledger.Kind
	Code             string
	Name             string
	LocationLabel    *string
	Active           bool
	ReservationCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Code          string
	Name          string
	LocationLabel *string
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams carries a partial update. Nil fields are left
// unchanged; an empty location label clears it.
type UpdateResourceParams struct {
	Principal     Principal
	ResourceID    string
	Code          *string
	Name          *string
	LocationLabel *string
	Active        *bool
}

// Reservation is one row of a desk or parking ledger with display details.
type Reservation struct {
	ID            string
	Kind          ledger.Kind
	UserID        string
	ResourceID    string
	Date          calendar.Date
	ResourceCode  string
	ResourceName  string
	LocationLabel *string
	UserName      string
	UserEmail     string
	CreatedAt     time.Time
}

// ReserveParams wraps the data required to reserve a resource for a day.
type ReserveParams struct {
	Principal  Principal
	ResourceID string
	Date       calendar.Date
}

// ReservationQuery filters ledger listings. Zero values are unbounded.
type ReservationQuery struct {
	From   calendar.Date
	To     calendar.Date
	UserID string
}

// GridEntry is one active resource in the day view of a ledger.
type GridEntry struct {
	Resource      Resource
	IsReserved    bool
	IsMine        bool
	ReservedBy    string
	ReservationID string
}

// Presence is the declared mode of one user for one day. Stored is false when
// the mode is the HOME default.
type Presence struct {
	ID        string
	UserID    string
	Date      calendar.Date
	Mode      PresenceMode
	Stored    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PresenceMonth is the caller's calendar for one month. Open lists the
// working days from today onwards that a bulk change may still target.
type PresenceMonth struct {
	Year    int
	Month   time.Month
	Entries []Presence
	Open    []calendar.Date
}

// SetPresenceParams wraps the data required to declare presence for a day.
type SetPresenceParams struct {
	Principal Principal
	Date      calendar.Date
	Mode      PresenceMode
}

// BulkPresenceParams carries raw dates so that every entry can be validated
// before anything is written.
type BulkPresenceParams struct {
	Principal Principal
	Dates     []string
	Mode      PresenceMode
	Confirmed bool
}

// SummaryPerson is one user in a presence summary list.
type SummaryPerson struct {
	UserID   string
	Name     string
	DeskCode string
}

// SummaryCounts aggregates the presence summary of a day.
type SummaryCounts struct {
	Total      int
	TotalDesks int
	Office     int
	Home       int
	Absent     int
}

// PresenceSummary groups active users by declared mode for one day.
type PresenceSummary struct {
	Date   calendar.Date
	Office []SummaryPerson
	Home   []SummaryPerson
	Absent []SummaryPerson
	Counts SummaryCounts
}

// DayReservations holds the caller's desk and parking reservations for a day.
type DayReservations struct {
	Date    calendar.Date
	Desk    *Reservation
	Parking *Reservation
}

// HasAny reports whether either reservation exists.
func (d DayReservations) HasAny() bool {
	return d.Desk != nil || d.Parking != nil
}

// DayConflict names the reservation codes that a presence change would cancel.
type DayConflict struct {
	Date        calendar.Date
	DeskCode    string
	ParkingCode string
}

// CancelDayResult describes the reservations removed for one day.
type CancelDayResult struct {
	Date        calendar.Date
	DeskCode    string
	ParkingCode string
}

// CancelCounts counts removed reservations per ledger.
type CancelCounts struct {
	Desk    int
	Parking int
}

// DayTransitionResult is the outcome of a confirmed single-day mode change.
type DayTransitionResult struct {
	Presence  Presence
	Cancelled CancelDayResult
}

// BulkTransitionResult is the outcome of a bulk mode change.
type BulkTransitionResult struct {
	Dates     []calendar.Date
	Mode      PresenceMode
	Cancelled CancelCounts
}

// OfficePerson is one desk holder in the office overview.
type OfficePerson struct {
	Name     string
	DeskCode string
}

// OfficeOverview describes desk occupancy for one day.
type OfficeOverview struct {
	Date          calendar.Date
	ReservedCount int
	Capacity      int
	People        []OfficePerson
}

// AdminReservationFilter narrows the administrative reservation listing.
type AdminReservationFilter struct {
	Kind   string
	From   calendar.Date
	To     calendar.Date
	UserID string
	Search string
}

// AdminReservations is the administrative reservation listing.
type AdminReservations struct {
	From         calendar.Date
	To           calendar.Date
	Reservations []Reservation
	DeskTotal    int
	ParkingTotal int
}

// Total counts all listed reservations.
func (a AdminReservations) Total() int {
	return len(a.Reservations)
}

// User represents an employee account exposed by the application services.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal returns the user as an acting principal.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin()}
}

// UserStats adds reservation counters to a user.
type UserStats struct {
	User
	DeskReservations     int
	ParkingReservations  int
	UpcomingReservations int
}

// UserInput captures caller provided attributes of a new user.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams carries a partial update. Nil fields are left unchanged.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Name      *string
	Email     *string
	Password  *string
	Role      *Role
	Active    *bool
}

// UserCredentials models the authentication attributes persisted for a user.
// An empty PasswordHash on update keeps the stored hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
