package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

var (
	userCounter        uint64
	resourceCounter    uint64
	reservationCounter uint64
	presenceCounter    uint64
	sessionCounter     uint64
)

// Monday morning, so that Today and the following days are working days.
var referenceTime = time.Date(2026, time.February, 9, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Today is the calendar day of ReferenceTime.
func Today() calendar.Date {
	return calendar.FromTime(referenceTime)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user account.
type UserFixture struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         application.Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns an active USER account with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	fixture := UserFixture{
		ID:           id,
		Name:         fmt.Sprintf("User %03d", idx),
		Email:        fmt.Sprintf("%s@company.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleUser,
		Active:       true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserAdmin grants the ADMIN role.
func WithUserAdmin() UserOption {
	return func(f *UserFixture) {
		f.Role = application.RoleAdmin
	}
}

// WithUserInactive disables the account.
func WithUserInactive() UserOption {
	return func(f *UserFixture) {
		f.Active = false
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Role:      f.Role,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Principal returns the acting principal of the fixture.
func (f UserFixture) Principal() application.Principal {
	return f.Application().Principal()
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		Role:         string(f.Role),
		Active:       f.Active,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a desk or parking spot.
type ResourceFixture struct {
	ID            string
	Kind          ledger.Kind
	Code          string
	Name          string
	LocationLabel *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns an active resource of kind. Desks default to
// the "Open Space" location, parking spots carry none.
func NewResourceFixture(kind ledger.Kind, opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	prefix := "D"
	var location *string
	if kind == ledger.KindParking {
		prefix = "P"
	} else {
		openSpace := "Open Space"
		location = &openSpace
	}
	code := fmt.Sprintf("%s-%02d", prefix, idx)
	fixture := ResourceFixture{
		ID:            fmt.Sprintf("%s-%03d", kind, idx),
		Kind:          kind,
		Code:          code,
		Name:          code,
		LocationLabel: location,
		Active:        true,
		CreatedAt:     referenceTime.Add(-24 * time.Hour),
		UpdatedAt:     referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceCode sets both the code and the display name.
func WithResourceCode(code string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Code = code
		f.Name = code
	}
}

func WithResourceLocation(label string) ResourceOption {
	return func(f *ResourceFixture) {
		f.LocationLabel = copyStringPtr(&label)
	}
}

func WithoutResourceLocation() ResourceOption {
	return func(f *ResourceFixture) {
		f.LocationLabel = nil
	}
}

func WithResourceInactive() ResourceOption {
	return func(f *ResourceFixture) {
		f.Active = false
	}
}

func (f ResourceFixture) Application() application.Resource {
	return application.Resource{
		ID:            f.ID,
		Kind:          f.Kind,
		Code:          f.Code,
		Name:          f.Name,
		LocationLabel: copyStringPtr(f.LocationLabel),
		Active:        f.Active,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func (f ResourceFixture) Persistence() persistence.Resource {
	return persistence.Resource{
		ID:            f.ID,
		Kind:          f.Kind,
		Code:          f.Code,
		Name:          f.Name,
		LocationLabel: copyStringPtr(f.LocationLabel),
		Active:        f.Active,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ------------------------- Reservation fixtures --------------------------

// ReservationFixture represents one row of a reservation ledger.
type ReservationFixture struct {
	ID         string
	Kind       ledger.Kind
	UserID     string
	ResourceID string
	Date       calendar.Date
	CreatedAt  time.Time
}

// NewReservationFixture books resource for user on date.
func NewReservationFixture(user UserFixture, resource ResourceFixture, date calendar.Date) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	return ReservationFixture{
		ID:         fmt.Sprintf("reservation-%03d", idx),
		Kind:       resource.Kind,
		UserID:     user.ID,
		ResourceID: resource.ID,
		Date:       date,
		CreatedAt:  referenceTime,
	}
}

func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:         f.ID,
		Kind:       f.Kind,
		UserID:     f.UserID,
		ResourceID: f.ResourceID,
		Date:       f.Date,
		CreatedAt:  f.CreatedAt,
	}
}

// --------------------------- Presence fixtures ---------------------------

// PresenceFixture represents a stored presence declaration.
type PresenceFixture struct {
	ID        string
	UserID    string
	Date      calendar.Date
	Mode      application.PresenceMode
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPresenceFixture declares mode for user on date.
func NewPresenceFixture(user UserFixture, date calendar.Date, mode application.PresenceMode) PresenceFixture {
	idx := atomic.AddUint64(&presenceCounter, 1)
	return PresenceFixture{
		ID:        fmt.Sprintf("presence-%03d", idx),
		UserID:    user.ID,
		Date:      date,
		Mode:      mode,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

func (f PresenceFixture) Persistence() persistence.Presence {
	return persistence.Presence{
		ID:        f.ID,
		UserID:    f.UserID,
		Date:      f.Date,
		Mode:      string(f.Mode),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents an issued authentication session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for user that expires a day after
// ReferenceTime.
func NewSessionFixture(user UserFixture, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		UserID:      user.ID,
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: "fixture-agent",
		ExpiresAt:   referenceTime.Add(24 * time.Hour),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
