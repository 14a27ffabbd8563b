package application

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

// testNow is a Monday morning.
var testNow = time.Date(2026, time.February, 9, 8, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func sequenceIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// memoryStore is an in-memory implementation of every repository used by the
// booking services. It reports persistence errors like the SQLite store does.
type memoryStore struct {
	mu           sync.Mutex
	users        map[string]UserCredentials
	resources    map[ledger.Kind]map[string]Resource
	reservations map[ledger.Kind]map[string]Reservation
	presence     map[string]Presence

	upsertErr      error
	batchDeleteErr error
	deleteCalls    int
}

func newMemoryStore() *memoryStore {
	store := &memoryStore{
		users:        make(map[string]UserCredentials),
		resources:    make(map[ledger.Kind]map[string]Resource),
		reservations: make(map[ledger.Kind]map[string]Reservation),
		presence:     make(map[string]Presence),
	}
	for _, kind := range ledger.Kinds {
		store.resources[kind] = make(map[string]Resource)
		store.reservations[kind] = make(map[string]Reservation)
	}
	return store
}

func (m *memoryStore) ledgers() Ledgers {
	ledgers := Ledgers{
		Resources:    make(map[ledger.Kind]ResourceRepository),
		Reservations: make(map[ledger.Kind]ReservationLedger),
	}
	for _, kind := range ledger.Kinds {
		ledgers.Resources[kind] = memoryResources{store: m, kind: kind}
		ledgers.Reservations[kind] = memoryLedger{store: m, kind: kind}
	}
	return ledgers
}

func (m *memoryStore) addUser(id, name string, role Role) User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := User{ID: id, Name: name, Email: id + "@company.com", Role: role, Active: true, CreatedAt: testNow, UpdatedAt: testNow}
	m.users[id] = UserCredentials{User: user, PasswordHash: "hash-" + id}
	return user
}

func (m *memoryStore) addResource(kind ledger.Kind, id, code string, active bool) Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	resource := Resource{ID: id, Kind: kind, Code: code, Name: "Resource " + code, Active: active, CreatedAt: testNow, UpdatedAt: testNow}
	m.resources[kind][id] = resource
	return resource
}

func (m *memoryStore) setMode(userID string, date calendar.Date, mode PresenceMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presence[presenceKey(userID, date)] = Presence{ID: "p-" + userID + date.String(), UserID: userID, Date: date, Mode: mode}
}

func (m *memoryStore) mode(userID string, date calendar.Date) (PresenceMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.presence[presenceKey(userID, date)]
	return record.Mode, ok
}

func (m *memoryStore) count(kind ledger.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations[kind])
}

func presenceKey(userID string, date calendar.Date) string {
	return userID + "|" + date.String()
}

// memoryResources serves the inventory of one kind.
type memoryResources struct {
	store *memoryStore
	kind  ledger.Kind
}

func (r memoryResources) CreateResource(_ context.Context, resource Resource) (Resource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.resources[r.kind] {
		if existing.Code == resource.Code {
			return Resource{}, persistence.ErrDuplicate
		}
	}
	r.store.resources[r.kind][resource.ID] = resource
	return resource, nil
}

func (r memoryResources) GetResource(_ context.Context, id string) (Resource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	resource, ok := r.store.resources[r.kind][id]
	if !ok {
		return Resource{}, persistence.ErrNotFound
	}
	return resource, nil
}

func (r memoryResources) UpdateResource(_ context.Context, resource Resource) (Resource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.resources[r.kind][resource.ID]; !ok {
		return Resource{}, persistence.ErrNotFound
	}
	for id, existing := range r.store.resources[r.kind] {
		if id != resource.ID && existing.Code == resource.Code {
			return Resource{}, persistence.ErrDuplicate
		}
	}
	r.store.resources[r.kind][resource.ID] = resource
	return resource, nil
}

func (r memoryResources) DeleteResource(_ context.Context, id string, today calendar.Date) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.resources[r.kind][id]; !ok {
		return persistence.ErrNotFound
	}
	future := 0
	for _, reservation := range r.store.reservations[r.kind] {
		if reservation.ResourceID == id && !reservation.Date.Before(today) {
			future++
		}
	}
	if future > 0 {
		return &persistence.FutureReservationsError{Count: future}
	}
	for rid, reservation := range r.store.reservations[r.kind] {
		if reservation.ResourceID == id {
			delete(r.store.reservations[r.kind], rid)
		}
	}
	delete(r.store.resources[r.kind], id)
	return nil
}

func (r memoryResources) ListResources(_ context.Context, activeOnly bool) ([]Resource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var resources []Resource
	for _, resource := range r.store.resources[r.kind] {
		if activeOnly && !resource.Active {
			continue
		}
		resources = append(resources, resource)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Code < resources[j].Code })
	return resources, nil
}

// memoryLedger serves the reservations of one kind.
type memoryLedger struct {
	store *memoryStore
	kind  ledger.Kind
}

func (l memoryLedger) Reserve(_ context.Context, reservation Reservation) (Reservation, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	resource, ok := l.store.resources[l.kind][reservation.ResourceID]
	if !ok || !resource.Active {
		return Reservation{}, persistence.ErrResourceInactive
	}
	for _, existing := range l.store.reservations[l.kind] {
		if existing.Date != reservation.Date {
			continue
		}
		if existing.ResourceID == reservation.ResourceID {
			return Reservation{}, persistence.ErrResourceSlotTaken
		}
		if existing.UserID == reservation.UserID {
			return Reservation{}, persistence.ErrUserSlotTaken
		}
	}
	reservation.ResourceCode = resource.Code
	reservation.ResourceName = resource.Name
	reservation.LocationLabel = resource.LocationLabel
	if user, ok := l.store.users[reservation.UserID]; ok {
		reservation.UserName = user.User.Name
		reservation.UserEmail = user.User.Email
	}
	l.store.reservations[l.kind][reservation.ID] = reservation
	return reservation, nil
}

func (l memoryLedger) GetReservation(_ context.Context, id string) (Reservation, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	reservation, ok := l.store.reservations[l.kind][id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (l memoryLedger) DeleteReservation(_ context.Context, id string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if _, ok := l.store.reservations[l.kind][id]; !ok {
		return persistence.ErrNotFound
	}
	delete(l.store.reservations[l.kind], id)
	return nil
}

func (l memoryLedger) ListReservationsForDate(ctx context.Context, date calendar.Date) ([]Reservation, error) {
	return l.ListReservations(ctx, ReservationQuery{From: date, To: date})
}

func (l memoryLedger) ListReservationsForUser(ctx context.Context, userID string) ([]Reservation, error) {
	return l.ListReservations(ctx, ReservationQuery{UserID: userID})
}

func (l memoryLedger) ListReservations(_ context.Context, query ReservationQuery) ([]Reservation, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	var reservations []Reservation
	for _, reservation := range l.store.reservations[l.kind] {
		if !query.From.IsZero() && reservation.Date.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && reservation.Date.After(query.To) {
			continue
		}
		if query.UserID != "" && reservation.UserID != query.UserID {
			continue
		}
		reservations = append(reservations, reservation)
	}
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Date != reservations[j].Date {
			return reservations[i].Date.Before(reservations[j].Date)
		}
		return reservations[i].ResourceCode < reservations[j].ResourceCode
	})
	return reservations, nil
}

func (m *memoryStore) ListUserReservationsOn(_ context.Context, userID string, dates []calendar.Date) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userReservationsOn(userID, dates), nil
}

func (m *memoryStore) DeleteUserReservationsOn(_ context.Context, userID string, dates []calendar.Date) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.batchDeleteErr != nil {
		return nil, m.batchDeleteErr
	}
	removed := m.userReservationsOn(userID, dates)
	for _, reservation := range removed {
		delete(m.reservations[reservation.Kind], reservation.ID)
	}
	return removed, nil
}

func (m *memoryStore) userReservationsOn(userID string, dates []calendar.Date) []Reservation {
	wanted := make(map[calendar.Date]bool, len(dates))
	for _, date := range dates {
		wanted[date] = true
	}
	var found []Reservation
	for _, kind := range ledger.Kinds {
		for _, reservation := range m.reservations[kind] {
			if reservation.UserID == userID && wanted[reservation.Date] {
				found = append(found, reservation)
			}
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Date != found[j].Date {
			return found[i].Date.Before(found[j].Date)
		}
		return found[i].Kind == ledger.KindDesk
	})
	return found
}

func (m *memoryStore) GetPresence(_ context.Context, userID string, date calendar.Date) (Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.presence[presenceKey(userID, date)]
	if !ok {
		return Presence{}, persistence.ErrNotFound
	}
	return record, nil
}

func (m *memoryStore) UpsertPresence(_ context.Context, presence Presence) (Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return Presence{}, m.upsertErr
	}
	key := presenceKey(presence.UserID, presence.Date)
	if existing, ok := m.presence[key]; ok {
		presence.ID = existing.ID
		presence.CreatedAt = existing.CreatedAt
	}
	m.presence[key] = presence
	return presence, nil
}

func (m *memoryStore) UpsertPresences(ctx context.Context, presences []Presence) error {
	m.mu.Lock()
	failure := m.upsertErr
	m.mu.Unlock()
	if failure != nil {
		return failure
	}
	for _, presence := range presences {
		if _, err := m.UpsertPresence(ctx, presence); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryStore) ListPresencesForUser(_ context.Context, userID string, span calendar.Span) ([]Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []Presence
	for _, record := range m.presence {
		if record.UserID == userID && span.Contains(record.Date) {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (m *memoryStore) ListPresencesForDate(_ context.Context, date calendar.Date) ([]Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []Presence
	for _, record := range m.presence {
		if record.Date == date {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *memoryStore) CreateUser(_ context.Context, credentials UserCredentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.User.Email == credentials.User.Email {
			return User{}, persistence.ErrDuplicate
		}
	}
	m.users[credentials.User.ID] = credentials
	return credentials.User, nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credentials, ok := m.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return credentials.User, nil
}

func (m *memoryStore) UpdateUser(_ context.Context, credentials UserCredentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[credentials.User.ID]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	for id, other := range m.users {
		if id != credentials.User.ID && other.User.Email == credentials.User.Email {
			return User{}, persistence.ErrDuplicate
		}
	}
	if credentials.PasswordHash == "" {
		credentials.PasswordHash = existing.PasswordHash
	}
	m.users[credentials.User.ID] = credentials
	return credentials.User, nil
}

func (m *memoryStore) DeleteUser(_ context.Context, id string, today calendar.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return persistence.ErrNotFound
	}
	future := 0
	for _, kind := range ledger.Kinds {
		for _, reservation := range m.reservations[kind] {
			if reservation.UserID == id && !reservation.Date.Before(today) {
				future++
			}
		}
	}
	if future > 0 {
		return &persistence.FutureReservationsError{Count: future}
	}
	delete(m.users, id)
	return nil
}

func (m *memoryStore) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, credentials := range m.users {
		users = append(users, credentials.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (m *memoryStore) ListUserStats(ctx context.Context, today calendar.Date) ([]UserStats, error) {
	users, err := m.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make([]UserStats, 0, len(users))
	for _, user := range users {
		entry := UserStats{User: user}
		for _, kind := range ledger.Kinds {
			for _, reservation := range m.reservations[kind] {
				if reservation.UserID != user.ID {
					continue
				}
				if kind == ledger.KindDesk {
					entry.DeskReservations++
				} else {
					entry.ParkingReservations++
				}
				if !reservation.Date.Before(today) {
					entry.UpcomingReservations++
				}
			}
		}
		stats = append(stats, entry)
	}
	return stats, nil
}

// bookingFixture wires every booking service to one memory store.
type bookingFixture struct {
	store      *memoryStore
	presence   *PresenceService
	bookings   map[ledger.Kind]*BookingService
	reconciler *Reconciler
	overview   *OverviewService
}

func newBookingFixture() *bookingFixture {
	store := newMemoryStore()
	ledgers := store.ledgers()
	presence := NewPresenceService(store, store, ledgers, sequenceIDs("presence"), fixedNow)
	bookings := map[ledger.Kind]*BookingService{}
	for _, kind := range ledger.Kinds {
		bookings[kind] = NewBookingService(kind, ledgers.Resources[kind], ledgers.Reservations[kind], store, sequenceIDs(string(kind)), fixedNow)
	}
	return &bookingFixture{
		store:      store,
		presence:   presence,
		bookings:   bookings,
		reconciler: NewReconciler(store, ledgers, presence, fixedNow),
		overview:   NewOverviewService(ledgers, bookings, fixedNow),
	}
}
