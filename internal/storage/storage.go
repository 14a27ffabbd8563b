// Package storage binds the application ports to the persistence
// repositories. Each adapter converts between the two model sets and leaves
// persistence errors untouched so that the services can map them.
package storage

import (
	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/persistence/sqlite"
)

// Repositories holds one adapter per application port.
type Repositories struct {
	Users       *UserRepository
	Credentials *CredentialStore
	Sessions    *SessionRepository
	Presence    *PresenceRepository
	Batch       *DayBatchRepository
	Ledgers     application.Ledgers
}

// FromStore wraps every repository of an opened SQLite store.
func FromStore(store *sqlite.Store) Repositories {
	ledgers := application.Ledgers{
		Resources:    make(map[ledger.Kind]application.ResourceRepository, len(ledger.Kinds)),
		Reservations: make(map[ledger.Kind]application.ReservationLedger, len(ledger.Kinds)),
	}
	for _, kind := range ledger.Kinds {
		ledgers.Resources[kind] = NewResourceRepository(store.Resources(kind))
		ledgers.Reservations[kind] = NewReservationLedger(store.Reservations(kind))
	}

	return Repositories{
		Users:       NewUserRepository(store.Users),
		Credentials: NewCredentialStore(store.Users),
		Sessions:    NewSessionRepository(store.Sessions),
		Presence:    NewPresenceRepository(store.Presence),
		Batch:       NewDayBatchRepository(store.Batch),
		Ledgers:     ledgers,
	}
}

var (
	_ application.UserRepository     = (*UserRepository)(nil)
	_ application.CredentialStore    = (*CredentialStore)(nil)
	_ application.SessionRepository  = (*SessionRepository)(nil)
	_ application.PresenceRepository = (*PresenceRepository)(nil)
	_ application.DayBatchRepository = (*DayBatchRepository)(nil)
	_ application.ResourceRepository = (*ResourceRepository)(nil)
	_ application.ReservationLedger  = (*ReservationLedger)(nil)

	_ persistence.UserRepository = (*sqlite.UserRepository)(nil)
)
