package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
	"github.com/example/desk-booking/internal/storage"
)

// SQLiteHarness provides repository access backed by a migrated SQLite store
// for integration-style tests. Repositories exposes the same store through
// the application ports.
type SQLiteHarness struct {
	Store        *sqlite.Store
	Repositories storage.Repositories

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "deskbooking.db")
	return openHarness(tb, migration.TempFileTestSQLiteConfig(path))
}

// NewInMemorySQLiteHarness is NewSQLiteHarness over a private in-memory
// database.
func NewInMemorySQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	return openHarness(tb, migration.InMemoryTestSQLiteConfig())
}

func openHarness(tb testing.TB, config migration.SQLiteConfig) *SQLiteHarness {
	tb.Helper()

	store, err := sqlite.Open(config, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:        store,
		Repositories: storage.FromStore(store),
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedUsers inserts every fixture or fails the test.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, user := range users {
		if err := h.Store.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
			tb.Fatalf("failed to seed user %s: %v", user.ID, err)
		}
	}
}

// SeedResources inserts every fixture into the inventory of its kind.
func (h *SQLiteHarness) SeedResources(tb testing.TB, resources ...ResourceFixture) {
	tb.Helper()
	for _, resource := range resources {
		if err := h.Store.Resources(resource.Kind).CreateResource(context.Background(), resource.Persistence()); err != nil {
			tb.Fatalf("failed to seed resource %s: %v", resource.Code, err)
		}
	}
}

// SeedReservations books every fixture through its ledger, so slot rules
// apply to seeded rows as well.
func (h *SQLiteHarness) SeedReservations(tb testing.TB, reservations ...ReservationFixture) {
	tb.Helper()
	for _, reservation := range reservations {
		if _, err := h.Store.Reservations(reservation.Kind).Reserve(context.Background(), reservation.Persistence()); err != nil {
			tb.Fatalf("failed to seed reservation %s: %v", reservation.ID, err)
		}
	}
}

// SeedPresences stores every declaration in one transaction.
func (h *SQLiteHarness) SeedPresences(tb testing.TB, presences ...PresenceFixture) {
	tb.Helper()
	records := make([]persistence.Presence, 0, len(presences))
	for _, presence := range presences {
		records = append(records, presence.Persistence())
	}
	if err := h.Store.Presence.UpsertPresences(context.Background(), records); err != nil {
		tb.Fatalf("failed to seed presences: %v", err)
	}
}

// SeedSessions inserts every session fixture.
func (h *SQLiteHarness) SeedSessions(tb testing.TB, sessions ...SessionFixture) {
	tb.Helper()
	for _, session := range sessions {
		if _, err := h.Store.Sessions.CreateSession(context.Background(), session.Persistence()); err != nil {
			tb.Fatalf("failed to seed session %s: %v", session.ID, err)
		}
	}
}
