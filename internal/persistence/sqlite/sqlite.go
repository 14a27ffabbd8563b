package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users    *UserRepository
	Presence *PresenceRepository
	Batch    *BatchRepository
	Sessions *SessionRepository

	resources    map[ledger.Kind]*ResourceRepository
	reservations map[ledger.Kind]*ReservationRepository
}

// Open connects to the database described by config. The schema is not
// touched until Migrate is called.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	store := &Store{
		pool:         pool,
		logger:       logger,
		Users:        NewUserRepository(pool),
		Presence:     NewPresenceRepository(pool),
		Batch:        NewBatchRepository(pool),
		Sessions:     NewSessionRepository(pool),
		resources:    make(map[ledger.Kind]*ResourceRepository, len(ledger.Kinds)),
		reservations: make(map[ledger.Kind]*ReservationRepository, len(ledger.Kinds)),
	}

	for _, kind := range ledger.Kinds {
		resources, err := NewResourceRepository(pool, kind)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		reservations, err := NewReservationRepository(pool, kind)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		store.resources[kind] = resources
		store.reservations[kind] = reservations
	}

	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Pool exposes the connection pool for health checks and tests.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migration.Files),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migration.Dir,
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Resources returns the inventory repository of kind.
func (s *Store) Resources(kind ledger.Kind) *ResourceRepository {
	return s.resources[kind]
}

// Reservations returns the reservation ledger of kind.
func (s *Store) Reservations(kind ledger.Kind) *ReservationRepository {
	return s.reservations[kind]
}
