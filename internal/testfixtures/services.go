package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/storage"
)

// fastArgon2idParams keep hashing cheap in tests; the encoded hash still
// verifies with application.VerifyPassword.
var fastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// FastPasswordHasher hashes with minimal argon2id cost.
func FastPasswordHasher(password string) (string, error) {
	return application.CreatePasswordHash(password, fastArgon2idParams)
}

// PasswordHash returns a verifiable hash of password or fails the test.
func PasswordHash(tb testing.TB, password string) string {
	tb.Helper()
	hash, err := FastPasswordHasher(password)
	if err != nil {
		tb.Fatalf("failed to hash password: %v", err)
	}
	return hash
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Hasher      application.PasswordHasher
	Logger      *slog.Logger
	SessionTTL  time.Duration
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Hasher:      FastPasswordHasher,
		SessionTTL:  24 * time.Hour,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services is the full service graph over one set of repositories.
type Services struct {
	Inventory  map[ledger.Kind]*application.InventoryService
	Bookings   map[ledger.Kind]*application.BookingService
	Presence   *application.PresenceService
	Reconciler *application.Reconciler
	Overview   *application.OverviewService
	Users      *application.UserService
	Auth       *application.AuthService
}

// Build wires every service over repos the way the server does, with the
// factory clock and identifiers. Session tokens come from a separate "token"
// sequence.
func (f *ServiceFactory) Build(repos storage.Repositories) Services {
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	services := Services{
		Inventory: make(map[ledger.Kind]*application.InventoryService, len(ledger.Kinds)),
		Bookings:  make(map[ledger.Kind]*application.BookingService, len(ledger.Kinds)),
	}
	for _, kind := range ledger.Kinds {
		resources := repos.Ledgers.Resources[kind]
		services.Inventory[kind] = application.NewInventoryServiceWithLogger(kind, resources, ids, now, f.Logger)
		services.Bookings[kind] = application.NewBookingServiceWithLogger(kind, resources, repos.Ledgers.Reservations[kind], repos.Presence, ids, now, f.Logger)
	}

	services.Presence = application.NewPresenceServiceWithLogger(repos.Presence, repos.Users, repos.Ledgers, ids, now, f.Logger)
	services.Reconciler = application.NewReconcilerWithLogger(repos.Batch, repos.Ledgers, services.Presence, now, f.Logger)
	services.Overview = application.NewOverviewServiceWithLogger(repos.Ledgers, services.Bookings, now, f.Logger)
	services.Users = application.NewUserServiceWithLogger(repos.Users, f.Hasher, ids, now, f.Logger)
	services.Auth = application.NewAuthServiceWithLogger(repos.Credentials, repos.Sessions, nil, NewIDGenerator("token").NextFunc(), now, f.SessionTTL, f.Logger)
	services.Users.SetSessionInvalidator(services.Auth)

	return services
}
