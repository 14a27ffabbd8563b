package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/config"
	httptransport "github.com/example/desk-booking/internal/http"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/storage"
)

// dependencies are the process-wide sources of identity and time.
type dependencies struct {
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	hash           application.PasswordHasher
}

// hashPassword is the production hasher; tests swap in a cheaper one.
var hashPassword application.PasswordHasher = application.HashPassword

func productionDependencies(secret string) dependencies {
	return dependencies{
		idGenerator:    uuid.NewString,
		tokenGenerator: newTokenGenerator(secret),
		now:            time.Now,
		hash:           hashPassword,
	}
}

// newTokenGenerator signs a random UUID with the session secret, so a token
// cannot be derived from a leaked session ID.
func newTokenGenerator(secret string) func() string {
	key := []byte(secret)
	return func() string {
		id := uuid.New()
		mac := hmac.New(sha256.New, key)
		mac.Write(id[:])
		return hex.EncodeToString(mac.Sum(nil))
	}
}

// newHandler wires the services over store and returns the routed API.
func newHandler(store *sqlite.Store, cfg config.Config, logger *slog.Logger, deps dependencies) http.Handler {
	repos := storage.FromStore(store)

	inventory := make(map[ledger.Kind]*application.InventoryService, len(ledger.Kinds))
	bookings := make(map[ledger.Kind]*application.BookingService, len(ledger.Kinds))
	for _, kind := range ledger.Kinds {
		resources := repos.Ledgers.Resources[kind]
		inventory[kind] = application.NewInventoryServiceWithLogger(kind, resources, deps.idGenerator, deps.now, logger)
		bookings[kind] = application.NewBookingServiceWithLogger(kind, resources, repos.Ledgers.Reservations[kind], repos.Presence, deps.idGenerator, deps.now, logger)
	}

	presenceService := application.NewPresenceServiceWithLogger(repos.Presence, repos.Users, repos.Ledgers, deps.idGenerator, deps.now, logger)
	presenceService.SetMaxBulkDates(cfg.BulkMaxDates)
	reconciler := application.NewReconcilerWithLogger(repos.Batch, repos.Ledgers, presenceService, deps.now, logger)
	overviewService := application.NewOverviewServiceWithLogger(repos.Ledgers, bookings, deps.now, logger)

	authService := application.NewAuthServiceWithLogger(repos.Credentials, repos.Sessions, nil, deps.tokenGenerator, deps.now, cfg.SessionTTL, logger)
	authService.EnablePrincipalCache(cfg.SessionCacheSize, cfg.SessionCacheTTL)
	userService := application.NewUserServiceWithLogger(repos.Users, deps.hash, deps.idGenerator, deps.now, logger)
	userService.SetSessionInvalidator(authService)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:             httptransport.NewAuthHandler(authService, userService, logger),
		Desks:            httptransport.NewBookingHandler(bookings[ledger.KindDesk], logger),
		Parking:          httptransport.NewBookingHandler(bookings[ledger.KindParking], logger),
		Days:             httptransport.NewDayHandler(reconciler, logger),
		Presence:         httptransport.NewPresenceHandler(presenceService, reconciler, logger),
		Overview:         httptransport.NewOverviewHandler(overviewService, logger),
		DeskInventory:    httptransport.NewInventoryHandler(inventory[ledger.KindDesk], logger),
		ParkingInventory: httptransport.NewInventoryHandler(inventory[ledger.KindParking], logger),
		Users:            httptransport.NewUserHandler(userService, logger),
		Health:           store.Pool().Ping,
		Session:          httptransport.RequireSession(authService, logger),
		Admin:            httptransport.RequireAdmin(logger),
		Middleware:       []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}
