package http

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

type RouterConfig struct {
	Auth             *AuthHandler
	Desks            *BookingHandler
	Parking          *BookingHandler
	Days             *DayHandler
	Presence         *PresenceHandler
	Overview         *OverviewHandler
	DeskInventory    *InventoryHandler
	ParkingInventory *InventoryHandler
	Users            *UserHandler
	// Health is probed by GET /healthz when set.
	Health func(ctx context.Context) error
	// Session authenticates every route except /login and /healthz.
	Session func(http.Handler) http.Handler
	// Admin additionally guards the /admin routes.
	Admin      func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

// methodSet dispatches on the request method and answers 405 otherwise.
type methodSet map[string]http.HandlerFunc

func (m methodSet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handler, ok := m[r.Method]; ok {
		handler(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	methodNotAllowed(w, allowed...)
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protected := func(h http.Handler) http.Handler {
		if cfg.Session != nil {
			return cfg.Session(h)
		}
		return h
	}
	admin := func(h http.Handler) http.Handler {
		if cfg.Admin != nil {
			h = cfg.Admin(h)
		}
		return protected(h)
	}

	mux.Handle("/healthz", methodSet{http.MethodGet: healthHandler(cfg.Health)})

	if cfg.Auth != nil {
		mux.Handle("/login", methodSet{http.MethodPost: cfg.Auth.Login})
		mux.Handle("/logout", protected(methodSet{http.MethodPost: cfg.Auth.Logout}))
		mux.Handle("/refresh", protected(methodSet{http.MethodPost: cfg.Auth.Refresh}))
		mux.Handle("/me", protected(methodSet{http.MethodGet: cfg.Auth.Me}))
	}

	if cfg.Desks != nil {
		mux.Handle("/desks", protected(methodSet{http.MethodGet: cfg.Desks.Grid}))
		mux.Handle("/reservations", protected(methodSet{http.MethodPost: cfg.Desks.Reserve}))
		mux.Handle("/reservations/mine", protected(methodSet{http.MethodGet: cfg.Desks.Mine}))
		mux.Handle("/reservations/{id}", protected(methodSet{http.MethodDelete: cfg.Desks.Cancel}))
	}

	if cfg.Parking != nil {
		mux.Handle("/parking", protected(methodSet{http.MethodGet: cfg.Parking.Grid}))
		mux.Handle("/parking/reservations", protected(methodSet{http.MethodPost: cfg.Parking.Reserve}))
		mux.Handle("/parking/reservations/mine", protected(methodSet{http.MethodGet: cfg.Parking.Mine}))
		mux.Handle("/parking/reservations/{id}", protected(methodSet{http.MethodDelete: cfg.Parking.Cancel}))
	}

	if cfg.Days != nil {
		mux.Handle("/reservations/my-daily", protected(methodSet{
			http.MethodGet:    cfg.Days.Get,
			http.MethodDelete: cfg.Days.Cancel,
		}))
		mux.Handle("/reservations/check-bulk", protected(methodSet{http.MethodPost: cfg.Days.CheckBulk}))
		mux.Handle("/reservations/bulk-daily", protected(methodSet{http.MethodDelete: cfg.Days.CancelDates}))
	}

	if cfg.Presence != nil {
		mux.Handle("/presence", protected(methodSet{
			http.MethodGet: cfg.Presence.Get,
			http.MethodPut: cfg.Presence.Set,
		}))
		mux.Handle("/presence/transition", protected(methodSet{http.MethodPost: cfg.Presence.Transition}))
		mux.Handle("/presence/bulk", protected(methodSet{http.MethodPost: cfg.Presence.Bulk}))
		mux.Handle("/presence/month", protected(methodSet{http.MethodGet: cfg.Presence.Month}))
		mux.Handle("/presence/summary", protected(methodSet{http.MethodGet: cfg.Presence.Summary}))
	}

	if cfg.Overview != nil {
		mux.Handle("/office", protected(methodSet{http.MethodGet: cfg.Overview.Office}))
		mux.Handle("/admin/reservations", admin(methodSet{http.MethodGet: cfg.Overview.AdminReservations}))
		mux.Handle("/admin/reservations/{kind}/{id}", admin(methodSet{http.MethodDelete: cfg.Overview.AdminCancel}))
	}

	registerInventory(mux, "/admin/desks", cfg.DeskInventory, admin)
	registerInventory(mux, "/admin/parking", cfg.ParkingInventory, admin)

	if cfg.Users != nil {
		mux.Handle("/admin/users", admin(methodSet{
			http.MethodGet:  cfg.Users.List,
			http.MethodPost: cfg.Users.Create,
		}))
		mux.Handle("/admin/users/{id}", admin(methodSet{
			http.MethodGet:    cfg.Users.Get,
			http.MethodPut:    cfg.Users.Update,
			http.MethodPatch:  cfg.Users.Update,
			http.MethodDelete: cfg.Users.Delete,
		}))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func registerInventory(mux *http.ServeMux, prefix string, h *InventoryHandler, guard func(http.Handler) http.Handler) {
	if h == nil {
		return
	}
	mux.Handle(prefix, guard(methodSet{
		http.MethodGet:  h.List,
		http.MethodPost: h.Create,
	}))
	mux.Handle(prefix+"/{id}", guard(methodSet{
		http.MethodGet:    h.Get,
		http.MethodPut:    h.Update,
		http.MethodPatch:  h.Update,
		http.MethodDelete: h.Delete,
	}))
}

func healthHandler(probe func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if probe != nil {
			if err := probe(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
