package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	janPrincipal   = application.Principal{UserID: "jan", Name: "Jan"}
	adminPrincipal = application.Principal{UserID: "admin", Name: "Admin", IsAdmin: true}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type tokenValidator struct{}

func (tokenValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	switch token {
	case userToken:
		return janPrincipal, nil
	case adminToken:
		return adminPrincipal, nil
	}
	return application.Principal{}, application.ErrUnauthorized
}

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}

type authServiceStub struct {
	authenticate func(application.AuthenticateParams) (application.AuthenticateResult, error)
	revoked      []string
	revokeErr    error
}

func (s *authServiceStub) Authenticate(_ context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.authenticate(params)
}

func (s *authServiceStub) RefreshSession(_ context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	if params.Token != userToken {
		return application.RefreshSessionResult{}, application.ErrInvalidCredentials
	}
	return application.RefreshSessionResult{Session: application.Session{UserID: "jan", Token: "rotated", ExpiresAt: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)}}, nil
}

func (s *authServiceStub) RevokeSession(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return s.revokeErr
}

type userServiceStub struct {
	users   map[string]application.User
	created []application.CreateUserParams
	updated []application.UpdateUserParams
	err     error
}

func (s *userServiceStub) CreateUser(_ context.Context, params application.CreateUserParams) (application.User, error) {
	s.created = append(s.created, params)
	if s.err != nil {
		return application.User{}, s.err
	}
	return application.User{ID: "new", Name: params.Input.Name, Email: params.Input.Email, Role: params.Input.Role, Active: true}, nil
}

func (s *userServiceStub) UpdateUser(_ context.Context, params application.UpdateUserParams) (application.User, error) {
	s.updated = append(s.updated, params)
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.users[params.UserID], nil
}

func (s *userServiceStub) DeleteUser(context.Context, application.Principal, string) error {
	return s.err
}

func (s *userServiceStub) GetUser(_ context.Context, _ application.Principal, userID string) (application.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return application.User{}, application.ErrNotFound
	}
	return user, nil
}

func (s *userServiceStub) ListUsers(context.Context, application.Principal) ([]application.UserStats, error) {
	out := make([]application.UserStats, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, application.UserStats{User: user, DeskReservations: 2})
	}
	return out, s.err
}

type bookingServiceStub struct {
	kind     ledger.Kind
	reserved []application.ReserveParams
	err      error
	grid     []application.GridEntry
}

func (s *bookingServiceStub) Kind() ledger.Kind { return s.kind }

func (s *bookingServiceStub) Reserve(_ context.Context, params application.ReserveParams) (application.Reservation, error) {
	s.reserved = append(s.reserved, params)
	if s.err != nil {
		return application.Reservation{}, s.err
	}
	return application.Reservation{ID: "r1", Kind: s.kind, UserID: params.Principal.UserID, ResourceID: params.ResourceID, Date: params.Date, ResourceCode: "A-01"}, nil
}

func (s *bookingServiceStub) Cancel(context.Context, application.Principal, string) error {
	return s.err
}

func (s *bookingServiceStub) ListMine(_ context.Context, principal application.Principal) ([]application.Reservation, error) {
	return []application.Reservation{{ID: "r1", Kind: s.kind, UserID: principal.UserID, Date: calendar.MustParse("2026-02-10")}}, s.err
}

func (s *bookingServiceStub) Grid(context.Context, application.Principal, calendar.Date) ([]application.GridEntry, error) {
	return s.grid, s.err
}

type presenceServiceStub struct {
	set []application.SetPresenceParams
}

func (s *presenceServiceStub) GetPresence(_ context.Context, principal application.Principal, date calendar.Date) (application.Presence, error) {
	return application.Presence{UserID: principal.UserID, Date: date, Mode: application.ModeHome}, nil
}

func (s *presenceServiceStub) SetPresence(_ context.Context, params application.SetPresenceParams) (application.Presence, error) {
	s.set = append(s.set, params)
	return application.Presence{UserID: params.Principal.UserID, Date: params.Date, Mode: params.Mode, Stored: true}, nil
}

func (s *presenceServiceStub) Month(_ context.Context, _ application.Principal, year int, month time.Month) (application.PresenceMonth, error) {
	return application.PresenceMonth{
		Year:    year,
		Month:   month,
		Entries: []application.Presence{{Date: calendar.New(year, month, 2), Mode: application.ModeOffice, Stored: true}},
		Open:    []calendar.Date{calendar.New(year, month, 27)},
	}, nil
}

func (s *presenceServiceStub) Summary(_ context.Context, _ application.Principal, date calendar.Date) (application.PresenceSummary, error) {
	return application.PresenceSummary{
		Date:   date,
		Office: []application.SummaryPerson{{UserID: "jan", Name: "Jan", DeskCode: "A-01"}},
		Counts: application.SummaryCounts{Total: 1, TotalDesks: 4, Office: 1},
	}, nil
}

type transitionServiceStub struct {
	bulk    []application.BulkPresenceParams
	bulkErr error
}

func (s *transitionServiceStub) ConfirmDayTransition(_ context.Context, params application.SetPresenceParams) (application.DayTransitionResult, error) {
	return application.DayTransitionResult{
		Presence:  application.Presence{Date: params.Date, Mode: params.Mode, Stored: true},
		Cancelled: application.CancelDayResult{Date: params.Date, DeskCode: "A-01"},
	}, nil
}

func (s *transitionServiceStub) ApplyBulkTransition(_ context.Context, params application.BulkPresenceParams) (application.BulkTransitionResult, error) {
	s.bulk = append(s.bulk, params)
	if s.bulkErr != nil {
		return application.BulkTransitionResult{}, s.bulkErr
	}
	return application.BulkTransitionResult{Mode: params.Mode, Cancelled: application.CancelCounts{Desk: 1}}, nil
}

type dayServiceStub struct {
	checked []string
}

func (s *dayServiceStub) DayReservations(_ context.Context, principal application.Principal, date calendar.Date) (application.DayReservations, error) {
	return application.DayReservations{
		Date: date,
		Desk: &application.Reservation{ID: "r1", Kind: ledger.KindDesk, UserID: principal.UserID, Date: date, ResourceCode: "A-01"},
	}, nil
}

func (s *dayServiceStub) CancelDay(_ context.Context, _ application.Principal, date calendar.Date) (application.CancelDayResult, error) {
	return application.CancelDayResult{Date: date, DeskCode: "A-01", ParkingCode: "P-01"}, nil
}

func (s *dayServiceStub) CheckBulk(_ context.Context, _ application.Principal, rawDates []string) ([]application.DayConflict, error) {
	s.checked = rawDates
	return []application.DayConflict{{Date: calendar.MustParse("2026-02-10"), DeskCode: "A-01"}}, nil
}

func (s *dayServiceStub) CancelDates(context.Context, application.Principal, []string) (application.CancelCounts, error) {
	return application.CancelCounts{Desk: 2, Parking: 1}, nil
}

type overviewServiceStub struct {
	filters   []application.AdminReservationFilter
	cancelled []string
}

func (s *overviewServiceStub) Office(_ context.Context, _ application.Principal, date calendar.Date) (application.OfficeOverview, error) {
	return application.OfficeOverview{Date: date, ReservedCount: 1, Capacity: 4, People: []application.OfficePerson{{Name: "Jan", DeskCode: "A-01"}}}, nil
}

func (s *overviewServiceStub) AdminReservations(_ context.Context, _ application.Principal, filter application.AdminReservationFilter) (application.AdminReservations, error) {
	s.filters = append(s.filters, filter)
	return application.AdminReservations{
		From:         calendar.MustParse("2026-02-09"),
		To:           calendar.MustParse("2026-02-16"),
		Reservations: []application.Reservation{{ID: "r1", Kind: ledger.KindDesk}},
		DeskTotal:    1,
	}, nil
}

func (s *overviewServiceStub) AdminCancel(_ context.Context, _ application.Principal, kind ledger.Kind, reservationID string) error {
	s.cancelled = append(s.cancelled, string(kind)+"/"+reservationID)
	return nil
}

type inventoryServiceStub struct {
	kind    ledger.Kind
	created []application.CreateResourceParams
	listed  []bool
	err     error
}

func (s *inventoryServiceStub) Kind() ledger.Kind { return s.kind }

func (s *inventoryServiceStub) CreateResource(_ context.Context, params application.CreateResourceParams) (application.Resource, error) {
	s.created = append(s.created, params)
	if s.err != nil {
		return application.Resource{}, s.err
	}
	return application.Resource{ID: "d1", Kind: s.kind, Code: params.Input.Code, Name: params.Input.Name, Active: true}, nil
}

func (s *inventoryServiceStub) UpdateResource(_ context.Context, params application.UpdateResourceParams) (application.Resource, error) {
	return application.Resource{ID: params.ResourceID, Kind: s.kind, Active: params.Active == nil || *params.Active}, s.err
}

func (s *inventoryServiceStub) DeleteResource(context.Context, application.Principal, string) error {
	return s.err
}

func (s *inventoryServiceStub) GetResource(_ context.Context, _ application.Principal, resourceID string) (application.Resource, error) {
	return application.Resource{ID: resourceID, Kind: s.kind}, s.err
}

func (s *inventoryServiceStub) ListResources(_ context.Context, _ application.Principal, activeOnly bool) ([]application.Resource, error) {
	s.listed = append(s.listed, activeOnly)
	return []application.Resource{{ID: "d1", Kind: s.kind, Code: "A-01", Active: true}}, s.err
}

type routerFixture struct {
	auth      *authServiceStub
	users     *userServiceStub
	desks     *bookingServiceStub
	parking   *bookingServiceStub
	presence  *presenceServiceStub
	transit   *transitionServiceStub
	days      *dayServiceStub
	overview  *overviewServiceStub
	inventory *inventoryServiceStub
	handler   http.Handler
}

func newRouterFixture() *routerFixture {
	logger := discardLogger()
	fx := &routerFixture{
		auth: &authServiceStub{authenticate: func(params application.AuthenticateParams) (application.AuthenticateResult, error) {
			if params.Email != "jan@company.com" || params.Password != "password123" {
				return application.AuthenticateResult{}, application.ErrInvalidCredentials
			}
			return application.AuthenticateResult{
				User:    application.User{ID: "jan", Name: "Jan", Email: params.Email, Role: application.RoleUser, Active: true},
				Session: application.Session{Token: "issued", ExpiresAt: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)},
			}, nil
		}},
		users: &userServiceStub{users: map[string]application.User{
			"jan":   {ID: "jan", Name: "Jan", Email: "jan@company.com", Role: application.RoleUser, Active: true},
			"admin": {ID: "admin", Name: "Admin", Email: "admin@company.com", Role: application.RoleAdmin, Active: true},
		}},
		desks:     &bookingServiceStub{kind: ledger.KindDesk},
		parking:   &bookingServiceStub{kind: ledger.KindParking},
		presence:  &presenceServiceStub{},
		transit:   &transitionServiceStub{},
		days:      &dayServiceStub{},
		overview:  &overviewServiceStub{},
		inventory: &inventoryServiceStub{kind: ledger.KindDesk},
	}
	fx.handler = NewRouter(RouterConfig{
		Auth:             NewAuthHandler(fx.auth, fx.users, logger),
		Desks:            NewBookingHandler(fx.desks, logger),
		Parking:          NewBookingHandler(fx.parking, logger),
		Days:             NewDayHandler(fx.days, logger),
		Presence:         NewPresenceHandler(fx.presence, fx.transit, logger),
		Overview:         NewOverviewHandler(fx.overview, logger),
		DeskInventory:    NewInventoryHandler(fx.inventory, logger),
		ParkingInventory: NewInventoryHandler(&inventoryServiceStub{kind: ledger.KindParking}, logger),
		Users:            NewUserHandler(fx.users, logger),
		Session:          RequireSession(tokenValidator{}, logger),
		Admin:            RequireAdmin(logger),
		Middleware:       []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
	return fx
}

func (fx *routerFixture) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	fx.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var payload errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error response %q: %v", recorder.Body.String(), err)
	}
	return payload
}
