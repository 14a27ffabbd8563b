package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

const defaultAdminWindowDays = 7

// OverviewService serves read projections across both ledgers and the
// administrative reservation views.
type OverviewService struct {
	ledgers  Ledgers
	bookings map[ledger.Kind]*BookingService
	now      func() time.Time
	logger   *slog.Logger
}

// NewOverviewService constructs an overview service with the provided dependencies.
func NewOverviewService(ledgers Ledgers, bookings map[ledger.Kind]*BookingService, now func() time.Time) *OverviewService {
	return NewOverviewServiceWithLogger(ledgers, bookings, now, nil)
}

// NewOverviewServiceWithLogger constructs an overview service with a specified logger.
func NewOverviewServiceWithLogger(ledgers Ledgers, bookings map[ledger.Kind]*BookingService, now func() time.Time, logger *slog.Logger) *OverviewService {
	if now == nil {
		now = time.Now
	}
	return &OverviewService{ledgers: ledgers, bookings: bookings, now: now, logger: defaultLogger(logger)}
}

func (s *OverviewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OverviewService", operation, attrs...)
}

// Office reports desk occupancy for one day ordered by desk code.
func (s *OverviewService) Office(ctx context.Context, principal Principal, date calendar.Date) (OfficeOverview, error) {
	if s == nil {
		return OfficeOverview{}, fmt.Errorf("OverviewService is nil")
	}
	if !principal.authenticated() {
		return OfficeOverview{}, ErrUnauthorized
	}
	if date.IsZero() {
		return OfficeOverview{}, newValidationError("date", "date is required")
	}
	desks, reservations := s.ledgers.Resources[ledger.KindDesk], s.ledgers.Reservations[ledger.KindDesk]
	if desks == nil || reservations == nil {
		return OfficeOverview{}, fmt.Errorf("desk ledger not configured")
	}

	var (
		active []Resource
		booked []Reservation
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		active, err = desks.ListResources(groupCtx, true)
		return
	})
	group.Go(func() (err error) {
		booked, err = reservations.ListReservationsForDate(groupCtx, date)
		return
	})
	if err := group.Wait(); err != nil {
		return OfficeOverview{}, mapRepoError(err)
	}

	overview := OfficeOverview{
		Date:          date,
		ReservedCount: len(booked),
		Capacity:      len(active),
		People:        make([]OfficePerson, 0, len(booked)),
	}
	for _, reservation := range booked {
		overview.People = append(overview.People, OfficePerson{Name: reservation.UserName, DeskCode: reservation.ResourceCode})
	}
	sort.SliceStable(overview.People, func(i, j int) bool {
		return overview.People[i].DeskCode < overview.People[j].DeskCode
	})
	return overview, nil
}

// AdminReservations lists reservations of one or both ledgers for
// administrators, newest date first. The window defaults to the next seven
// days and search matches user names and resource codes case-insensitively.
func (s *OverviewService) AdminReservations(ctx context.Context, principal Principal, filter AdminReservationFilter) (result AdminReservations, err error) {
	if s == nil {
		err = fmt.Errorf("OverviewService is nil")
		return
	}
	if err = requireAdmin(principal); err != nil {
		return
	}

	kinds, vErr := parseKindFilter(filter.Kind)
	today := calendar.Today(s.now())
	from, to := filter.From, filter.To
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = today.AddDays(defaultAdminWindowDays)
	}
	if to.Before(from) {
		vErr.add("dateTo", "dateTo must not be before dateFrom")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	query := ReservationQuery{From: from, To: to, UserID: strings.TrimSpace(filter.UserID)}
	perKind := make([][]Reservation, len(kinds))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		reservations := s.ledgers.Reservations[kind]
		if reservations == nil {
			err = fmt.Errorf("%s ledger not configured", kind)
			return
		}
		group.Go(func() (err error) {
			perKind[i], err = reservations.ListReservations(groupCtx, query)
			return
		})
	}
	if err = group.Wait(); err != nil {
		err = mapRepoError(err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result = AdminReservations{From: from, To: to, Reservations: []Reservation{}}
	for _, rows := range perKind {
		for _, reservation := range rows {
			if search != "" &&
				!strings.Contains(strings.ToLower(reservation.UserName), search) &&
				!strings.Contains(strings.ToLower(reservation.ResourceCode), search) {
				continue
			}
			result.Reservations = append(result.Reservations, reservation)
			switch reservation.Kind {
			case ledger.KindDesk:
				result.DeskTotal++
			case ledger.KindParking:
				result.ParkingTotal++
			}
		}
	}
	sort.SliceStable(result.Reservations, func(i, j int) bool {
		a, b := result.Reservations[i], result.Reservations[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind == ledger.KindDesk
		}
		return a.ResourceCode < b.ResourceCode
	})
	return
}

// AdminCancel cancels any reservation of the given ledger on behalf of an administrator.
func (s *OverviewService) AdminCancel(ctx context.Context, principal Principal, kind ledger.Kind, reservationID string) error {
	if s == nil {
		return fmt.Errorf("OverviewService is nil")
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	booking, ok := s.bookings[kind]
	if !ok || booking == nil {
		return newValidationError("type", "type must be desk or parking")
	}

	s.loggerWith(ctx, "AdminCancel",
		"principal_id", principal.UserID,
		"kind", string(kind),
		"reservation_id", reservationID,
	).DebugContext(ctx, "delegating to ledger")
	return booking.Cancel(ctx, principal, reservationID)
}

func parseKindFilter(value string) ([]ledger.Kind, *ValidationError) {
	vErr := &ValidationError{}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return ledger.Kinds, vErr
	}
	kind, err := ledger.ParseKind(trimmed)
	if err != nil {
		vErr.add("type", "type must be desk, parking or all")
		return nil, vErr
	}
	return []ledger.Kind{kind}, vErr
}
