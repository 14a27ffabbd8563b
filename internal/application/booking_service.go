package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

// BookingService is the booking engine of one ledger kind. Desk and parking
// run the same algorithm against their own inventory and ledger.
type BookingService struct {
	kind         ledger.Kind
	resources    ResourceRepository
	reservations ReservationLedger
	presence     PresenceRepository
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(kind ledger.Kind, resources ResourceRepository, reservations ReservationLedger, presence PresenceRepository, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(kind, resources, reservations, presence, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(kind ledger.Kind, resources ResourceRepository, reservations ReservationLedger, presence PresenceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		kind:         kind,
		resources:    resources,
		reservations: reservations,
		presence:     presence,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Kind returns the ledger the service books against.
func (s *BookingService) Kind() ledger.Kind {
	return s.kind
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	attrs = append([]any{"kind", string(s.kind)}, attrs...)
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) configured() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.resources == nil || s.reservations == nil || s.presence == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// Reserve books a resource for the caller on one day. The checks run in the
// order past date, resource availability, office presence; the ledger then
// decides both daily slots atomically.
func (s *BookingService) Reserve(ctx context.Context, params ReserveParams) (reservation Reservation, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Reserve",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
		"date", params.Date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reserve", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID, "code", reservation.ResourceCode).InfoContext(ctx, "reservation created")
	}()

	if !params.Principal.authenticated() {
		err = ErrUnauthorized
		return
	}
	resourceID := strings.TrimSpace(params.ResourceID)
	vErr := &ValidationError{}
	if resourceID == "" {
		vErr.add("resourceId", "resource is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	if params.Date.Before(calendar.Today(now)) {
		err = ErrPastDate
		return
	}

	var resource Resource
	resource, err = s.resources.GetResource(ctx, resourceID)
	if err != nil {
		if isNotFound(err) {
			err = ErrResourceUnavailable
		}
		return
	}
	if !resource.Active {
		err = ErrResourceUnavailable
		return
	}

	var presence Presence
	presence, err = s.presence.GetPresence(ctx, params.Principal.UserID, params.Date)
	if err != nil {
		if isNotFound(err) {
			err = ErrPresenceRequired
		}
		return
	}
	if presence.Mode != ModeOffice {
		err = ErrPresenceRequired
		return
	}

	reservation, err = s.reservations.Reserve(ctx, Reservation{
		ID:         s.idGenerator(),
		Kind:       s.kind,
		UserID:     params.Principal.UserID,
		ResourceID: resourceID,
		Date:       params.Date,
		CreatedAt:  now,
	})
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// Cancel removes a reservation owned by the caller, or any reservation when
// the caller is an administrator. Past reservations may be cancelled too.
func (s *BookingService) Cancel(ctx context.Context, principal Principal, reservationID string) (err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	if !principal.authenticated() {
		err = ErrUnauthorized
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		err = ErrForbidden
		return
	}

	if err = s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		err = mapRepoError(err)
	}
	return
}

// ListMine returns every reservation of the caller ordered by date.
func (s *BookingService) ListMine(ctx context.Context, principal Principal) ([]Reservation, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if !principal.authenticated() {
		return nil, ErrUnauthorized
	}
	reservations, err := s.reservations.ListReservationsForUser(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reservations, nil
}

// Grid returns every active resource ordered by code with its booking state
// for the day.
func (s *BookingService) Grid(ctx context.Context, principal Principal, date calendar.Date) ([]GridEntry, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if !principal.authenticated() {
		return nil, ErrUnauthorized
	}
	if date.IsZero() {
		return nil, newValidationError("date", "date is required")
	}

	var (
		resources    []Resource
		reservations []Reservation
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		resources, err = s.resources.ListResources(groupCtx, true)
		return err
	})
	group.Go(func() error {
		var err error
		reservations, err = s.reservations.ListReservationsForDate(groupCtx, date)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, mapRepoError(err)
	}

	byResource := make(map[string]Reservation, len(reservations))
	for _, reservation := range reservations {
		byResource[reservation.ResourceID] = reservation
	}

	grid := make([]GridEntry, 0, len(resources))
	for _, resource := range resources {
		entry := GridEntry{Resource: resource}
		if reservation, ok := byResource[resource.ID]; ok {
			entry.IsReserved = true
			entry.IsMine = reservation.UserID == principal.UserID
			entry.ReservedBy = reservation.UserName
			entry.ReservationID = reservation.ID
		}
		grid = append(grid, entry)
	}
	return grid, nil
}
