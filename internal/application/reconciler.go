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

// Reconciler drives the confirm-before-cancel workflow that keeps
// reservations limited to days on which the user is in the office.
type Reconciler struct {
	batch    DayBatchRepository
	ledgers  Ledgers
	presence *PresenceService
	now      func() time.Time
	logger   *slog.Logger
}

// NewReconciler constructs a reconciler with the provided dependencies.
func NewReconciler(batch DayBatchRepository, ledgers Ledgers, presence *PresenceService, now func() time.Time) *Reconciler {
	return NewReconcilerWithLogger(batch, ledgers, presence, now, nil)
}

// NewReconcilerWithLogger constructs a reconciler with a specified logger.
func NewReconcilerWithLogger(batch DayBatchRepository, ledgers Ledgers, presence *PresenceService, now func() time.Time, logger *slog.Logger) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{batch: batch, ledgers: ledgers, presence: presence, now: now, logger: defaultLogger(logger)}
}

func (r *Reconciler) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, r.logger, "Reconciler", operation, attrs...)
}

func (r *Reconciler) configured() error {
	if r == nil {
		return fmt.Errorf("Reconciler is nil")
	}
	if r.batch == nil || r.presence == nil {
		return fmt.Errorf("reconciler dependencies not configured")
	}
	return nil
}

// DayReservations returns the caller's desk and parking reservations for one day.
func (r *Reconciler) DayReservations(ctx context.Context, principal Principal, date calendar.Date) (DayReservations, error) {
	if err := r.configured(); err != nil {
		return DayReservations{}, err
	}
	if !principal.authenticated() {
		return DayReservations{}, ErrUnauthorized
	}
	if date.IsZero() {
		return DayReservations{}, newValidationError("date", "date is required")
	}

	found := make([]*Reservation, len(ledger.Kinds))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, kind := range ledger.Kinds {
		reservations := r.ledgers.Reservations[kind]
		if reservations == nil {
			return DayReservations{}, fmt.Errorf("%s ledger not configured", kind)
		}
		group.Go(func() error {
			day, err := reservations.ListReservationsForDate(groupCtx, date)
			if err != nil {
				return err
			}
			for _, reservation := range day {
				if reservation.UserID == principal.UserID {
					found[i] = &reservation
					break
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return DayReservations{}, mapRepoError(err)
	}
	return DayReservations{Date: date, Desk: found[0], Parking: found[1]}, nil
}

// CancelDay removes the caller's desk and parking reservations for one day in
// one transaction.
func (r *Reconciler) CancelDay(ctx context.Context, principal Principal, date calendar.Date) (result CancelDayResult, err error) {
	if err = r.configured(); err != nil {
		return
	}

	logger := r.loggerWith(ctx, "CancelDay",
		"principal_id", principal.UserID,
		"date", date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel day", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("desk_code", result.DeskCode, "parking_code", result.ParkingCode).InfoContext(ctx, "day cancelled")
	}()

	if !principal.authenticated() {
		err = ErrUnauthorized
		return
	}
	if date.IsZero() {
		err = newValidationError("date", "date is required")
		return
	}
	result, err = r.cancelDay(ctx, principal.UserID, date)
	return
}

// ConfirmDayTransition cancels the day's reservations and then sets the new
// mode. Moving to OFFICE cancels nothing. When the presence update fails
// after reservations were removed, a PartialFailureError is returned.
func (r *Reconciler) ConfirmDayTransition(ctx context.Context, params SetPresenceParams) (result DayTransitionResult, err error) {
	if err = r.configured(); err != nil {
		return
	}

	logger := r.loggerWith(ctx, "ConfirmDayTransition",
		"principal_id", params.Principal.UserID,
		"date", params.Date.String(),
		"mode", string(params.Mode),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to apply day transition", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("desk_code", result.Cancelled.DeskCode, "parking_code", result.Cancelled.ParkingCode).InfoContext(ctx, "day transition applied")
	}()

	if err = r.presence.validateDay(params.Principal, params.Date, params.Mode); err != nil {
		return
	}

	result.Cancelled.Date = params.Date
	if params.Mode != ModeOffice {
		result.Cancelled, err = r.cancelDay(ctx, params.Principal.UserID, params.Date)
		if err != nil {
			return
		}
	}

	result.Presence, err = r.presence.SetPresence(ctx, params)
	if err != nil {
		counts := CancelCounts{}
		if result.Cancelled.DeskCode != "" {
			counts.Desk = 1
		}
		if result.Cancelled.ParkingCode != "" {
			counts.Parking = 1
		}
		if counts.Desk+counts.Parking > 0 {
			err = &PartialFailureError{CancelledDesk: counts.Desk, CancelledParking: counts.Parking, Err: err}
		}
	}
	return
}

// CheckBulk lists, per date in ascending order, the caller's reservation codes
// on the requested dates. Dates without reservations are omitted.
func (r *Reconciler) CheckBulk(ctx context.Context, principal Principal, rawDates []string) ([]DayConflict, error) {
	if err := r.configured(); err != nil {
		return nil, err
	}
	if !principal.authenticated() {
		return nil, ErrUnauthorized
	}
	dates, err := r.parseDates(rawDates)
	if err != nil {
		return nil, err
	}
	return r.conflicts(ctx, principal.UserID, dates)
}

// CancelDates removes the caller's reservations in both ledgers on exactly
// the requested dates in one transaction.
func (r *Reconciler) CancelDates(ctx context.Context, principal Principal, rawDates []string) (counts CancelCounts, err error) {
	if err = r.configured(); err != nil {
		return
	}

	logger := r.loggerWith(ctx, "CancelDates",
		"principal_id", principal.UserID,
		"requested", len(rawDates),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel dates", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("desk", counts.Desk, "parking", counts.Parking).InfoContext(ctx, "dates cancelled")
	}()

	if !principal.authenticated() {
		err = ErrUnauthorized
		return
	}
	var dates []calendar.Date
	if dates, err = r.parseDates(rawDates); err != nil {
		return
	}
	counts, err = r.cancelDates(ctx, principal.UserID, dates)
	return
}

// ApplyBulkTransition validates the whole batch, asks for confirmation when
// leaving the office would cancel reservations, then runs two atomic phases:
// reservation cleanup and presence upsert. A failure of the second phase after
// the first removed rows is reported as PartialFailureError and not retried.
func (r *Reconciler) ApplyBulkTransition(ctx context.Context, params BulkPresenceParams) (result BulkTransitionResult, err error) {
	if err = r.configured(); err != nil {
		return
	}

	logger := r.loggerWith(ctx, "ApplyBulkTransition",
		"principal_id", params.Principal.UserID,
		"requested", len(params.Dates),
		"mode", string(params.Mode),
		"confirmed", params.Confirmed,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to apply bulk transition", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"date_count", len(result.Dates),
			"cancelled_desk", result.Cancelled.Desk,
			"cancelled_parking", result.Cancelled.Parking,
		).InfoContext(ctx, "bulk transition applied")
	}()

	var dates []calendar.Date
	if dates, err = r.presence.validateBulk(params); err != nil {
		return
	}

	if params.Mode != ModeOffice {
		var conflicts []DayConflict
		if conflicts, err = r.conflicts(ctx, params.Principal.UserID, dates); err != nil {
			return
		}
		if len(conflicts) > 0 {
			if !params.Confirmed {
				err = &ConfirmationRequiredError{Conflicts: conflicts}
				return
			}
			if result.Cancelled, err = r.cancelDates(ctx, params.Principal.UserID, dates); err != nil {
				return
			}
		}
	}

	if err = r.presence.upsertAll(ctx, params.Principal.UserID, dates, params.Mode); err != nil {
		if result.Cancelled.Desk+result.Cancelled.Parking > 0 {
			err = &PartialFailureError{CancelledDesk: result.Cancelled.Desk, CancelledParking: result.Cancelled.Parking, Err: err}
		}
		return
	}

	result.Dates = dates
	result.Mode = params.Mode
	return
}

func (r *Reconciler) cancelDay(ctx context.Context, userID string, date calendar.Date) (CancelDayResult, error) {
	removed, err := r.batch.DeleteUserReservationsOn(ctx, userID, []calendar.Date{date})
	if err != nil {
		return CancelDayResult{}, mapRepoError(err)
	}
	result := CancelDayResult{Date: date}
	for _, reservation := range removed {
		switch reservation.Kind {
		case ledger.KindDesk:
			result.DeskCode = reservation.ResourceCode
		case ledger.KindParking:
			result.ParkingCode = reservation.ResourceCode
		}
	}
	return result, nil
}

func (r *Reconciler) cancelDates(ctx context.Context, userID string, dates []calendar.Date) (CancelCounts, error) {
	removed, err := r.batch.DeleteUserReservationsOn(ctx, userID, dates)
	if err != nil {
		return CancelCounts{}, mapRepoError(err)
	}
	return countByKind(removed), nil
}

func (r *Reconciler) conflicts(ctx context.Context, userID string, dates []calendar.Date) ([]DayConflict, error) {
	reservations, err := r.batch.ListUserReservationsOn(ctx, userID, dates)
	if err != nil {
		return nil, mapRepoError(err)
	}

	byDate := make(map[calendar.Date]*DayConflict)
	var order []calendar.Date
	for _, reservation := range reservations {
		conflict, ok := byDate[reservation.Date]
		if !ok {
			conflict = &DayConflict{Date: reservation.Date}
			byDate[reservation.Date] = conflict
			order = append(order, reservation.Date)
		}
		switch reservation.Kind {
		case ledger.KindDesk:
			conflict.DeskCode = reservation.ResourceCode
		case ledger.KindParking:
			conflict.ParkingCode = reservation.ResourceCode
		}
	}

	order = calendar.Normalize(order)
	conflicts := make([]DayConflict, 0, len(order))
	for _, date := range order {
		conflicts = append(conflicts, *byDate[date])
	}
	return conflicts, nil
}

// parseDates reads a bounded list of dates without the past and weekend
// restrictions of a presence change.
func (r *Reconciler) parseDates(rawDates []string) ([]calendar.Date, error) {
	limit := r.presence.maxBulkDates
	switch {
	case len(rawDates) == 0:
		return nil, newValidationError("dates", "at least one date is required")
	case len(rawDates) > limit:
		return nil, newValidationError("dates", fmt.Sprintf("at most %d dates per request", limit))
	}

	vErr := &ValidationError{}
	dates := make([]calendar.Date, 0, len(rawDates))
	for i, raw := range rawDates {
		date, err := calendar.Parse(strings.TrimSpace(raw))
		if err != nil {
			vErr.add(fmt.Sprintf("dates[%d]", i), "date must use the YYYY-MM-DD format")
			continue
		}
		dates = append(dates, date)
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return calendar.Normalize(dates), nil
}

func countByKind(reservations []Reservation) CancelCounts {
	var counts CancelCounts
	for _, reservation := range reservations {
		switch reservation.Kind {
		case ledger.KindDesk:
			counts.Desk++
		case ledger.KindParking:
			counts.Parking++
		}
	}
	return counts
}
