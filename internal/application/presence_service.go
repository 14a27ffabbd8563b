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

// DefaultMaxBulkDates bounds the number of dates accepted by one bulk request.
const DefaultMaxBulkDates = 62

const (
	minCalendarYear = 2020
	maxCalendarYear = 2100
)

// PresenceService maintains the per-user, per-day presence ledger. Setting a
// mode never touches reservations; the Reconciler does that on confirmation.
type PresenceService struct {
	presence     PresenceRepository
	users        UserRepository
	ledgers      Ledgers
	idGenerator  func() string
	now          func() time.Time
	maxBulkDates int
	logger       *slog.Logger
}

// NewPresenceService constructs a presence service with the provided dependencies.
func NewPresenceService(presence PresenceRepository, users UserRepository, ledgers Ledgers, idGenerator func() string, now func() time.Time) *PresenceService {
	return NewPresenceServiceWithLogger(presence, users, ledgers, idGenerator, now, nil)
}

// NewPresenceServiceWithLogger constructs a presence service with a specified logger.
func NewPresenceServiceWithLogger(presence PresenceRepository, users UserRepository, ledgers Ledgers, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PresenceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PresenceService{
		presence:     presence,
		users:        users,
		ledgers:      ledgers,
		idGenerator:  idGenerator,
		now:          now,
		maxBulkDates: DefaultMaxBulkDates,
		logger:       defaultLogger(logger),
	}
}

// SetMaxBulkDates overrides DefaultMaxBulkDates. Non-positive values are ignored.
func (s *PresenceService) SetMaxBulkDates(limit int) {
	if s != nil && limit > 0 {
		s.maxBulkDates = limit
	}
}

func (s *PresenceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PresenceService", operation, attrs...)
}

func (s *PresenceService) configured() error {
	if s == nil {
		return fmt.Errorf("PresenceService is nil")
	}
	if s.presence == nil {
		return fmt.Errorf("presence repository not configured")
	}
	return nil
}

// GetPresence returns the caller's mode for the day, HOME when nothing is stored.
func (s *PresenceService) GetPresence(ctx context.Context, principal Principal, date calendar.Date) (Presence, error) {
	if err := s.configured(); err != nil {
		return Presence{}, err
	}
	if !principal.authenticated() {
		return Presence{}, ErrUnauthorized
	}
	if date.IsZero() {
		return Presence{}, newValidationError("date", "date is required")
	}

	presence, err := s.presence.GetPresence(ctx, principal.UserID, date)
	if err != nil {
		if isNotFound(err) {
			return Presence{UserID: principal.UserID, Date: date, Mode: ModeHome}, nil
		}
		return Presence{}, err
	}
	presence.Stored = true
	return presence, nil
}

// SetPresence upserts the caller's mode for today or a later day.
func (s *PresenceService) SetPresence(ctx context.Context, params SetPresenceParams) (presence Presence, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SetPresence",
		"principal_id", params.Principal.UserID,
		"date", params.Date.String(),
		"mode", string(params.Mode),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set presence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "presence set")
	}()

	if err = s.validateDay(params.Principal, params.Date, params.Mode); err != nil {
		return
	}

	now := s.now()
	presence, err = s.presence.UpsertPresence(ctx, Presence{
		ID:        s.idGenerator(),
		UserID:    params.Principal.UserID,
		Date:      params.Date,
		Mode:      params.Mode,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}
	presence.Stored = true
	return
}

// BulkSetPresence validates every date before writing any, then upserts all
// records in one transaction.
func (s *PresenceService) BulkSetPresence(ctx context.Context, params BulkPresenceParams) (dates []calendar.Date, err error) {
	if err = s.configured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "BulkSetPresence",
		"principal_id", params.Principal.UserID,
		"requested", len(params.Dates),
		"mode", string(params.Mode),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set presence in bulk", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("date_count", len(dates)).InfoContext(ctx, "presence set in bulk")
	}()

	dates, err = s.validateBulk(params)
	if err != nil {
		return
	}
	if err = s.upsertAll(ctx, params.Principal.UserID, dates, params.Mode); err != nil {
		dates = nil
	}
	return
}

// Month returns the caller's stored records for one month ordered by date,
// together with the month's working days that are not in the past.
func (s *PresenceService) Month(ctx context.Context, principal Principal, year int, month time.Month) (PresenceMonth, error) {
	if err := s.configured(); err != nil {
		return PresenceMonth{}, err
	}
	if !principal.authenticated() {
		return PresenceMonth{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if year < minCalendarYear || year > maxCalendarYear {
		vErr.add("year", fmt.Sprintf("year must be between %d and %d", minCalendarYear, maxCalendarYear))
	}
	if month < time.January || month > time.December {
		vErr.add("month", "month must be between 1 and 12")
	}
	if vErr.HasErrors() {
		return PresenceMonth{}, vErr
	}

	span := calendar.MonthSpan(year, month)
	records, err := s.presence.ListPresencesForUser(ctx, principal.UserID, span)
	if err != nil {
		return PresenceMonth{}, mapRepoError(err)
	}
	for i := range records {
		records[i].Stored = true
	}

	ahead := calendar.Span{From: calendar.Today(s.now()), To: span.To}
	open := make([]calendar.Date, 0, 23)
	for _, day := range calendar.WorkingDays(year, month) {
		if ahead.Contains(day) {
			open = append(open, day)
		}
	}
	return PresenceMonth{Year: year, Month: month, Entries: records, Open: open}, nil
}

// Summary groups active users by their stored mode for one day. Office
// entries carry the desk code reserved for that day, if any.
func (s *PresenceService) Summary(ctx context.Context, principal Principal, date calendar.Date) (summary PresenceSummary, err error) {
	if err = s.configured(); err != nil {
		return
	}
	if !principal.authenticated() {
		err = ErrUnauthorized
		return
	}
	if date.IsZero() {
		err = newValidationError("date", "date is required")
		return
	}
	desks, deskReservations := s.ledgers.Resources[ledger.KindDesk], s.ledgers.Reservations[ledger.KindDesk]
	if s.users == nil || desks == nil || deskReservations == nil {
		err = fmt.Errorf("summary repositories not configured")
		return
	}

	var (
		users        []User
		records      []Presence
		activeDesks  []Resource
		reservations []Reservation
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		users, err = s.users.ListUsers(groupCtx)
		return
	})
	group.Go(func() (err error) {
		records, err = s.presence.ListPresencesForDate(groupCtx, date)
		return
	})
	group.Go(func() (err error) {
		activeDesks, err = desks.ListResources(groupCtx, true)
		return
	})
	group.Go(func() (err error) {
		reservations, err = deskReservations.ListReservationsForDate(groupCtx, date)
		return
	})
	if err = group.Wait(); err != nil {
		err = mapRepoError(err)
		return
	}

	modes := make(map[string]PresenceMode, len(records))
	for _, record := range records {
		modes[record.UserID] = record.Mode
	}
	deskCodes := make(map[string]string, len(reservations))
	for _, reservation := range reservations {
		deskCodes[reservation.UserID] = reservation.ResourceCode
	}

	summary.Date = date
	summary.Office, summary.Home, summary.Absent = []SummaryPerson{}, []SummaryPerson{}, []SummaryPerson{}
	for _, user := range users {
		if !user.Active {
			continue
		}
		summary.Counts.Total++
		person := SummaryPerson{UserID: user.ID, Name: user.Name}
		switch modes[user.ID] {
		case ModeOffice:
			person.DeskCode = deskCodes[user.ID]
			summary.Office = append(summary.Office, person)
		case ModeHome:
			summary.Home = append(summary.Home, person)
		case ModeAbsent:
			summary.Absent = append(summary.Absent, person)
		}
	}
	for _, list := range [][]SummaryPerson{summary.Office, summary.Home, summary.Absent} {
		sortPeople(list)
	}
	summary.Counts.TotalDesks = len(activeDesks)
	summary.Counts.Office = len(summary.Office)
	summary.Counts.Home = len(summary.Home)
	summary.Counts.Absent = len(summary.Absent)
	return
}

func (s *PresenceService) validateDay(principal Principal, date calendar.Date, mode PresenceMode) error {
	if !principal.authenticated() {
		return ErrUnauthorized
	}
	vErr := &ValidationError{}
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !mode.valid() {
		vErr.add("mode", "mode must be HOME, OFFICE or ABSENT")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if date.Before(calendar.Today(s.now())) {
		return ErrPastDate
	}
	return nil
}

// validateBulk rejects the whole request when any date is malformed, past or
// on a weekend, and returns the distinct dates in ascending order.
func (s *PresenceService) validateBulk(params BulkPresenceParams) ([]calendar.Date, error) {
	if !params.Principal.authenticated() {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if !params.Mode.valid() {
		vErr.add("mode", "mode must be HOME, OFFICE or ABSENT")
	}
	switch {
	case len(params.Dates) == 0:
		vErr.add("dates", "at least one date is required")
	case len(params.Dates) > s.maxBulkDates:
		vErr.add("dates", fmt.Sprintf("at most %d dates per request", s.maxBulkDates))
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	today := calendar.Today(s.now())
	parsed := make([]calendar.Date, 0, len(params.Dates))
	var past, weekend []calendar.Date
	for i, raw := range params.Dates {
		date, err := calendar.Parse(strings.TrimSpace(raw))
		if err != nil {
			vErr.add(fmt.Sprintf("dates[%d]", i), "date must use the YYYY-MM-DD format")
			continue
		}
		switch {
		case date.Before(today):
			past = append(past, date)
		case date.IsWeekend():
			weekend = append(weekend, date)
		}
		parsed = append(parsed, date)
	}
	if len(weekend) > 0 {
		vErr.add("dates", "weekend dates are not allowed: "+strings.Join(calendar.Strings(weekend), ", "))
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if len(past) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPastDate, strings.Join(calendar.Strings(past), ", "))
	}
	return calendar.Normalize(parsed), nil
}

func (s *PresenceService) upsertAll(ctx context.Context, userID string, dates []calendar.Date, mode PresenceMode) error {
	now := s.now()
	records := make([]Presence, 0, len(dates))
	for _, date := range dates {
		records = append(records, Presence{
			ID:        s.idGenerator(),
			UserID:    userID,
			Date:      date,
			Mode:      mode,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return mapRepoError(s.presence.UpsertPresences(ctx, records))
}

func sortPeople(people []SummaryPerson) {
	sort.SliceStable(people, func(i, j int) bool {
		return strings.ToLower(people[i].Name) < strings.ToLower(people[j].Name)
	})
}
