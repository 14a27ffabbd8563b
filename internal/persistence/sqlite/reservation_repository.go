package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository for one
// ledger. Both ledgers enforce UNIQUE(resource_id, date) and
// UNIQUE(user_id, date) in the schema.
type ReservationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	tables ledgerTables
}

// NewReservationRepository creates the reservation ledger of kind.
func NewReservationRepository(pool *ConnectionPool, kind ledger.Kind) (*ReservationRepository, error) {
	tables, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	return &ReservationRepository{pool: pool, mapper: NewErrorMapper(), tables: tables}, nil
}

// Kind returns the ledger kind served by the repository.
func (r *ReservationRepository) Kind() ledger.Kind {
	return r.tables.kind
}

// Reserve re-checks the resource and both daily slots and inserts the row in a
// single write transaction. Slot collisions found by the pre-check and UNIQUE
// violations raised by the insert map to the same errors.
func (r *ReservationRepository) Reserve(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	if reservation.ID == "" || reservation.UserID == "" || reservation.ResourceID == "" || reservation.Date.IsZero() {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var active int
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT active FROM %s WHERE id = ?`, r.tables.resources), reservation.ResourceID).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && active == 0) {
			return persistence.ErrResourceInactive
		}
		if err != nil {
			return r.mapper.MapError(err)
		}

		existing, err := r.slotEntries(ctx, tx, reservation)
		if err != nil {
			return err
		}
		candidate := ledger.Entry{ID: reservation.ID, UserID: reservation.UserID, ResourceID: reservation.ResourceID, Date: reservation.Date}
		if conflicts := ledger.DetectConflicts(existing, candidate); len(conflicts) > 0 {
			if conflicts[0].Type == ledger.ConflictResource {
				return persistence.ErrResourceSlotTaken
			}
			return persistence.ErrUserSlotTaken
		}

		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, user_id, resource_id, date, created_at) VALUES (?, ?, ?, ?, ?)`, r.tables.reservations),
			reservation.ID, reservation.UserID, reservation.ResourceID, reservation.Date.String(), formatTimestamp(reservation.CreatedAt),
		)
		return r.mapInsertError(err)
	})
	if err != nil {
		return persistence.Reservation{}, err
	}

	return r.GetReservation(ctx, reservation.ID)
}

func (r *ReservationRepository) slotEntries(ctx context.Context, tx *sql.Tx, reservation persistence.Reservation) ([]ledger.Entry, error) {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, user_id, resource_id, date FROM %s WHERE date = ? AND (resource_id = ? OR user_id = ?)`, r.tables.reservations),
		reservation.Date.String(), reservation.ResourceID, reservation.UserID,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			entry ledger.Entry
			date  string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.ResourceID, &date); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if entry.Date, err = parseDate("date", date); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// mapInsertError classifies a UNIQUE violation by the columns it names.
func (r *ReservationRepository) mapInsertError(err error) error {
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return r.mapper.MapError(err)
	}
	switch {
	case violatedColumn(err, r.tables.reservations, "resource_id"):
		return fmt.Errorf("%w: %v", persistence.ErrResourceSlotTaken, err)
	case violatedColumn(err, r.tables.reservations, "user_id"):
		return fmt.Errorf("%w: %v", persistence.ErrUserSlotTaken, err)
	default:
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	}
}

// GetReservation retrieves a reservation with its resource and user details.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	reservations, err := r.query(ctx, `WHERE r.id = ?`, "", id)
	if err != nil {
		return persistence.Reservation{}, err
	}
	if len(reservations) == 0 {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservations[0], nil
}

// DeleteReservation removes a reservation by ID. Dates are not restricted.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tables.reservations), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// ListReservationsForDate returns the reservations of one day ordered by
// resource code.
func (r *ReservationRepository) ListReservationsForDate(ctx context.Context, date calendar.Date) ([]persistence.Reservation, error) {
	return r.query(ctx, `WHERE r.date = ?`, `ORDER BY x.code`, date.String())
}

// ListReservationsForUser returns every reservation of a user ordered by date.
func (r *ReservationRepository) ListReservationsForUser(ctx context.Context, userID string) ([]persistence.Reservation, error) {
	return r.query(ctx, `WHERE r.user_id = ?`, `ORDER BY r.date, x.code`, userID)
}

// ListReservations returns reservations within the filter ordered by date
// descending.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if !filter.From.IsZero() {
		clauses = append(clauses, `r.date >= ?`)
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, `r.date <= ?`)
		args = append(args, filter.To.String())
	}
	if filter.UserID != "" {
		clauses = append(clauses, `r.user_id = ?`)
		args = append(args, filter.UserID)
	}
	where := ""
	if len(clauses) > 0 {
		where = `WHERE ` + strings.Join(clauses, ` AND `)
	}
	return r.query(ctx, where, `ORDER BY r.date DESC, x.code`, args...)
}

func (r *ReservationRepository) query(ctx context.Context, where, order string, args ...any) ([]persistence.Reservation, error) {
	return queryReservations(ctx, r.pool.DB(), r.tables, where, order, args...)
}

func reservationSelect(tables ledgerTables) string {
	return fmt.Sprintf(`
		SELECT r.id, r.user_id, r.resource_id, r.date, r.created_at,
			x.code, x.name, %s, u.name, u.email
		FROM %s r
		JOIN %s x ON x.id = r.resource_id
		JOIN users u ON u.id = r.user_id`,
		tables.locationColumn("x"), tables.reservations, tables.resources)
}

func queryReservations(ctx context.Context, q queryer, tables ledgerTables, where, order string, args ...any) ([]persistence.Reservation, error) {
	mapper := NewErrorMapper()
	rows, err := q.QueryContext(ctx, reservationSelect(tables)+" "+where+" "+order, args...)
	if err != nil {
		return nil, mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		var (
			reservation     persistence.Reservation
			date, createdAt string
			location        sql.NullString
		)
		if err := rows.Scan(
			&reservation.ID, &reservation.UserID, &reservation.ResourceID, &date, &createdAt,
			&reservation.ResourceCode, &reservation.ResourceName, &location, &reservation.UserName, &reservation.UserEmail,
		); err != nil {
			return nil, mapper.MapError(err)
		}
		reservation.Kind = tables.kind
		reservation.ResourceLocation = stringPtr(location)
		if reservation.Date, err = parseDate("date", date); err != nil {
			return nil, err
		}
		if reservation.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

// BatchRepository implements persistence.ReservationBatchRepository across
// both ledgers.
type BatchRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewBatchRepository creates a repository working on both ledgers at once.
func NewBatchRepository(pool *ConnectionPool) *BatchRepository {
	return &BatchRepository{pool: pool, mapper: NewErrorMapper()}
}

// ListUserReservationsOn returns the user's desk and parking reservations on
// the given dates, ordered by date then kind.
func (r *BatchRepository) ListUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]persistence.Reservation, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	return r.listOn(ctx, r.pool.DB(), userID, dates)
}

// DeleteUserReservationsOn removes the user's reservations of both ledgers on
// the given dates in one transaction and returns what was removed.
func (r *BatchRepository) DeleteUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]persistence.Reservation, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	var removed []persistence.Reservation
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		found, err := r.listOn(ctx, tx, userID, dates)
		if err != nil {
			return err
		}
		for _, tables := range allLedgerTables() {
			query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND date IN (%s)`, tables.reservations, placeholders(len(dates)))
			args := append([]any{userID}, dateArgs(dates)...)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return r.mapper.MapError(err)
			}
		}
		removed = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *BatchRepository) listOn(ctx context.Context, q queryer, userID string, dates []calendar.Date) ([]persistence.Reservation, error) {
	where := fmt.Sprintf(`WHERE r.user_id = ? AND r.date IN (%s)`, placeholders(len(dates)))
	args := append([]any{userID}, dateArgs(dates)...)

	var all []persistence.Reservation
	for _, tables := range allLedgerTables() {
		reservations, err := queryReservations(ctx, q, tables, where, `ORDER BY r.date`, args...)
		if err != nil {
			return nil, err
		}
		all = append(all, reservations...)
	}
	sortReservations(all)
	return all, nil
}

// sortReservations orders by date, desk before parking.
func sortReservations(reservations []persistence.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		if c := reservations[i].Date.Compare(reservations[j].Date); c != 0 {
			return c < 0
		}
		return reservations[i].Kind < reservations[j].Kind
	})
}
