package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/persistence"
)

const upsertPresenceSQL = `
	INSERT INTO presences (id, user_id, date, mode, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, date) DO UPDATE SET
		mode = excluded.mode,
		updated_at = excluded.updated_at`

const presenceColumns = `id, user_id, date, mode, created_at, updated_at`

// PresenceRepository implements persistence.PresenceRepository using SQLite.
type PresenceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewPresenceRepository creates a new SQLite presence repository.
func NewPresenceRepository(pool *ConnectionPool) *PresenceRepository {
	return &PresenceRepository{pool: pool, mapper: NewErrorMapper()}
}

// GetPresence returns the stored record or ErrNotFound.
func (r *PresenceRepository) GetPresence(ctx context.Context, userID string, date calendar.Date) (persistence.Presence, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+presenceColumns+` FROM presences WHERE user_id = ? AND date = ?`, userID, date.String())
	return r.scanPresence(row)
}

// UpsertPresence creates or updates the (user, date) record. An existing row
// keeps its ID and creation time.
func (r *PresenceRepository) UpsertPresence(ctx context.Context, presence persistence.Presence) (persistence.Presence, error) {
	if presence.ID == "" || presence.UserID == "" || presence.Date.IsZero() {
		return persistence.Presence{}, persistence.ErrConstraintViolation
	}
	if _, err := r.pool.DB().ExecContext(ctx, upsertPresenceSQL, presenceArgs(presence)...); err != nil {
		return persistence.Presence{}, r.mapper.MapError(err)
	}
	return r.GetPresence(ctx, presence.UserID, presence.Date)
}

// UpsertPresences writes every record in one transaction.
func (r *PresenceRepository) UpsertPresences(ctx context.Context, presences []persistence.Presence) error {
	if len(presences) == 0 {
		return nil
	}
	for _, presence := range presences {
		if presence.ID == "" || presence.UserID == "" || presence.Date.IsZero() {
			return persistence.ErrConstraintViolation
		}
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertPresenceSQL)
		if err != nil {
			return r.mapper.MapError(err)
		}
		defer stmt.Close()

		for _, presence := range presences {
			if _, err := stmt.ExecContext(ctx, presenceArgs(presence)...); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// ListPresencesForUser returns the user's records within span ordered by date.
func (r *PresenceRepository) ListPresencesForUser(ctx context.Context, userID string, span calendar.Span) ([]persistence.Presence, error) {
	return r.list(ctx, `SELECT `+presenceColumns+` FROM presences WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date`,
		userID, span.From.String(), span.To.String())
}

// ListPresencesForDate returns every record of one day.
func (r *PresenceRepository) ListPresencesForDate(ctx context.Context, date calendar.Date) ([]persistence.Presence, error) {
	return r.list(ctx, `SELECT `+presenceColumns+` FROM presences WHERE date = ? ORDER BY user_id`, date.String())
}

func (r *PresenceRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Presence, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var presences []persistence.Presence
	for rows.Next() {
		presence, err := r.scanPresence(rows)
		if err != nil {
			return nil, err
		}
		presences = append(presences, presence)
	}
	return presences, rows.Err()
}

func (r *PresenceRepository) scanPresence(row rowScanner) (persistence.Presence, error) {
	var (
		presence                   persistence.Presence
		date, createdAt, updatedAt string
	)
	err := row.Scan(&presence.ID, &presence.UserID, &date, &presence.Mode, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Presence{}, persistence.ErrNotFound
		}
		return persistence.Presence{}, r.mapper.MapError(err)
	}
	if presence.Date, err = parseDate("date", date); err != nil {
		return persistence.Presence{}, err
	}
	if presence.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Presence{}, err
	}
	if presence.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Presence{}, err
	}
	return presence, nil
}

func presenceArgs(presence persistence.Presence) []any {
	return []any{
		presence.ID,
		presence.UserID,
		presence.Date.String(),
		presence.Mode,
		formatTimestamp(presence.CreatedAt),
		formatTimestamp(presence.UpdatedAt),
	}
}
