package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/persistence"
)

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role, u.active, u.created_at, u.updated_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateUser inserts a new user. Emails are stored lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.Role,
		boolToInt(user.Active),
		formatTimestamp(user.CreatedAt),
		formatTimestamp(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser replaces the mutable fields of a user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		user.Name,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.Role,
		boolToInt(user.Active),
		formatTimestamp(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	return r.scanUser(row)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = ?`, normalized)
	return r.scanUser(row)
}

// ListUsers returns all users ordered by name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.name, u.id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListUserStats returns all users with their reservation counters. Upcoming
// reservations are those dated today or later across both ledgers.
func (r *UserRepository) ListUserStats(ctx context.Context, today calendar.Date) ([]persistence.UserStats, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT `+userColumns+`,
			(SELECT COUNT(*) FROM desk_reservations d WHERE d.user_id = u.id),
			(SELECT COUNT(*) FROM parking_reservations p WHERE p.user_id = u.id),
			(SELECT COUNT(*) FROM desk_reservations d WHERE d.user_id = u.id AND d.date >= ?)
				+ (SELECT COUNT(*) FROM parking_reservations p WHERE p.user_id = u.id AND p.date >= ?)
		FROM users u
		ORDER BY u.name, u.id`,
		today.String(), today.String(),
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stats []persistence.UserStats
	for rows.Next() {
		var (
			s                    persistence.UserStats
			active               int
			createdAt, updatedAt string
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &active, &createdAt, &updatedAt,
			&s.DeskReservations, &s.ParkingReservations, &s.UpcomingReservations,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		s.Active = active != 0
		if s.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		if s.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// DeleteUser removes the user with presences, past reservations and sessions in
// one transaction. Reservations dated today or later block the deletion.
func (r *UserRepository) DeleteUser(ctx context.Context, id string, today calendar.Date) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
			return r.mapper.MapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		future := 0
		for _, tables := range allLedgerTables() {
			var count int
			query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ? AND date >= ?`, tables.reservations)
			if err := tx.QueryRowContext(ctx, query, id, today.String()).Scan(&count); err != nil {
				return r.mapper.MapError(err)
			}
			future += count
		}
		if future > 0 {
			return &persistence.FutureReservationsError{Count: future}
		}

		statements := []string{
			`DELETE FROM presences WHERE user_id = ?`,
			`DELETE FROM desk_reservations WHERE user_id = ?`,
			`DELETE FROM parking_reservations WHERE user_id = ?`,
			`DELETE FROM sessions WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}
	user.Active = active != 0
	if user.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// normalizeEmail normalizes email addresses for consistent storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
