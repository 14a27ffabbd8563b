package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository for one ledger
// kind.
type ResourceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	tables ledgerTables
}

// NewResourceRepository creates the inventory repository of kind.
func NewResourceRepository(pool *ConnectionPool, kind ledger.Kind) (*ResourceRepository, error) {
	tables, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	return &ResourceRepository{pool: pool, mapper: NewErrorMapper(), tables: tables}, nil
}

// Kind returns the ledger kind served by the repository.
func (r *ResourceRepository) Kind() ledger.Kind {
	return r.tables.kind
}

// CreateResource inserts a resource. A duplicate code yields ErrDuplicate.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var (
		query string
		args  []any
	)
	if r.tables.hasLocation {
		query = fmt.Sprintf(`INSERT INTO %s (id, code, name, location_label, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`, r.tables.resources)
		args = []any{resource.ID, resource.Code, resource.Name, nullableString(resource.LocationLabel), boolToInt(resource.Active), formatTimestamp(resource.CreatedAt), formatTimestamp(resource.UpdatedAt)}
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (id, code, name, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`, r.tables.resources)
		args = []any{resource.ID, resource.Code, resource.Name, boolToInt(resource.Active), formatTimestamp(resource.CreatedAt), formatTimestamp(resource.UpdatedAt)}
	}

	_, err := r.pool.DB().ExecContext(ctx, query, args...)
	return r.mapper.MapError(err)
}

// UpdateResource replaces the mutable fields of a resource.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	var (
		query string
		args  []any
	)
	if r.tables.hasLocation {
		query = fmt.Sprintf(`UPDATE %s SET code = ?, name = ?, location_label = ?, active = ?, updated_at = ? WHERE id = ?`, r.tables.resources)
		args = []any{resource.Code, resource.Name, nullableString(resource.LocationLabel), boolToInt(resource.Active), formatTimestamp(resource.UpdatedAt), resource.ID}
	} else {
		query = fmt.Sprintf(`UPDATE %s SET code = ?, name = ?, active = ?, updated_at = ? WHERE id = ?`, r.tables.resources)
		args = []any{resource.Code, resource.Name, boolToInt(resource.Active), formatTimestamp(resource.UpdatedAt), resource.ID}
	}

	result, err := r.pool.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetResource retrieves a resource by ID, active or not.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, r.selectQuery()+` WHERE x.id = ?`, id)
	return r.scanResource(row)
}

// ListResources returns resources ordered by code, each with the number of
// reservations that reference it.
func (r *ResourceRepository) ListResources(ctx context.Context, activeOnly bool) ([]persistence.Resource, error) {
	query := r.selectQuery()
	if activeOnly {
		query += ` WHERE x.active = 1`
	}
	query += ` ORDER BY x.code`

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := r.scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

// DeleteResource removes the resource and its past reservations in one
// transaction, or reports how many reservations dated today or later block it.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string, today calendar.Date) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, r.tables.resources), id).Scan(&exists); err != nil {
			return r.mapper.MapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		var future int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE resource_id = ? AND date >= ?`, r.tables.reservations)
		if err := tx.QueryRowContext(ctx, countQuery, id, today.String()).Scan(&future); err != nil {
			return r.mapper.MapError(err)
		}
		if future > 0 {
			return &persistence.FutureReservationsError{Count: future}
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE resource_id = ?`, r.tables.reservations), id); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tables.resources), id); err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
}

func (r *ResourceRepository) selectQuery() string {
	return fmt.Sprintf(`
		SELECT x.id, x.code, x.name, %s, x.active, x.created_at, x.updated_at,
			(SELECT COUNT(*) FROM %s rv WHERE rv.resource_id = x.id)
		FROM %s x`, r.tables.locationColumn("x"), r.tables.reservations, r.tables.resources)
}

func (r *ResourceRepository) scanResource(row rowScanner) (persistence.Resource, error) {
	var (
		resource             persistence.Resource
		location             sql.NullString
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(&resource.ID, &resource.Code, &resource.Name, &location, &active, &createdAt, &updatedAt, &resource.ReservationCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Resource{}, persistence.ErrNotFound
		}
		return persistence.Resource{}, r.mapper.MapError(err)
	}
	resource.Kind = r.tables.kind
	resource.LocationLabel = stringPtr(location)
	resource.Active = active != 0
	if resource.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}
