package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

const maxResourceCodeLength = 10

// InventoryService orchestrates validation, authorization, and persistence
// for the resources of one ledger kind.
type InventoryService struct {
	kind        ledger.Kind
	resources   ResourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewInventoryService constructs an inventory service with the provided dependencies.
func NewInventoryService(kind ledger.Kind, resources ResourceRepository, idGenerator func() string, now func() time.Time) *InventoryService {
	return NewInventoryServiceWithLogger(kind, resources, idGenerator, now, nil)
}

// NewInventoryServiceWithLogger constructs an inventory service with a specified logger.
func NewInventoryServiceWithLogger(kind ledger.Kind, resources ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *InventoryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &InventoryService{kind: kind, resources: resources, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Kind returns the ledger whose inventory the service manages.
func (s *InventoryService) Kind() ledger.Kind {
	return s.kind
}

func (s *InventoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	attrs = append([]any{"kind", string(s.kind)}, attrs...)
	return serviceLogger(ctx, s.logger, "InventoryService", operation, attrs...)
}

// CreateResource validates input and persists a new resource for administrators.
func (s *InventoryService) CreateResource(ctx context.Context, params CreateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("InventoryService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
		"code", params.Input.Code,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	code := strings.TrimSpace(params.Input.Code)
	name := strings.TrimSpace(params.Input.Name)
	vErr := &ValidationError{}
	vErr.merge(validateResourceCode(code))
	vErr.merge(validateResourceName(name))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	resource = Resource{
		ID:        s.idGenerator(),
		Kind:      s.kind,
		Code:      code,
		Name:      name,
		Active:    true,
		CreatedAt: s.now(),
	}
	resource.UpdatedAt = resource.CreatedAt
	if s.kind == ledger.KindDesk {
		resource.LocationLabel = normalizeOptionalString(params.Input.LocationLabel)
	}

	resource, err = s.resources.CreateResource(ctx, resource)
	if err != nil {
		err = mapInventoryError(err)
	}
	return
}

// UpdateResource applies a partial update for administrators.
func (s *InventoryService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("InventoryService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("code", resource.Code, "active", resource.Active).InfoContext(ctx, "resource updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	var existing Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapInventoryError(err)
		return
	}

	updated := existing
	vErr := &ValidationError{}
	if params.Code != nil {
		updated.Code = strings.TrimSpace(*params.Code)
		vErr.merge(validateResourceCode(updated.Code))
	}
	if params.Name != nil {
		updated.Name = strings.TrimSpace(*params.Name)
		vErr.merge(validateResourceName(updated.Name))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if params.LocationLabel != nil && s.kind == ledger.KindDesk {
		updated.LocationLabel = normalizeOptionalString(params.LocationLabel)
	}
	if params.Active != nil {
		updated.Active = *params.Active
	}
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	if err != nil {
		err = mapInventoryError(err)
	}
	return
}

// DeleteResource removes a resource with no reservations dated today or
// later, together with its past reservations.
func (s *InventoryService) DeleteResource(ctx context.Context, principal Principal, resourceID string) error {
	if s == nil {
		return fmt.Errorf("InventoryService is nil")
	}
	if s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteResource",
		"principal_id", principal.UserID,
		"resource_id", resourceID,
	)

	if err := s.resources.DeleteResource(ctx, resourceID, calendar.Today(s.now())); err != nil {
		err = mapInventoryError(err)
		logger.ErrorContext(ctx, "failed to delete resource", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "resource deleted")
	return nil
}

// GetResource returns one resource. Inactive resources are visible to administrators only.
func (s *InventoryService) GetResource(ctx context.Context, principal Principal, resourceID string) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("InventoryService is nil")
	}
	if !principal.authenticated() {
		return Resource{}, ErrUnauthorized
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return Resource{}, mapInventoryError(err)
	}
	if !resource.Active && !principal.IsAdmin {
		return Resource{}, ErrNotFound
	}
	return resource, nil
}

// ListResources returns the inventory ordered by code. Listing inactive
// resources requires an administrator.
func (s *InventoryService) ListResources(ctx context.Context, principal Principal, activeOnly bool) (resources []Resource, err error) {
	if s == nil {
		err = fmt.Errorf("InventoryService is nil")
		return
	}
	if !principal.authenticated() {
		err = ErrUnauthorized
		return
	}
	if !activeOnly && !principal.IsAdmin {
		err = ErrForbidden
		return
	}
	if s.resources == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListResources",
		"principal_id", principal.UserID,
		"active_only", activeOnly,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list resources", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(resources)).DebugContext(ctx, "resources listed")
	}()

	resources, err = s.resources.ListResources(ctx, activeOnly)
	if err != nil {
		err = mapInventoryError(err)
	}
	return
}

func validateResourceCode(code string) *ValidationError {
	vErr := &ValidationError{}
	switch {
	case code == "":
		vErr.add("code", "code is required")
	case utf8.RuneCountInString(code) > maxResourceCodeLength:
		vErr.add("code", fmt.Sprintf("code must be at most %d characters", maxResourceCodeLength))
	}
	return vErr
}

func validateResourceName(name string) *ValidationError {
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	return vErr
}

func mapInventoryError(err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrDuplicateCode
	}
	return mapRepoError(err)
}

func requireAdmin(principal Principal) error {
	if !principal.authenticated() {
		return ErrUnauthorized
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
