package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/ledger"
)

type inventoryService interface {
	Kind() ledger.Kind
	CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	DeleteResource(ctx context.Context, principal application.Principal, resourceID string) error
	GetResource(ctx context.Context, principal application.Principal, resourceID string) (application.Resource, error)
	ListResources(ctx context.Context, principal application.Principal, activeOnly bool) ([]application.Resource, error)
}

// InventoryHandler administers the desks or the parking spots.
type InventoryHandler struct {
	service   inventoryService
	responder responder
	logger    *slog.Logger
}

func NewInventoryHandler(service inventoryService, logger *slog.Logger) *InventoryHandler {
	base := defaultLogger(logger)
	return &InventoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *InventoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	if h.service != nil {
		attrs = append(attrs, "kind", h.service.Kind())
	}
	return handlerLogger(ctx, h.logger, "InventoryHandler", operation, attrs...)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input: application.ResourceInput{
			Code:          derefString(req.Code),
			Name:          derefString(req.Name),
			LocationLabel: req.LocationLabel,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(r.PathValue("id"))
	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID)

	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:     principal,
		ResourceID:    resourceID,
		Code:          req.Code,
		Name:          req.Name,
		LocationLabel: req.LocationLabel,
		Active:        req.Active,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(r.PathValue("id"))
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "resource_id", resourceID)
	if err := h.service.DeleteResource(r.Context(), principal, resourceID); err != nil {
		logger.ErrorContext(r.Context(), "resource delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(r.PathValue("id"))
	principal, _ := PrincipalFromContext(r.Context())
	resource, err := h.service.GetResource(r.Context(), principal, resourceID)
	if err != nil {
		h.log(r.Context(), "Get", "resource_id", resourceID).ErrorContext(r.Context(), "resource lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

// List returns the whole inventory, or only active resources with
// ?activeOnly=true.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	activeOnly := optionalBool(r.URL.Query().Get("activeOnly"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "active_only", activeOnly)

	resources, err := h.service.ListResources(r.Context(), principal, activeOnly)
	if err != nil {
		logger.ErrorContext(r.Context(), "resource list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: out})
}

type resourceRequest struct {
	Code          *string `json:"code"`
	Name          *string `json:"name"`
	LocationLabel *string `json:"locationLabel"`
	Active        *bool   `json:"active"`
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type resourceDTO struct {
	ID               string      `json:"id"`
	Kind             ledger.Kind `json:"type"`
	Code             string      `json:"code"`
	Name             string      `json:"name"`
	LocationLabel    *string     `json:"locationLabel,omitempty"`
	Active           bool        `json:"active"`
	ReservationCount int         `json:"reservationCount"`
	CreatedAt        string      `json:"createdAt,omitempty"`
	UpdatedAt        string      `json:"updatedAt,omitempty"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	return resourceDTO{
		ID:               resource.ID,
		Kind:             resource.Kind,
		Code:             resource.Code,
		Name:             resource.Name,
		LocationLabel:    resource.LocationLabel,
		Active:           resource.Active,
		ReservationCount: resource.ReservationCount,
		CreatedAt:        formatTime(resource.CreatedAt),
		UpdatedAt:        formatTime(resource.UpdatedAt),
	}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
