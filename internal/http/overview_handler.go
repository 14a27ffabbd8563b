package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

type overviewService interface {
	Office(ctx context.Context, principal application.Principal, date calendar.Date) (application.OfficeOverview, error)
	AdminReservations(ctx context.Context, principal application.Principal, filter application.AdminReservationFilter) (application.AdminReservations, error)
	AdminCancel(ctx context.Context, principal application.Principal, kind ledger.Kind, reservationID string) error
}

type OverviewHandler struct {
	service   overviewService
	responder responder
	logger    *slog.Logger
}

func NewOverviewHandler(service overviewService, logger *slog.Logger) *OverviewHandler {
	base := defaultLogger(logger)
	return &OverviewHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OverviewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "OverviewHandler", operation, attrs...)
}

// Office handles GET /office?date=.
func (h *OverviewHandler) Office(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date, err := requiredDate("date", r.URL.Query().Get("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	overview, err := h.service.Office(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "Office", "date", date.String()).ErrorContext(r.Context(), "office overview failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	people := make([]officePersonDTO, 0, len(overview.People))
	for _, person := range overview.People {
		people = append(people, officePersonDTO{Name: person.Name, DeskCode: person.DeskCode})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, officeResponse{
		Date:          overview.Date,
		ReservedCount: overview.ReservedCount,
		Capacity:      overview.Capacity,
		People:        people,
	})
}

// AdminReservations handles GET /admin/reservations with the optional
// filters type, dateFrom, dateTo, userId and search.
func (h *OverviewHandler) AdminReservations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	from, err := optionalDate("dateFrom", query.Get("dateFrom"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	to, err := optionalDate("dateTo", query.Get("dateTo"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	filter := application.AdminReservationFilter{
		Kind:   query.Get("type"),
		From:   from,
		To:     to,
		UserID: query.Get("userId"),
		Search: query.Get("search"),
	}
	logger := h.log(r.Context(), "AdminReservations", "principal_id", principal.UserID, "type", filter.Kind)

	result, err := h.service.AdminReservations(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "admin reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, adminReservationsResponse{
		DateFrom:     result.From,
		DateTo:       result.To,
		Reservations: toReservationDTOs(result.Reservations),
		Total:        result.Total(),
		DeskTotal:    result.DeskTotal,
		ParkingTotal: result.ParkingTotal,
	})
}

// AdminCancel handles DELETE /admin/reservations/{kind}/{id}.
func (h *OverviewHandler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	kind, err := ledger.ParseKind(r.PathValue("kind"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, fieldError("type", "type must be desk or parking"))
		return
	}
	reservationID := strings.TrimSpace(r.PathValue("id"))

	logger := h.log(r.Context(), "AdminCancel", "principal_id", principal.UserID, "kind", kind, "reservation_id", reservationID)
	if err := h.service.AdminCancel(r.Context(), principal, kind, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "admin cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled by administrator")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type officePersonDTO struct {
	Name     string `json:"name"`
	DeskCode string `json:"deskCode"`
}

type officeResponse struct {
	Date          calendar.Date     `json:"date"`
	ReservedCount int               `json:"reservedCount"`
	Capacity      int               `json:"capacity"`
	People        []officePersonDTO `json:"people"`
}

type adminReservationsResponse struct {
	DateFrom     calendar.Date    `json:"dateFrom"`
	DateTo       calendar.Date    `json:"dateTo"`
	Reservations []reservationDTO `json:"reservations"`
	Total        int              `json:"total"`
	DeskTotal    int              `json:"deskTotal"`
	ParkingTotal int              `json:"parkingTotal"`
}
