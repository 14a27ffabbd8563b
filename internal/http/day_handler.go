package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
)

type dayReservationService interface {
	DayReservations(ctx context.Context, principal application.Principal, date calendar.Date) (application.DayReservations, error)
	CancelDay(ctx context.Context, principal application.Principal, date calendar.Date) (application.CancelDayResult, error)
	CheckBulk(ctx context.Context, principal application.Principal, rawDates []string) ([]application.DayConflict, error)
	CancelDates(ctx context.Context, principal application.Principal, rawDates []string) (application.CancelCounts, error)
}

// DayHandler serves the caller's reservations across both ledgers by day.
type DayHandler struct {
	service   dayReservationService
	responder responder
	logger    *slog.Logger
}

func NewDayHandler(service dayReservationService, logger *slog.Logger) *DayHandler {
	base := defaultLogger(logger)
	return &DayHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DayHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DayHandler", operation, attrs...)
}

// Get handles GET /reservations/my-daily?date=.
func (h *DayHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	day, err := h.service.DayReservations(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "Get", "date", date.String()).ErrorContext(r.Context(), "day lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayReservationsResponse{
		Date:    day.Date,
		Desk:    optionalReservationDTO(day.Desk),
		Parking: optionalReservationDTO(day.Parking),
		HasAny:  day.HasAny(),
	})
}

// Cancel handles DELETE /reservations/my-daily?date=.
func (h *DayHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	logger := h.log(r.Context(), "Cancel", "date", date.String())
	result, err := h.service.CancelDay(r.Context(), principal, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "day cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "day cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCancelDayDTO(result))
}

// CheckBulk handles POST /reservations/check-bulk.
func (h *DayHandler) CheckBulk(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req datesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "CheckBulk", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode dates", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	conflicts, err := h.service.CheckBulk(r.Context(), principal, req.Dates)
	if err != nil {
		h.log(r.Context(), "CheckBulk", "requested", len(req.Dates)).ErrorContext(r.Context(), "bulk check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkBulkResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    toConflictDTOs(conflicts),
	})
}

// CancelDates handles DELETE /reservations/bulk-daily.
func (h *DayHandler) CancelDates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var req datesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "CancelDates", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode dates", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CancelDates", "requested", len(req.Dates))
	counts, err := h.service.CancelDates(r.Context(), principal, req.Dates)
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "dates cancelled", "desk", counts.Desk, "parking", counts.Parking)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, cancelDatesResponse{
		Cancelled: cancelCountsDTO{Desk: counts.Desk, Parking: counts.Parking},
	})
}

type datesRequest struct {
	Dates []string `json:"dates"`
}

type dayReservationsResponse struct {
	Date    calendar.Date   `json:"date"`
	Desk    *reservationDTO `json:"desk"`
	Parking *reservationDTO `json:"parking"`
	HasAny  bool            `json:"hasAny"`
}

type checkBulkResponse struct {
	HasConflicts bool          `json:"hasConflicts"`
	Conflicts    []conflictDTO `json:"conflicts"`
}

type cancelDatesResponse struct {
	Cancelled cancelCountsDTO `json:"cancelled"`
}
