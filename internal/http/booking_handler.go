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

type bookingService interface {
	Kind() ledger.Kind
	Reserve(ctx context.Context, params application.ReserveParams) (application.Reservation, error)
	Cancel(ctx context.Context, principal application.Principal, reservationID string) error
	ListMine(ctx context.Context, principal application.Principal) ([]application.Reservation, error)
	Grid(ctx context.Context, principal application.Principal, date calendar.Date) ([]application.GridEntry, error)
}

// BookingHandler serves one reservation ledger. Desk requests name the
// resource deskId, parking requests spotId.
type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	if h.service != nil {
		attrs = append(attrs, "kind", h.service.Kind())
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Grid handles GET /desks?date= and GET /parking?date=.
func (h *BookingHandler) Grid(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.service.Grid(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "Grid", "date", date.String()).ErrorContext(r.Context(), "grid failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]gridEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gridEntryDTO{
			ID:            entry.Resource.ID,
			Code:          entry.Resource.Code,
			Name:          entry.Resource.Name,
			LocationLabel: entry.Resource.LocationLabel,
			IsReserved:    entry.IsReserved,
			IsMine:        entry.IsMine,
			ReservedBy:    entry.ReservedBy,
			ReservationID: entry.ReservationID,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, gridResponse{Date: date, Kind: h.service.Kind(), Resources: out})
}

// Reserve handles POST /reservations and POST /parking/reservations.
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Reserve", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	resourceID := req.resourceID(h.service.Kind())
	if resourceID == "" {
		h.responder.handleServiceError(r.Context(), w, fieldError(resourceField(h.service.Kind()), resourceField(h.service.Kind())+" is required"))
		return
	}
	date, err := requiredDate("date", req.Date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Reserve", "resource_id", resourceID, "date", date.String())
	reservation, err := h.service.Reserve(r.Context(), application.ReserveParams{
		Principal:  principal,
		ResourceID: resourceID,
		Date:       date,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// Cancel handles DELETE /reservations/{id} and DELETE /parking/reservations/{id}.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservationID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(r.Context(), "Cancel", "reservation_id", reservationID)

	if err := h.service.Cancel(r.Context(), principal, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Mine handles GET /reservations/mine and GET /parking/reservations/mine.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Mine").ErrorContext(r.Context(), "listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

type reserveRequest struct {
	DeskID string `json:"deskId"`
	SpotID string `json:"spotId"`
	Date   string `json:"date"`
}

func (r reserveRequest) resourceID(kind ledger.Kind) string {
	if kind == ledger.KindParking {
		return strings.TrimSpace(r.SpotID)
	}
	return strings.TrimSpace(r.DeskID)
}

func resourceField(kind ledger.Kind) string {
	if kind == ledger.KindParking {
		return "spotId"
	}
	return "deskId"
}

type gridEntryDTO struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	LocationLabel *string `json:"locationLabel,omitempty"`
	IsReserved    bool    `json:"isReserved"`
	IsMine        bool    `json:"isMine"`
	ReservedBy    string  `json:"reservedBy,omitempty"`
	ReservationID string  `json:"reservationId,omitempty"`
}

type gridResponse struct {
	Date      calendar.Date  `json:"date"`
	Kind      ledger.Kind    `json:"type"`
	Resources []gridEntryDTO `json:"resources"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}
