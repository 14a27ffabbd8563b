package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
)

type presenceService interface {
	GetPresence(ctx context.Context, principal application.Principal, date calendar.Date) (application.Presence, error)
	SetPresence(ctx context.Context, params application.SetPresenceParams) (application.Presence, error)
	Month(ctx context.Context, principal application.Principal, year int, month time.Month) (application.PresenceMonth, error)
	Summary(ctx context.Context, principal application.Principal, date calendar.Date) (application.PresenceSummary, error)
}

type transitionService interface {
	ConfirmDayTransition(ctx context.Context, params application.SetPresenceParams) (application.DayTransitionResult, error)
	ApplyBulkTransition(ctx context.Context, params application.BulkPresenceParams) (application.BulkTransitionResult, error)
}

// PresenceHandler serves the presence calendar. Mode changes that cancel
// reservations go through the transition service.
type PresenceHandler struct {
	presence    presenceService
	transitions transitionService
	responder   responder
	logger      *slog.Logger
}

func NewPresenceHandler(presence presenceService, transitions transitionService, logger *slog.Logger) *PresenceHandler {
	base := defaultLogger(logger)
	return &PresenceHandler{presence: presence, transitions: transitions, responder: newResponder(base), logger: base}
}

func (h *PresenceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PresenceHandler", operation, attrs...)
}

func (h *PresenceHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.presence == nil || h.transitions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Get handles GET /presence?date=.
func (h *PresenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date, err := requiredDate("date", r.URL.Query().Get("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	presence, err := h.presence.GetPresence(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "Get", "date", date.String()).ErrorContext(r.Context(), "presence lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPresenceDTO(presence))
}

// Set handles PUT /presence. Existing reservations are left in place.
func (h *PresenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	params, ok := h.decodeDayChange(w, r, "Set")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Set", "date", params.Date.String(), "mode", string(params.Mode))
	presence, err := h.presence.SetPresence(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "presence update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "presence updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPresenceDTO(presence))
}

// Transition handles POST /presence/transition: the day's reservations are
// cancelled before the new mode is stored.
func (h *PresenceHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	params, ok := h.decodeDayChange(w, r, "Transition")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Transition", "date", params.Date.String(), "mode", string(params.Mode))
	result, err := h.transitions.ConfirmDayTransition(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "presence transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "presence transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, transitionResponse{
		Presence:  toPresenceDTO(result.Presence),
		Cancelled: toCancelDayDTO(result.Cancelled),
	})
}

// Bulk handles POST /presence/bulk. Without confirm, a change that would
// cancel reservations answers 409 with the conflicting dates.
func (h *PresenceHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bulkPresenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Bulk", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode bulk request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Bulk", "requested", len(req.Dates), "mode", string(mode), "confirmed", req.Confirm)
	result, err := h.transitions.ApplyBulkTransition(r.Context(), application.BulkPresenceParams{
		Principal: principal,
		Dates:     req.Dates,
		Mode:      mode,
		Confirmed: req.Confirm,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk presence failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "bulk presence applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bulkPresenceResponse{
		Dates:     result.Dates,
		Mode:      result.Mode,
		Cancelled: cancelCountsDTO{Desk: result.Cancelled.Desk, Parking: result.Cancelled.Parking},
	})
}

// Month handles GET /presence/month?year=&month=.
func (h *PresenceHandler) Month(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	year, err := requiredInt("year", query.Get("year"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	month, err := requiredInt("month", query.Get("month"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	calendarMonth, err := h.presence.Month(r.Context(), principal, year, time.Month(month))
	if err != nil {
		h.log(r.Context(), "Month", "year", year, "month", month).ErrorContext(r.Context(), "month lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]presenceDTO, 0, len(calendarMonth.Entries))
	for _, record := range calendarMonth.Entries {
		out = append(out, toPresenceDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthResponse{
		Year:     year,
		Month:    month,
		Entries:  out,
		OpenDays: calendarMonth.Open,
	})
}

// Summary handles GET /presence/summary?date=.
func (h *PresenceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	date, err := requiredDate("date", r.URL.Query().Get("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	summary, err := h.presence.Summary(r.Context(), principal, date)
	if err != nil {
		h.log(r.Context(), "Summary", "date", date.String()).ErrorContext(r.Context(), "summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, summaryResponse{
		Date:   summary.Date,
		Office: toSummaryPeople(summary.Office),
		Home:   toSummaryPeople(summary.Home),
		Absent: toSummaryPeople(summary.Absent),
		Counts: summaryCountsDTO{
			Total:      summary.Counts.Total,
			TotalDesks: summary.Counts.TotalDesks,
			Office:     summary.Counts.Office,
			Home:       summary.Counts.Home,
			Absent:     summary.Counts.Absent,
		},
	})
}

func (h *PresenceHandler) decodeDayChange(w http.ResponseWriter, r *http.Request, operation string) (application.SetPresenceParams, bool) {
	principal, _ := PrincipalFromContext(r.Context())

	var req presenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode presence request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return application.SetPresenceParams{}, false
	}
	date, err := requiredDate("date", req.Date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.SetPresenceParams{}, false
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.SetPresenceParams{}, false
	}
	return application.SetPresenceParams{Principal: principal, Date: date, Mode: mode}, true
}

type presenceRequest struct {
	Date string `json:"date"`
	Mode string `json:"mode"`
}

type bulkPresenceRequest struct {
	Dates   []string `json:"dates"`
	Mode    string   `json:"mode"`
	Confirm bool     `json:"confirm"`
}

type transitionResponse struct {
	Presence  presenceDTO  `json:"presence"`
	Cancelled cancelDayDTO `json:"cancelled"`
}

type bulkPresenceResponse struct {
	Dates     []calendar.Date          `json:"dates"`
	Mode      application.PresenceMode `json:"mode"`
	Cancelled cancelCountsDTO          `json:"cancelled"`
}

type monthResponse struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Entries  []presenceDTO   `json:"entries"`
	OpenDays []calendar.Date `json:"openDays"`
}

type summaryPersonDTO struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	DeskCode string `json:"deskCode,omitempty"`
}

type summaryCountsDTO struct {
	Total      int `json:"total"`
	TotalDesks int `json:"totalDesks"`
	Office     int `json:"office"`
	Home       int `json:"home"`
	Absent     int `json:"absent"`
}

type summaryResponse struct {
	Date   calendar.Date      `json:"date"`
	Office []summaryPersonDTO `json:"office"`
	Home   []summaryPersonDTO `json:"home"`
	Absent []summaryPersonDTO `json:"absent"`
	Counts summaryCountsDTO   `json:"counts"`
}

func toSummaryPeople(people []application.SummaryPerson) []summaryPersonDTO {
	out := make([]summaryPersonDTO, 0, len(people))
	for _, person := range people {
		out = append(out, summaryPersonDTO{UserID: person.UserID, Name: person.Name, DeskCode: person.DeskCode})
	}
	return out
}
