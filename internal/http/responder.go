package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errMissingSessionToken = errors.New("session token is required")
	errAdminRequired       = errors.New("administrator role required")
)

// statusByKind maps application error kinds to HTTP status codes. Kinds not
// listed render as 500.
var statusByKind = map[string]int{
	"validation":              http.StatusBadRequest,
	"past_date":               http.StatusBadRequest,
	"self_protection":         http.StatusBadRequest,
	"presence_required":       http.StatusBadRequest,
	"unauthorized":            http.StatusUnauthorized,
	"invalid_credentials":     http.StatusUnauthorized,
	"session_expired":         http.StatusUnauthorized,
	"session_revoked":         http.StatusUnauthorized,
	"account_disabled":        http.StatusUnauthorized,
	"forbidden":               http.StatusForbidden,
	"not_found":               http.StatusNotFound,
	"resource_already_booked": http.StatusConflict,
	"user_already_booked":     http.StatusConflict,
	"conflict":                http.StatusConflict,
	"duplicate_code":          http.StatusConflict,
	"duplicate_email":         http.StatusConflict,
	"has_future_reservations": http.StatusConflict,
	"confirmation_required":   http.StatusConflict,
	"resource_unavailable":    http.StatusUnprocessableEntity,
}

var messageByKind = map[string]string{
	"validation":              "The request contains invalid fields.",
	"past_date":               "Dates in the past cannot be changed.",
	"self_protection":         "You cannot demote, deactivate or delete your own account.",
	"presence_required":       "Declare office presence for this day before reserving.",
	"unauthorized":            "Authentication is required.",
	"invalid_credentials":     "Email or password is incorrect.",
	"session_expired":         "The session has expired. Please log in again.",
	"session_revoked":         "The session was logged out. Please log in again.",
	"account_disabled":        "The account is disabled.",
	"forbidden":               "You are not allowed to perform this operation.",
	"not_found":               "The requested item was not found.",
	"resource_already_booked": "This resource is already reserved for the day.",
	"user_already_booked":     "You already hold a reservation of this kind for the day.",
	"conflict":                "The request conflicts with the current state.",
	"duplicate_code":          "The code is already in use.",
	"duplicate_email":         "The email address is already registered.",
	"has_future_reservations": "Future reservations exist.",
	"confirmation_required":   "The change cancels existing reservations and must be confirmed.",
	"resource_unavailable":    "The resource does not exist or is inactive.",
	"partial_failure":         "Reservations were cancelled but presence was not updated.",
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError renders a transport level failure that never reached a service.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{
		ErrorCode: errorCodeForStatus(status),
		Message:   message,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	kind := application.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := errorResponse{
		ErrorCode: strings.ToUpper(kind),
		Message:   messageByKind[kind],
	}
	if resp.Message == "" {
		resp.Message = "An unexpected error occurred."
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		resp.Errors = vErr.FieldErrors
	}

	var future *application.FutureReservationsError
	if errors.As(err, &future) {
		resp.Details = map[string]any{"count": future.Count}
	}

	var confirm *application.ConfirmationRequiredError
	if errors.As(err, &confirm) {
		resp.Details = map[string]any{"conflicts": toConflictDTOs(confirm.Conflicts)}
	}

	var partial *application.PartialFailureError
	if errors.As(err, &partial) {
		resp.Details = map[string]any{
			"cancelledDesk":    partial.CancelledDesk,
			"cancelledParking": partial.CancelledParking,
		}
	}

	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", kind)
	}
	r.writeJSON(ctx, w, status, resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func errorCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "UNEXPECTED"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Details   map[string]any    `json:"details,omitempty"`
}
