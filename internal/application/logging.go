package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/desk-booking/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

var errorKinds = []struct {
	err  error
	kind string
}{
	// Wrapping errors first so their own kind wins over the cause.
	{ErrPartialFailure, "partial_failure"},
	{ErrConfirmationRequired, "confirmation_required"},
	{ErrHasFutureReservations, "has_future_reservations"},
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
	{ErrNotFound, "not_found"},
	{ErrPastDate, "past_date"},
	{ErrResourceUnavailable, "resource_unavailable"},
	{ErrPresenceRequired, "presence_required"},
	{ErrResourceAlreadyBooked, "resource_already_booked"},
	{ErrUserAlreadyBooked, "user_already_booked"},
	{ErrConflict, "conflict"},
	{ErrDuplicateCode, "duplicate_code"},
	{ErrDuplicateEmail, "duplicate_email"},
	{ErrSelfProtection, "self_protection"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrAccountDisabled, "account_disabled"},
	{ErrSessionExpired, "session_expired"},
	{ErrSessionRevoked, "session_revoked"},
}

// ErrorKind maps sentinel and typed errors to a stable label used in logs and
// transport error codes.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, candidate := range errorKinds {
		if errors.Is(err, candidate.err) {
			return candidate.kind
		}
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
