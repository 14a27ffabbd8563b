package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
)

const maxRequestBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	return decoder.Decode(dst)
}

func fieldError(field, message string) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

// requiredDate parses a mandatory YYYY-MM-DD value.
func requiredDate(field, value string) (calendar.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return calendar.Date{}, fieldError(field, field+" is required")
	}
	date, err := calendar.Parse(value)
	if err != nil {
		return calendar.Date{}, fieldError(field, field+" must be a YYYY-MM-DD date")
	}
	return date, nil
}

// optionalDate parses a YYYY-MM-DD value, returning the zero Date when empty.
func optionalDate(field, value string) (calendar.Date, error) {
	if strings.TrimSpace(value) == "" {
		return calendar.Date{}, nil
	}
	return requiredDate(field, value)
}

func requiredInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fieldError(field, field+" is required")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fieldError(field, field+" must be an integer")
	}
	return n, nil
}

func optionalBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func parseMode(value string) (application.PresenceMode, error) {
	mode, ok := application.ParsePresenceMode(value)
	if !ok {
		return "", fieldError("mode", "mode must be HOME, OFFICE or ABSENT")
	}
	return mode, nil
}
