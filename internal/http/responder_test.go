package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
)

func TestResponderHandleServiceError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&application.ValidationError{FieldErrors: map[string]string{"date": "date is required"}}, http.StatusBadRequest, "VALIDATION"},
		{application.ErrPastDate, http.StatusBadRequest, "PAST_DATE"},
		{application.ErrSelfProtection, http.StatusBadRequest, "SELF_PROTECTION"},
		{application.ErrPresenceRequired, http.StatusBadRequest, "PRESENCE_REQUIRED"},
		{application.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{application.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("lookup: %w", application.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{application.ErrResourceAlreadyBooked, http.StatusConflict, "RESOURCE_ALREADY_BOOKED"},
		{application.ErrUserAlreadyBooked, http.StatusConflict, "USER_ALREADY_BOOKED"},
		{application.ErrDuplicateCode, http.StatusConflict, "DUPLICATE_CODE"},
		{application.ErrDuplicateEmail, http.StatusConflict, "DUPLICATE_EMAIL"},
		{application.ErrResourceUnavailable, http.StatusUnprocessableEntity, "RESOURCE_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "UNEXPECTED"},
	}

	r := newResponder(discardLogger())
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()

			recorder := httptest.NewRecorder()
			r.handleServiceError(context.Background(), recorder, tc.err)
			if recorder.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, recorder.Code)
			}
			body := decodeError(t, recorder)
			if body.ErrorCode != tc.code || body.Message == "" {
				t.Fatalf("unexpected body %#v", body)
			}
		})
	}
}

func TestResponderDetails(t *testing.T) {
	t.Parallel()

	r := newResponder(discardLogger())

	t.Run("validation errors list fields", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		r.handleServiceError(context.Background(), recorder, &application.ValidationError{FieldErrors: map[string]string{"dates[2]": "weekend"}})
		if body := decodeError(t, recorder); body.Errors["dates[2]"] != "weekend" {
			t.Fatalf("expected field errors, got %#v", body)
		}
	})

	t.Run("future reservations carry the count", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		r.handleServiceError(context.Background(), recorder, &application.FutureReservationsError{Count: 3})
		body := decodeError(t, recorder)
		if recorder.Code != http.StatusConflict || body.ErrorCode != "HAS_FUTURE_RESERVATIONS" || body.Details["count"] != float64(3) {
			t.Fatalf("unexpected response %d %#v", recorder.Code, body)
		}
	})

	t.Run("confirmation lists conflicts", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		r.handleServiceError(context.Background(), recorder, &application.ConfirmationRequiredError{Conflicts: []application.DayConflict{
			{Date: calendar.MustParse("2026-02-10"), DeskCode: "A-01", ParkingCode: "P-01"},
		}})
		body := decodeBody(t, recorder)
		details := body["details"].(map[string]any)
		conflicts := details["conflicts"].([]any)
		first := conflicts[0].(map[string]any)
		if recorder.Code != http.StatusConflict || first["date"] != "2026-02-10" || first["deskCode"] != "A-01" {
			t.Fatalf("unexpected response %d %v", recorder.Code, body)
		}
	})

	t.Run("partial failure reports cancelled counts", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		r.handleServiceError(context.Background(), recorder, &application.PartialFailureError{CancelledDesk: 2, CancelledParking: 1, Err: errors.New("disk full")})
		body := decodeError(t, recorder)
		if recorder.Code != http.StatusInternalServerError || body.ErrorCode != "PARTIAL_FAILURE" {
			t.Fatalf("unexpected response %d %#v", recorder.Code, body)
		}
		if body.Details["cancelledDesk"] != float64(2) || body.Details["cancelledParking"] != float64(1) {
			t.Fatalf("expected cancelled counts, got %#v", body.Details)
		}
	})

	t.Run("no content writes no body", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		r.writeJSON(context.Background(), recorder, http.StatusNoContent, map[string]string{"ignored": "yes"})
		if recorder.Code != http.StatusNoContent || recorder.Body.Len() != 0 {
			t.Fatalf("expected empty 204, got %d %q", recorder.Code, recorder.Body.String())
		}
	})
}
