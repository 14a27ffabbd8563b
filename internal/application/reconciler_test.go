package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

// reconcilerFixture books desk and parking for jan on the given office days.
func reconcilerFixture(t *testing.T, days ...string) *bookingFixture {
	t.Helper()

	fx := newBookingFixture()
	fx.store.addUser("jan", "Jan", RoleUser)
	fx.store.addUser("anna", "Anna", RoleUser)
	fx.store.addResource(ledger.KindDesk, "d1", "A-01", true)
	fx.store.addResource(ledger.KindParking, "p1", "P-01", true)
	jan := Principal{UserID: "jan"}
	for _, raw := range days {
		date := calendar.MustParse(raw)
		fx.store.setMode("jan", date, ModeOffice)
		if _, err := fx.bookings[ledger.KindDesk].Reserve(context.Background(), ReserveParams{Principal: jan, ResourceID: "d1", Date: date}); err != nil {
			t.Fatalf("desk Reserve failed: %v", err)
		}
		if _, err := fx.bookings[ledger.KindParking].Reserve(context.Background(), ReserveParams{Principal: jan, ResourceID: "p1", Date: date}); err != nil {
			t.Fatalf("parking Reserve failed: %v", err)
		}
	}
	return fx
}

func TestReconciler_DayReservations(t *testing.T) {
	t.Parallel()

	fx := reconcilerFixture(t, "2026-02-10")
	day, err := fx.reconciler.DayReservations(context.Background(), Principal{UserID: "jan"}, calendar.MustParse("2026-02-10"))
	if err != nil {
		t.Fatalf("DayReservations failed: %v", err)
	}
	if !day.HasAny() || day.Desk == nil || day.Desk.ResourceCode != "A-01" || day.Parking == nil || day.Parking.ResourceCode != "P-01" {
		t.Fatalf("unexpected day reservations: %#v", day)
	}

	other, err := fx.reconciler.DayReservations(context.Background(), Principal{UserID: "anna"}, calendar.MustParse("2026-02-10"))
	if err != nil {
		t.Fatalf("DayReservations failed: %v", err)
	}
	if other.HasAny() {
		t.Fatalf("expected no reservations for anna, got %#v", other)
	}
}

func TestReconciler_ConfirmDayTransition(t *testing.T) {
	t.Parallel()

	jan := Principal{UserID: "jan"}
	day := calendar.MustParse("2026-02-10")

	t.Run("leaving the office cancels both reservations", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-10")
		result, err := fx.reconciler.ConfirmDayTransition(context.Background(), SetPresenceParams{Principal: jan, Date: day, Mode: ModeHome})
		if err != nil {
			t.Fatalf("ConfirmDayTransition failed: %v", err)
		}
		if result.Cancelled.DeskCode != "A-01" || result.Cancelled.ParkingCode != "P-01" {
			t.Fatalf("expected cancelled codes, got %#v", result.Cancelled)
		}
		if result.Presence.Mode != ModeHome {
			t.Fatalf("expected HOME presence, got %#v", result.Presence)
		}
		if fx.store.count(ledger.KindDesk) != 0 || fx.store.count(ledger.KindParking) != 0 {
			t.Fatalf("expected both ledgers to be empty")
		}
	})

	t.Run("confirming office keeps reservations", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-10")
		result, err := fx.reconciler.ConfirmDayTransition(context.Background(), SetPresenceParams{Principal: jan, Date: day, Mode: ModeOffice})
		if err != nil {
			t.Fatalf("ConfirmDayTransition failed: %v", err)
		}
		if result.Cancelled.DeskCode != "" || fx.store.count(ledger.KindDesk) != 1 {
			t.Fatalf("expected nothing to be cancelled, got %#v", result.Cancelled)
		}
	})

	t.Run("past dates change nothing", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-10")
		_, err := fx.reconciler.ConfirmDayTransition(context.Background(), SetPresenceParams{Principal: jan, Date: calendar.MustParse("2026-02-06"), Mode: ModeHome})
		if !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
		if fx.store.deleteCalls != 0 {
			t.Fatalf("expected no deletion attempt")
		}
	})

	t.Run("reports partial failure when presence update fails", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-10")
		fx.store.upsertErr = errors.New("disk full")

		_, err := fx.reconciler.ConfirmDayTransition(context.Background(), SetPresenceParams{Principal: jan, Date: day, Mode: ModeAbsent})
		var partial *PartialFailureError
		if !errors.As(err, &partial) {
			t.Fatalf("expected PartialFailureError, got %v", err)
		}
		if partial.CancelledDesk != 1 || partial.CancelledParking != 1 {
			t.Fatalf("unexpected counts: %#v", partial)
		}
		if ErrorKind(err) != "partial_failure" {
			t.Fatalf("expected partial_failure kind, got %s", ErrorKind(err))
		}
	})
}

func TestReconciler_CancelDay(t *testing.T) {
	t.Parallel()

	fx := reconcilerFixture(t, "2026-02-10", "2026-02-11")
	result, err := fx.reconciler.CancelDay(context.Background(), Principal{UserID: "jan"}, calendar.MustParse("2026-02-11"))
	if err != nil {
		t.Fatalf("CancelDay failed: %v", err)
	}
	if result.DeskCode != "A-01" || result.ParkingCode != "P-01" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if fx.store.count(ledger.KindDesk) != 1 || fx.store.count(ledger.KindParking) != 1 {
		t.Fatalf("expected the other day to survive")
	}
	if mode, _ := fx.store.mode("jan", calendar.MustParse("2026-02-11")); mode != ModeOffice {
		t.Fatalf("expected presence to stay OFFICE, got %q", mode)
	}
}

func TestReconciler_CheckBulkAndCancelDates(t *testing.T) {
	t.Parallel()

	fx := reconcilerFixture(t, "2026-02-12", "2026-02-10")
	jan := Principal{UserID: "jan"}

	conflicts, err := fx.reconciler.CheckBulk(context.Background(), jan, []string{"2026-02-13", "2026-02-12", "2026-02-10"})
	if err != nil {
		t.Fatalf("CheckBulk failed: %v", err)
	}
	if len(conflicts) != 2 || conflicts[0].Date.String() != "2026-02-10" || conflicts[1].DeskCode != "A-01" || conflicts[1].ParkingCode != "P-01" {
		t.Fatalf("unexpected conflicts: %#v", conflicts)
	}

	counts, err := fx.reconciler.CancelDates(context.Background(), jan, []string{"2026-02-12"})
	if err != nil {
		t.Fatalf("CancelDates failed: %v", err)
	}
	if counts.Desk != 1 || counts.Parking != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}

	if _, err := fx.reconciler.CheckBulk(context.Background(), jan, []string{"nope"}); err == nil {
		t.Fatalf("expected validation error for malformed date")
	}
}

func TestReconciler_ApplyBulkTransition(t *testing.T) {
	t.Parallel()

	jan := Principal{UserID: "jan"}
	dates := []string{"2026-02-10", "2026-02-11", "2026-02-12"}

	t.Run("asks for confirmation without changing anything", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11")
		_, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{Principal: jan, Dates: dates, Mode: ModeHome})
		var confirm *ConfirmationRequiredError
		if !errors.As(err, &confirm) {
			t.Fatalf("expected ConfirmationRequiredError, got %v", err)
		}
		if len(confirm.Conflicts) != 1 || confirm.Conflicts[0].DeskCode != "A-01" {
			t.Fatalf("unexpected conflicts: %#v", confirm.Conflicts)
		}
		if fx.store.count(ledger.KindDesk) != 1 {
			t.Fatalf("expected reservations to survive")
		}
		if mode, _ := fx.store.mode("jan", calendar.MustParse("2026-02-11")); mode != ModeOffice {
			t.Fatalf("expected presence to stay OFFICE, got %q", mode)
		}
	})

	t.Run("confirmed transition cancels and writes", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11", "2026-02-12")
		result, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{Principal: jan, Dates: dates, Mode: ModeAbsent, Confirmed: true})
		if err != nil {
			t.Fatalf("ApplyBulkTransition failed: %v", err)
		}
		if result.Cancelled.Desk != 2 || result.Cancelled.Parking != 2 || len(result.Dates) != 3 {
			t.Fatalf("unexpected result: %#v", result)
		}
		for _, raw := range dates {
			if mode, _ := fx.store.mode("jan", calendar.MustParse(raw)); mode != ModeAbsent {
				t.Fatalf("expected ABSENT on %s, got %q", raw, mode)
			}
		}
	})

	t.Run("office transition never cancels", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11")
		result, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{Principal: jan, Dates: dates, Mode: ModeOffice})
		if err != nil {
			t.Fatalf("ApplyBulkTransition failed: %v", err)
		}
		if result.Cancelled.Desk != 0 || fx.store.deleteCalls != 0 {
			t.Fatalf("expected no cancellation, got %#v", result.Cancelled)
		}
	})

	t.Run("past date rejects the batch before cancelling", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11")
		_, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{
			Principal: jan,
			Dates:     []string{"2026-02-11", "2026-02-05"},
			Mode:      ModeHome,
			Confirmed: true,
		})
		if !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
		if fx.store.count(ledger.KindDesk) != 1 || fx.store.deleteCalls != 0 {
			t.Fatalf("expected nothing to change")
		}
	})

	t.Run("presence failure after cleanup is a partial failure", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11")
		fx.store.upsertErr = errors.New("disk full")
		_, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{Principal: jan, Dates: dates, Mode: ModeHome, Confirmed: true})
		var partial *PartialFailureError
		if !errors.As(err, &partial) || partial.CancelledDesk != 1 || partial.CancelledParking != 1 {
			t.Fatalf("expected PartialFailureError, got %v", err)
		}
	})

	t.Run("cleanup failure leaves presence untouched", func(t *testing.T) {
		t.Parallel()

		fx := reconcilerFixture(t, "2026-02-11")
		fx.store.batchDeleteErr = errors.New("locked")
		_, err := fx.reconciler.ApplyBulkTransition(context.Background(), BulkPresenceParams{Principal: jan, Dates: dates, Mode: ModeHome, Confirmed: true})
		if err == nil || errors.Is(err, ErrPartialFailure) {
			t.Fatalf("expected plain failure, got %v", err)
		}
		if mode, _ := fx.store.mode("jan", calendar.MustParse("2026-02-11")); mode != ModeOffice {
			t.Fatalf("expected presence to stay OFFICE, got %q", mode)
		}
	})
}
