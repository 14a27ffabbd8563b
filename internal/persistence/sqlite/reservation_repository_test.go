package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
)

func TestReservationRepository_Reserve(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "jan", "Jan")
	seedUser(t, store, "anna", "Anna")
	seedResource(t, store, ledger.KindDesk, "a01", "A-01")
	seedResource(t, store, ledger.KindDesk, "o01", "O-01")
	seedResource(t, store, ledger.KindParking, "p01", "P-01")

	created, err := reserve(ctx, store, ledger.KindDesk, "r1", "jan", "a01", "2026-02-10")
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if created.ResourceCode != "A-01" || created.UserName != "Jan" || created.Kind != ledger.KindDesk {
		t.Fatalf("expected joined details, got %+v", created)
	}

	t.Run("resource taken", func(t *testing.T) {
		_, err := reserve(ctx, store, ledger.KindDesk, "r2", "anna", "a01", "2026-02-10")
		if !errors.Is(err, persistence.ErrResourceSlotTaken) {
			t.Fatalf("expected ErrResourceSlotTaken, got %v", err)
		}
	})

	t.Run("user already booked", func(t *testing.T) {
		_, err := reserve(ctx, store, ledger.KindDesk, "r3", "jan", "o01", "2026-02-10")
		if !errors.Is(err, persistence.ErrUserSlotTaken) {
			t.Fatalf("expected ErrUserSlotTaken, got %v", err)
		}
	})

	t.Run("ledgers are independent", func(t *testing.T) {
		if _, err := reserve(ctx, store, ledger.KindParking, "r4", "jan", "p01", "2026-02-10"); err != nil {
			t.Fatalf("parking reservation should not collide with desk ledger: %v", err)
		}
	})

	t.Run("other day is free", func(t *testing.T) {
		if _, err := reserve(ctx, store, ledger.KindDesk, "r5", "anna", "a01", "2026-02-11"); err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}
	})

	t.Run("inactive or missing resource", func(t *testing.T) {
		desk, err := store.Resources(ledger.KindDesk).GetResource(ctx, "o01")
		if err != nil {
			t.Fatalf("GetResource failed: %v", err)
		}
		desk.Active = false
		if err := store.Resources(ledger.KindDesk).UpdateResource(ctx, desk); err != nil {
			t.Fatalf("UpdateResource failed: %v", err)
		}
		if _, err := reserve(ctx, store, ledger.KindDesk, "r6", "anna", "o01", "2026-02-12"); !errors.Is(err, persistence.ErrResourceInactive) {
			t.Fatalf("expected ErrResourceInactive, got %v", err)
		}
		if _, err := reserve(ctx, store, ledger.KindDesk, "r7", "anna", "ghost", "2026-02-12"); !errors.Is(err, persistence.ErrResourceInactive) {
			t.Fatalf("expected ErrResourceInactive for missing desk, got %v", err)
		}
	})

	t.Run("delete twice", func(t *testing.T) {
		if err := store.Reservations(ledger.KindDesk).DeleteReservation(ctx, "r5"); err != nil {
			t.Fatalf("DeleteReservation failed: %v", err)
		}
		if err := store.Reservations(ledger.KindDesk).DeleteReservation(ctx, "r5"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReservationRepository_UniqueViolationMapping(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "jan", "Jan")
	seedUser(t, store, "anna", "Anna")
	seedResource(t, store, ledger.KindParking, "p01", "P-01")
	seedResource(t, store, ledger.KindParking, "p02", "P-02")
	if _, err := reserve(ctx, store, ledger.KindParking, "r1", "jan", "p01", "2026-02-10"); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	repo := store.Reservations(ledger.KindParking)
	insert := `INSERT INTO parking_reservations (id, user_id, resource_id, date, created_at) VALUES (?, ?, ?, '2026-02-10', '2026-02-09T08:30:00Z')`

	cases := []struct {
		name             string
		id, user, spotID string
		want             error
	}{
		{name: "resource", id: "x1", user: "anna", spotID: "p01", want: persistence.ErrResourceSlotTaken},
		{name: "user", id: "x2", user: "jan", spotID: "p02", want: persistence.ErrUserSlotTaken},
		{name: "primary key", id: "r1", user: "anna", spotID: "p02", want: persistence.ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Pool().DB().ExecContext(ctx, insert, tc.id, tc.user, tc.spotID)
			if err == nil {
				t.Fatal("expected the raw insert to violate a constraint")
			}
			if mapped := repo.mapInsertError(err); !errors.Is(mapped, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, mapped)
			}
		})
	}
}

func TestReservationRepository_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	store := newFileTestStore(t)
	const workers = 8
	for i := 0; i < workers; i++ {
		seedUser(t, store, fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i))
		seedResource(t, store, ledger.KindDesk, fmt.Sprintf("d%d", i), fmt.Sprintf("D-%02d", i))
	}

	run := func(t *testing.T, date string, pick func(i int) (user, desk string)) (successes int, errs []error) {
		t.Helper()
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				user, desk := pick(i)
				_, err := reserve(ctx, store, ledger.KindDesk, fmt.Sprintf("%s-%d", date, i), user, desk, date)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
					return
				}
				errs = append(errs, err)
			}(i)
		}
		wg.Wait()
		return successes, errs
	}

	t.Run("one resource many users", func(t *testing.T) {
		successes, errs := run(t, "2026-02-16", func(i int) (string, string) { return fmt.Sprintf("u%d", i), "d0" })
		if successes != 1 {
			t.Fatalf("expected exactly one success, got %d (errors: %v)", successes, errs)
		}
		for _, err := range errs {
			if !errors.Is(err, persistence.ErrResourceSlotTaken) {
				t.Fatalf("expected ErrResourceSlotTaken, got %v", err)
			}
		}
	})

	t.Run("one user many resources", func(t *testing.T) {
		successes, errs := run(t, "2026-02-17", func(i int) (string, string) { return "u0", fmt.Sprintf("d%d", i) })
		if successes != 1 {
			t.Fatalf("expected exactly one success, got %d (errors: %v)", successes, errs)
		}
		for _, err := range errs {
			if !errors.Is(err, persistence.ErrUserSlotTaken) {
				t.Fatalf("expected ErrUserSlotTaken, got %v", err)
			}
		}
	})
}

func TestReservationRepository_Listings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "jan", "Jan")
	seedUser(t, store, "anna", "Anna")
	seedResource(t, store, ledger.KindDesk, "b01", "B-01")
	seedResource(t, store, ledger.KindDesk, "a01", "A-01")

	mustReserve := func(id, user, desk, date string) {
		t.Helper()
		if _, err := reserve(ctx, store, ledger.KindDesk, id, user, desk, date); err != nil {
			t.Fatalf("Reserve(%s) failed: %v", id, err)
		}
	}
	mustReserve("r1", "jan", "b01", "2026-02-10")
	mustReserve("r2", "anna", "a01", "2026-02-10")
	mustReserve("r3", "jan", "a01", "2026-02-03")
	repo := store.Reservations(ledger.KindDesk)

	day, err := repo.ListReservationsForDate(ctx, calendar.MustParse("2026-02-10"))
	if err != nil {
		t.Fatalf("ListReservationsForDate failed: %v", err)
	}
	if len(day) != 2 || day[0].ResourceCode != "A-01" || day[1].ResourceCode != "B-01" {
		t.Fatalf("expected day ordered by code, got %+v", day)
	}

	mine, err := repo.ListReservationsForUser(ctx, "jan")
	if err != nil {
		t.Fatalf("ListReservationsForUser failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "r3" || mine[1].ID != "r1" {
		t.Fatalf("expected user reservations ordered by date, got %+v", mine)
	}

	filtered, err := repo.ListReservations(ctx, persistence.ReservationFilter{From: calendar.MustParse("2026-02-05"), UserID: "jan"})
	if err != nil {
		t.Fatalf("ListReservations failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "r1" {
		t.Fatalf("unexpected filtered reservations: %+v", filtered)
	}
}

func TestBatchRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "jan", "Jan")
	seedUser(t, store, "anna", "Anna")
	seedResource(t, store, ledger.KindDesk, "a01", "A-01")
	seedResource(t, store, ledger.KindParking, "p01", "P-01")

	for _, r := range []struct {
		kind          ledger.Kind
		id, user, res string
		date          string
	}{
		{ledger.KindDesk, "d1", "jan", "a01", "2026-02-10"},
		{ledger.KindParking, "p1", "jan", "p01", "2026-02-10"},
		{ledger.KindDesk, "d2", "jan", "a01", "2026-02-11"},
		{ledger.KindDesk, "d3", "anna", "a01", "2026-02-12"},
	} {
		if _, err := reserve(ctx, store, r.kind, r.id, r.user, r.res, r.date); err != nil {
			t.Fatalf("Reserve(%s) failed: %v", r.id, err)
		}
	}

	dates := []calendar.Date{calendar.MustParse("2026-02-10"), calendar.MustParse("2026-02-12")}
	found, err := store.Batch.ListUserReservationsOn(ctx, "jan", dates)
	if err != nil {
		t.Fatalf("ListUserReservationsOn failed: %v", err)
	}
	if len(found) != 2 || found[0].Kind != ledger.KindDesk || found[1].Kind != ledger.KindParking {
		t.Fatalf("expected desk then parking on 2026-02-10, got %+v", found)
	}

	removed, err := store.Batch.DeleteUserReservationsOn(ctx, "jan", dates)
	if err != nil {
		t.Fatalf("DeleteUserReservationsOn failed: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(removed))
	}

	if _, err := store.Reservations(ledger.KindDesk).GetReservation(ctx, "d2"); err != nil {
		t.Fatalf("reservation on another date must survive: %v", err)
	}
	if _, err := store.Reservations(ledger.KindDesk).GetReservation(ctx, "d3"); err != nil {
		t.Fatalf("another user's reservation must survive: %v", err)
	}
	if _, err := store.Reservations(ledger.KindParking).GetReservation(ctx, "p1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected parking reservation removed, got %v", err)
	}

	none, err := store.Batch.DeleteUserReservationsOn(ctx, "jan", nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no-op for empty dates, got %v, %v", none, err)
	}
}
