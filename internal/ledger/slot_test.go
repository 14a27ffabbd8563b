package ledger

import (
	"errors"
	"testing"

	"github.com/example/desk-booking/internal/calendar"
)

func TestDetectConflicts(t *testing.T) {
	day := calendar.MustParse("2026-02-10")
	existing := []Entry{
		{ID: "r1", UserID: "jan", ResourceID: "A-01", Date: day},
		{ID: "r2", UserID: "anna", ResourceID: "A-02", Date: day},
		{ID: "r3", UserID: "jan", ResourceID: "A-01", Date: day.AddDays(1)},
	}

	t.Run("resource overlap produces conflict", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Entry{UserID: "oskar", ResourceID: "A-01", Date: day})
		if len(conflicts) != 1 {
			t.Fatalf("expected one conflict, got %v", conflicts)
		}
		if conflicts[0].Type != ConflictResource || conflicts[0].WithEntryID != "r1" {
			t.Fatalf("unexpected conflict: %+v", conflicts[0])
		}
	})

	t.Run("user overlap produces conflict", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Entry{UserID: "jan", ResourceID: "O-01", Date: day})
		if len(conflicts) != 1 || conflicts[0].Type != ConflictUser {
			t.Fatalf("expected a user conflict, got %v", conflicts)
		}
	})

	t.Run("resource conflicts are reported first", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Entry{UserID: "anna", ResourceID: "A-01", Date: day})
		if len(conflicts) != 2 {
			t.Fatalf("expected two conflicts, got %v", conflicts)
		}
		if conflicts[0].Type != ConflictResource || conflicts[1].Type != ConflictUser {
			t.Fatalf("unexpected ordering: %+v", conflicts)
		}
	})

	t.Run("other days yield no conflicts", func(t *testing.T) {
		if conflicts := DetectConflicts(existing, Entry{UserID: "jan", ResourceID: "A-01", Date: day.AddDays(2)}); conflicts != nil {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("entry does not conflict with itself", func(t *testing.T) {
		if conflicts := DetectConflicts(existing, existing[0]); conflicts != nil {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{"desk": KindDesk, "PARKING": KindParking, " Desk ": KindDesk} {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseKind("room"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if Kind("room").Valid() {
		t.Fatalf("unexpected valid kind")
	}
}
