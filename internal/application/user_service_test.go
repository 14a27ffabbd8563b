package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

type invalidatorSpy struct {
	forgotten []string
}

func (s *invalidatorSpy) ForgetUser(userID string) {
	s.forgotten = append(s.forgotten, userID)
}

func plainHasher(password string) (string, error) {
	return "hashed:" + password, nil
}

func newUserServiceFixture() (*UserService, *memoryStore, *invalidatorSpy) {
	store := newMemoryStore()
	store.addUser("admin", "Admin", RoleAdmin)
	store.addUser("jan", "Jan", RoleUser)
	svc := NewUserService(store, plainHasher, sequenceIDs("user"), fixedNow)
	spy := &invalidatorSpy{}
	svc.SetSessionInvalidator(spy)
	return svc, store, spy
}

func rolePtr(role Role) *Role { return &role }

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}

	t.Run("creates active user with default role", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newUserServiceFixture()
		user, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Name: " Anna ", Email: " Anna@Company.com ", Password: "password123"},
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.Name != "Anna" || user.Email != "anna@company.com" || user.Role != RoleUser || !user.Active {
			t.Fatalf("unexpected user: %#v", user)
		}
		if store.users[user.ID].PasswordHash != "hashed:password123" {
			t.Fatalf("expected hashed password to be stored")
		}
	})

	t.Run("validates every field", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newUserServiceFixture()
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Name: "A", Email: "not-an-email", Password: "short", Role: "OWNER"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "password", "role"} {
			if vErr.FieldErrors[field] == "" {
				t.Fatalf("expected %s error, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newUserServiceFixture()
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Name: "Jan Two", Email: "JAN@company.com", Password: "password123"},
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("requires administrator", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newUserServiceFixture()
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{UserID: "jan"},
			Input:     UserInput{Name: "Anna", Email: "anna@company.com", Password: "password123"},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}

	t.Run("applies partial update and forgets sessions", func(t *testing.T) {
		t.Parallel()

		svc, store, spy := newUserServiceFixture()
		user, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "jan",
			Role:      rolePtr(RoleAdmin),
			Active:    boolPtr(false),
		})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if user.Name != "Jan" || user.Role != RoleAdmin || user.Active {
			t.Fatalf("unexpected user: %#v", user)
		}
		if store.users["jan"].PasswordHash != "hash-jan" {
			t.Fatalf("expected password hash to be kept, got %q", store.users["jan"].PasswordHash)
		}
		if len(spy.forgotten) != 1 || spy.forgotten[0] != "jan" {
			t.Fatalf("expected cached sessions of jan to be forgotten, got %v", spy.forgotten)
		}
	})

	t.Run("rehashes new passwords", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newUserServiceFixture()
		if _, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "jan", Password: strPtr("new-secret")}); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if store.users["jan"].PasswordHash != "hashed:new-secret" {
			t.Fatalf("expected new hash, got %q", store.users["jan"].PasswordHash)
		}
	})

	t.Run("protects the acting administrator", func(t *testing.T) {
		t.Parallel()

		svc, _, spy := newUserServiceFixture()
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "admin", Active: boolPtr(false)})
		if !errors.Is(err, ErrSelfProtection) {
			t.Fatalf("expected ErrSelfProtection for deactivation, got %v", err)
		}
		_, err = svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "admin", Role: rolePtr(RoleUser)})
		if !errors.Is(err, ErrSelfProtection) {
			t.Fatalf("expected ErrSelfProtection for demotion, got %v", err)
		}
		if _, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "admin", Name: strPtr("Boss")}); err != nil {
			t.Fatalf("expected self rename to succeed, got %v", err)
		}
		if len(spy.forgotten) != 1 {
			t.Fatalf("expected only the successful update to forget sessions, got %v", spy.forgotten)
		}
	})

	t.Run("maps missing users", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newUserServiceFixture()
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: admin, UserID: "ghost", Name: strPtr("Ghost")})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}

	t.Run("refuses while future reservations exist", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newUserServiceFixture()
		store.addResource(ledger.KindDesk, "d1", "A-01", true)
		tomorrow := calendar.MustParse("2026-02-10")
		store.setMode("jan", tomorrow, ModeOffice)
		booking := NewBookingService(ledger.KindDesk, store.ledgers().Resources[ledger.KindDesk], store.ledgers().Reservations[ledger.KindDesk], store, sequenceIDs("r"), fixedNow)
		if _, err := booking.Reserve(context.Background(), ReserveParams{Principal: Principal{UserID: "jan"}, ResourceID: "d1", Date: tomorrow}); err != nil {
			t.Fatalf("Reserve failed: %v", err)
		}

		err := svc.DeleteUser(context.Background(), admin, "jan")
		var future *FutureReservationsError
		if !errors.As(err, &future) || future.Count != 1 {
			t.Fatalf("expected FutureReservationsError, got %v", err)
		}
	})

	t.Run("deletes and forgets sessions", func(t *testing.T) {
		t.Parallel()

		svc, store, spy := newUserServiceFixture()
		if err := svc.DeleteUser(context.Background(), admin, "jan"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, ok := store.users["jan"]; ok {
			t.Fatalf("expected user to be removed")
		}
		if len(spy.forgotten) != 1 || spy.forgotten[0] != "jan" {
			t.Fatalf("expected sessions to be forgotten, got %v", spy.forgotten)
		}
	})

	t.Run("refuses to delete the acting administrator", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newUserServiceFixture()
		if err := svc.DeleteUser(context.Background(), admin, "admin"); !errors.Is(err, ErrSelfProtection) {
			t.Fatalf("expected ErrSelfProtection, got %v", err)
		}
	})
}

func TestUserService_Read(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserServiceFixture()
	jan := Principal{UserID: "jan"}

	if _, err := svc.GetUser(context.Background(), jan, "jan"); err != nil {
		t.Fatalf("expected users to read themselves, got %v", err)
	}
	if _, err := svc.GetUser(context.Background(), jan, "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ListUsers(context.Background(), jan); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for listing, got %v", err)
	}

	stats, err := svc.ListUsers(context.Background(), Principal{UserID: "admin", IsAdmin: true})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(stats) != 2 || stats[0].Name != "Admin" {
		t.Fatalf("expected users ordered by name, got %#v", stats)
	}
}
