package application

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	params := Argon2idParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	t.Run("round trips argon2id hashes", func(t *testing.T) {
		t.Parallel()

		hash, err := CreatePasswordHash("password123", params)
		if err != nil {
			t.Fatalf("CreatePasswordHash failed: %v", err)
		}
		if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
			t.Fatalf("unexpected hash format %q", hash)
		}
		if err := VerifyPassword(hash, "password123"); err != nil {
			t.Fatalf("expected password to verify, got %v", err)
		}
		if err := VerifyPassword(hash, "password124"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("salts every hash", func(t *testing.T) {
		t.Parallel()

		first, _ := CreatePasswordHash("same", params)
		second, _ := CreatePasswordHash("same", params)
		if first == second {
			t.Fatalf("expected distinct hashes for the same password")
		}
	})

	t.Run("accepts imported bcrypt hashes", func(t *testing.T) {
		t.Parallel()

		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("GenerateFromPassword failed: %v", err)
		}
		if err := VerifyPassword(string(hash), "password123"); err != nil {
			t.Fatalf("expected bcrypt password to verify, got %v", err)
		}
		if err := VerifyPassword(string(hash), "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects malformed hashes", func(t *testing.T) {
		t.Parallel()

		for _, hash := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"} {
			if err := VerifyPassword(hash, "x"); !errors.Is(err, ErrInvalidPasswordHash) {
				t.Fatalf("expected ErrInvalidPasswordHash for %q, got %v", hash, err)
			}
		}
		if err := VerifyPassword("$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA", "x"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
			t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
		}
	})
}
