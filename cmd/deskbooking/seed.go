package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/ledger"
	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/persistence/sqlite"
)

//go:embed seed.yaml
var defaultSeed []byte

// seedFile is the YAML layout of an inventory seed. A user carries either a
// plain password, hashed with argon2id on load, or an imported passwordHash
// (bcrypt hashes from the legacy system are accepted).
type seedFile struct {
	Users   []seedUser     `yaml:"users"`
	Desks   []seedResource `yaml:"desks"`
	Parking []seedResource `yaml:"parking"`
}

type seedUser struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"passwordHash"`
	Role         string `yaml:"role"`
}

type seedResource struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type seedReport struct {
	Users     int
	Resources map[ledger.Kind]int
}

// loadSeed reads path, or the embedded default seed when path is empty.
func loadSeed(path string) (seedFile, error) {
	data := defaultSeed
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return seedFile{}, fmt.Errorf("read seed file: %w", err)
		}
		data = raw
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := seed.validate(); err != nil {
		return seedFile{}, err
	}
	return seed, nil
}

func (s seedFile) validate() error {
	var problems []string
	for i, user := range s.Users {
		if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.Name) == "" {
			problems = append(problems, fmt.Sprintf("users[%d]: name and email are required", i))
		}
		if user.Password == "" && user.PasswordHash == "" {
			problems = append(problems, fmt.Sprintf("users[%d]: password or passwordHash is required", i))
		}
		if user.Role != "" {
			if _, ok := application.ParseRole(user.Role); !ok {
				problems = append(problems, fmt.Sprintf("users[%d]: unknown role %q", i, user.Role))
			}
		}
	}
	for _, kind := range ledger.Kinds {
		for i, resource := range s.resources()[kind] {
			if strings.TrimSpace(resource.Code) == "" {
				problems = append(problems, fmt.Sprintf("%s[%d]: code is required", kind, i))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid seed file: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (s seedFile) resources() map[ledger.Kind][]seedResource {
	return map[ledger.Kind][]seedResource{
		ledger.KindDesk:    s.Desks,
		ledger.KindParking: s.Parking,
	}
}

// seeder inserts seed records that are not stored yet. Users match by email
// and resources by code, so running it twice changes nothing.
type seeder struct {
	store       *sqlite.Store
	hash        application.PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func (s seeder) apply(ctx context.Context, seed seedFile) (seedReport, error) {
	report := seedReport{Resources: make(map[ledger.Kind]int, len(ledger.Kinds))}
	now := s.now().UTC()

	for _, user := range seed.Users {
		created, err := s.ensureUser(ctx, user, now)
		if err != nil {
			return report, fmt.Errorf("seed user %s: %w", user.Email, err)
		}
		if created {
			report.Users++
		}
	}

	for _, kind := range ledger.Kinds {
		for _, resource := range seed.resources()[kind] {
			created, err := s.ensureResource(ctx, kind, resource, now)
			if err != nil {
				return report, fmt.Errorf("seed %s %s: %w", kind, resource.Code, err)
			}
			if created {
				report.Resources[kind]++
			}
		}
	}

	s.logger.InfoContext(ctx, "seed applied",
		"users", report.Users,
		"desks", report.Resources[ledger.KindDesk],
		"parking", report.Resources[ledger.KindParking],
	)
	return report, nil
}

func (s seeder) ensureUser(ctx context.Context, user seedUser, now time.Time) (bool, error) {
	_, err := s.store.Users.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return false, err
	}

	hash := user.PasswordHash
	if hash == "" {
		if hash, err = s.hash(user.Password); err != nil {
			return false, err
		}
	}
	role := application.RoleUser
	if parsed, ok := application.ParseRole(user.Role); ok {
		role = parsed
	}

	err = s.store.Users.CreateUser(ctx, persistence.User{
		ID:           s.idGenerator(),
		Name:         strings.TrimSpace(user.Name),
		Email:        user.Email,
		PasswordHash: hash,
		Role:         string(role),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err == nil, err
}

func (s seeder) ensureResource(ctx context.Context, kind ledger.Kind, resource seedResource, now time.Time) (bool, error) {
	repo := s.store.Resources(kind)
	existing, err := repo.ListResources(ctx, false)
	if err != nil {
		return false, err
	}
	code := strings.TrimSpace(resource.Code)
	for _, stored := range existing {
		if stored.Code == code {
			return false, nil
		}
	}

	name := strings.TrimSpace(resource.Name)
	if name == "" {
		name = code
	}
	var location *string
	if label := strings.TrimSpace(resource.Location); label != "" && kind == ledger.KindDesk {
		location = &label
	}

	err = repo.CreateResource(ctx, persistence.Resource{
		ID:            s.idGenerator(),
		Kind:          kind,
		Code:          code,
		Name:          name,
		LocationLabel: location,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return err == nil, err
}
