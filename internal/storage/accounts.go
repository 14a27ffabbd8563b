package storage

import (
	"context"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/persistence"
)

// UserRepository adapts persistence users to the user service port.
type UserRepository struct {
	repo persistence.UserRepository
}

func NewUserRepository(repo persistence.UserRepository) *UserRepository {
	return &UserRepository{repo: repo}
}

func (a *UserRepository) CreateUser(ctx context.Context, credentials application.UserCredentials) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(credentials.User, credentials.PasswordHash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, credentials.User.ID)
}

func (a *UserRepository) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

// UpdateUser keeps the stored password hash when credentials carry none.
func (a *UserRepository) UpdateUser(ctx context.Context, credentials application.UserCredentials) (application.User, error) {
	hash := credentials.PasswordHash
	if hash == "" {
		current, err := a.repo.GetUser(ctx, credentials.User.ID)
		if err != nil {
			return application.User{}, err
		}
		hash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(credentials.User, hash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, credentials.User.ID)
}

func (a *UserRepository) DeleteUser(ctx context.Context, id string, today calendar.Date) error {
	return a.repo.DeleteUser(ctx, id, today)
}

func (a *UserRepository) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *UserRepository) ListUserStats(ctx context.Context, today calendar.Date) ([]application.UserStats, error) {
	models, err := a.repo.ListUserStats(ctx, today)
	if err != nil {
		return nil, err
	}
	stats := make([]application.UserStats, 0, len(models))
	for _, model := range models {
		stats = append(stats, application.UserStats{
			User:                 toApplicationUser(model.User),
			DeskReservations:     model.DeskReservations,
			ParkingReservations:  model.ParkingReservations,
			UpcomingReservations: model.UpcomingReservations,
		})
	}
	return stats, nil
}

// CredentialStore exposes password hashes to the auth service.
type CredentialStore struct {
	repo persistence.UserRepository
}

func NewCredentialStore(repo persistence.UserRepository) *CredentialStore {
	return &CredentialStore{repo: repo}
}

func (a *CredentialStore) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *CredentialStore) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

// SessionRepository adapts persisted sessions.
type SessionRepository struct {
	repo persistence.SessionRepository
}

func NewSessionRepository(repo persistence.SessionRepository) *SessionRepository {
	return &SessionRepository{repo: repo}
}

func (a *SessionRepository) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}
