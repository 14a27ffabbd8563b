package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/persistence"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// SessionInvalidator forgets cached sessions of a user whose account changed.
type SessionInvalidator interface {
	ForgetUser(userID string)
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	sessions    SessionInvalidator
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// SetSessionInvalidator registers the session cache to notify after updates and deletions.
func (s *UserService) SetSessionInvalidator(sessions SessionInvalidator) {
	if s != nil {
		s.sessions = sessions
	}
}

func (s *UserService) forget(userID string) {
	if s.sessions != nil {
		s.sessions.ForgetUser(userID)
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if err = requireAdmin(params.Principal); err != nil {
		return User{}, err
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	input := UserInput{
		Name:     strings.TrimSpace(params.Input.Name),
		Email:    normalizeEmail(params.Input.Email),
		Password: params.Input.Password,
		Role:     params.Input.Role,
	}
	if input.Role == "" {
		input.Role = RoleUser
	}

	vErr := &ValidationError{}
	vErr.merge(validateName(input.Name))
	vErr.merge(validateEmail(input.Email))
	vErr.merge(validatePassword(input.Password))
	vErr.merge(validateRole(input.Role))
	if vErr.HasErrors() {
		return User{}, vErr
	}

	var hash string
	if hash, err = s.hash(input.Password); err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user, err = s.users.CreateUser(ctx, UserCredentials{
		User: User{
			ID:        s.idGenerator(),
			Name:      input.Name,
			Email:     input.Email,
			Role:      input.Role,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// UpdateUser applies a partial update for administrators. An administrator
// cannot deactivate or demote their own account.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if err = requireAdmin(params.Principal); err != nil {
		return User{}, err
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	self := params.UserID == params.Principal.UserID
	if self && params.Active != nil && !*params.Active {
		return User{}, ErrSelfProtection
	}
	if self && params.Role != nil && *params.Role != RoleAdmin {
		return User{}, ErrSelfProtection
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}

	updated := existing
	vErr := &ValidationError{}
	if params.Name != nil {
		updated.Name = strings.TrimSpace(*params.Name)
		vErr.merge(validateName(updated.Name))
	}
	if params.Email != nil {
		updated.Email = normalizeEmail(*params.Email)
		vErr.merge(validateEmail(updated.Email))
	}
	if params.Password != nil {
		vErr.merge(validatePassword(*params.Password))
	}
	if params.Role != nil {
		updated.Role = *params.Role
		vErr.merge(validateRole(updated.Role))
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}
	if params.Active != nil {
		updated.Active = *params.Active
	}
	updated.UpdatedAt = s.now()

	credentials := UserCredentials{User: updated}
	if params.Password != nil {
		if credentials.PasswordHash, err = s.hash(*params.Password); err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	user, err = s.users.UpdateUser(ctx, credentials)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	s.forget(user.ID)
	return user, nil
}

// DeleteUser removes a user without reservations dated today or later,
// together with their presence history, past reservations and sessions.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if userID == principal.UserID {
		return ErrSelfProtection
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if err := s.users.DeleteUser(ctx, userID, calendar.Today(s.now())); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.forget(userID)
	logger.InfoContext(ctx, "user deleted")
	return nil
}

// GetUser returns one user. Users may read their own account only.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !principal.authenticated() {
		return User{}, ErrUnauthorized
	}
	if userID != principal.UserID && !principal.IsAdmin {
		return User{}, ErrForbidden
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by name with reservation statistics.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]UserStats, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if s.users == nil {
		return nil, nil
	}

	stats, err := s.users.ListUserStats(ctx, calendar.Today(s.now()))
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	return stats, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) *ValidationError {
	vErr := &ValidationError{}
	if utf8.RuneCountInString(name) < minNameLength {
		vErr.add("name", fmt.Sprintf("name must be at least %d characters", minNameLength))
	}
	return vErr
}

func validateEmail(email string) *ValidationError {
	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		vErr.add("email", "email is invalid")
	}
	return vErr
}

func validatePassword(password string) *ValidationError {
	vErr := &ValidationError{}
	if len(password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return vErr
}

func validateRole(role Role) *ValidationError {
	vErr := &ValidationError{}
	if role != RoleUser && role != RoleAdmin {
		vErr.add("role", "role must be USER or ADMIN")
	}
	return vErr
}

func mapUserRepoError(err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrDuplicateEmail
	}
	return mapRepoError(err)
}
