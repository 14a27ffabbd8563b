package storage

import (
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/persistence"
)

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      application.Role(model.Role),
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:               model.ID,
		Kind:             model.Kind,
		Code:             model.Code,
		Name:             model.Name,
		LocationLabel:    cloneString(model.LocationLabel),
		Active:           model.Active,
		ReservationCount: model.ReservationCount,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceResource(resource application.Resource) persistence.Resource {
	return persistence.Resource{
		ID:            resource.ID,
		Kind:          resource.Kind,
		Code:          resource.Code,
		Name:          resource.Name,
		LocationLabel: cloneString(resource.LocationLabel),
		Active:        resource.Active,
		CreatedAt:     resource.CreatedAt,
		UpdatedAt:     resource.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:            model.ID,
		Kind:          model.Kind,
		UserID:        model.UserID,
		ResourceID:    model.ResourceID,
		Date:          model.Date,
		ResourceCode:  model.ResourceCode,
		ResourceName:  model.ResourceName,
		LocationLabel: cloneString(model.ResourceLocation),
		UserName:      model.UserName,
		UserEmail:     model.UserEmail,
		CreatedAt:     model.CreatedAt,
	}
}

// toApplicationReservations takes a repository result directly so list
// adapters stay one line.
func toApplicationReservations(models []persistence.Reservation, err error) ([]application.Reservation, error) {
	if err != nil {
		return nil, err
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:         reservation.ID,
		Kind:       reservation.Kind,
		UserID:     reservation.UserID,
		ResourceID: reservation.ResourceID,
		Date:       reservation.Date,
		CreatedAt:  reservation.CreatedAt,
	}
}

func toApplicationPresence(model persistence.Presence) application.Presence {
	return application.Presence{
		ID:        model.ID,
		UserID:    model.UserID,
		Date:      model.Date,
		Mode:      application.PresenceMode(model.Mode),
		Stored:    true,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationPresences(models []persistence.Presence, err error) ([]application.Presence, error) {
	if err != nil {
		return nil, err
	}
	presences := make([]application.Presence, 0, len(models))
	for _, model := range models {
		presences = append(presences, toApplicationPresence(model))
	}
	return presences, nil
}

func toPersistencePresence(presence application.Presence) persistence.Presence {
	return persistence.Presence{
		ID:        presence.ID,
		UserID:    presence.UserID,
		Date:      presence.Date,
		Mode:      string(presence.Mode),
		CreatedAt: presence.CreatedAt,
		UpdatedAt: presence.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
