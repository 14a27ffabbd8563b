package storage

import (
	"context"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/persistence"
)

// ResourceRepository adapts the inventory of one kind.
type ResourceRepository struct {
	repo persistence.ResourceRepository
}

func NewResourceRepository(repo persistence.ResourceRepository) *ResourceRepository {
	return &ResourceRepository{repo: repo}
}

func (a *ResourceRepository) CreateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.CreateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *ResourceRepository) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *ResourceRepository) UpdateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.UpdateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, err
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *ResourceRepository) DeleteResource(ctx context.Context, id string, today calendar.Date) error {
	return a.repo.DeleteResource(ctx, id, today)
}

func (a *ResourceRepository) ListResources(ctx context.Context, activeOnly bool) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

// ReservationLedger adapts the reservations of one kind.
type ReservationLedger struct {
	repo persistence.ReservationRepository
}

func NewReservationLedger(repo persistence.ReservationRepository) *ReservationLedger {
	return &ReservationLedger{repo: repo}
}

func (a *ReservationLedger) Reserve(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	stored, err := a.repo.Reserve(ctx, toPersistenceReservation(reservation))
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *ReservationLedger) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *ReservationLedger) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a *ReservationLedger) ListReservationsForDate(ctx context.Context, date calendar.Date) ([]application.Reservation, error) {
	return toApplicationReservations(a.repo.ListReservationsForDate(ctx, date))
}

func (a *ReservationLedger) ListReservationsForUser(ctx context.Context, userID string) ([]application.Reservation, error) {
	return toApplicationReservations(a.repo.ListReservationsForUser(ctx, userID))
}

func (a *ReservationLedger) ListReservations(ctx context.Context, query application.ReservationQuery) ([]application.Reservation, error) {
	return toApplicationReservations(a.repo.ListReservations(ctx, persistence.ReservationFilter{
		From:   query.From,
		To:     query.To,
		UserID: query.UserID,
	}))
}

// DayBatchRepository adapts the cross-ledger batch operations.
type DayBatchRepository struct {
	repo persistence.ReservationBatchRepository
}

func NewDayBatchRepository(repo persistence.ReservationBatchRepository) *DayBatchRepository {
	return &DayBatchRepository{repo: repo}
}

func (a *DayBatchRepository) ListUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]application.Reservation, error) {
	return toApplicationReservations(a.repo.ListUserReservationsOn(ctx, userID, dates))
}

func (a *DayBatchRepository) DeleteUserReservationsOn(ctx context.Context, userID string, dates []calendar.Date) ([]application.Reservation, error) {
	return toApplicationReservations(a.repo.DeleteUserReservationsOn(ctx, userID, dates))
}

// PresenceRepository adapts the presence ledger. Every record read back is
// marked as stored.
type PresenceRepository struct {
	repo persistence.PresenceRepository
}

func NewPresenceRepository(repo persistence.PresenceRepository) *PresenceRepository {
	return &PresenceRepository{repo: repo}
}

func (a *PresenceRepository) GetPresence(ctx context.Context, userID string, date calendar.Date) (application.Presence, error) {
	stored, err := a.repo.GetPresence(ctx, userID, date)
	if err != nil {
		return application.Presence{}, err
	}
	return toApplicationPresence(stored), nil
}

func (a *PresenceRepository) UpsertPresence(ctx context.Context, presence application.Presence) (application.Presence, error) {
	stored, err := a.repo.UpsertPresence(ctx, toPersistencePresence(presence))
	if err != nil {
		return application.Presence{}, err
	}
	return toApplicationPresence(stored), nil
}

func (a *PresenceRepository) UpsertPresences(ctx context.Context, presences []application.Presence) error {
	models := make([]persistence.Presence, 0, len(presences))
	for _, presence := range presences {
		models = append(models, toPersistencePresence(presence))
	}
	return a.repo.UpsertPresences(ctx, models)
}

func (a *PresenceRepository) ListPresencesForUser(ctx context.Context, userID string, span calendar.Span) ([]application.Presence, error) {
	return toApplicationPresences(a.repo.ListPresencesForUser(ctx, userID, span))
}

func (a *PresenceRepository) ListPresencesForDate(ctx context.Context, date calendar.Date) ([]application.Presence, error) {
	return toApplicationPresences(a.repo.ListPresencesForDate(ctx, date))
}
