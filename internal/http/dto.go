package http

import (
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/calendar"
	"github.com/example/desk-booking/internal/ledger"
)

type reservationDTO struct {
	ID            string        `json:"id"`
	Kind          ledger.Kind   `json:"type"`
	Date          calendar.Date `json:"date"`
	ResourceID    string        `json:"resourceId"`
	ResourceCode  string        `json:"code"`
	ResourceName  string        `json:"name"`
	LocationLabel *string       `json:"locationLabel,omitempty"`
	UserID        string        `json:"userId"`
	UserName      string        `json:"userName,omitempty"`
	UserEmail     string        `json:"userEmail,omitempty"`
	CreatedAt     string        `json:"createdAt"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:            reservation.ID,
		Kind:          reservation.Kind,
		Date:          reservation.Date,
		ResourceID:    reservation.ResourceID,
		ResourceCode:  reservation.ResourceCode,
		ResourceName:  reservation.ResourceName,
		LocationLabel: reservation.LocationLabel,
		UserID:        reservation.UserID,
		UserName:      reservation.UserName,
		UserEmail:     reservation.UserEmail,
		CreatedAt:     formatTime(reservation.CreatedAt),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func optionalReservationDTO(reservation *application.Reservation) *reservationDTO {
	if reservation == nil {
		return nil
	}
	dto := toReservationDTO(*reservation)
	return &dto
}

type conflictDTO struct {
	Date        calendar.Date `json:"date"`
	DeskCode    string        `json:"deskCode,omitempty"`
	ParkingCode string        `json:"parkingCode,omitempty"`
}

func toConflictDTOs(conflicts []application.DayConflict) []conflictDTO {
	out := make([]conflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		out = append(out, conflictDTO{Date: conflict.Date, DeskCode: conflict.DeskCode, ParkingCode: conflict.ParkingCode})
	}
	return out
}

type presenceDTO struct {
	Date   calendar.Date            `json:"date"`
	Mode   application.PresenceMode `json:"mode"`
	Stored bool                     `json:"stored"`
}

func toPresenceDTO(presence application.Presence) presenceDTO {
	return presenceDTO{Date: presence.Date, Mode: presence.Mode, Stored: presence.Stored}
}

type cancelCountsDTO struct {
	Desk    int `json:"desk"`
	Parking int `json:"parking"`
}

type cancelDayDTO struct {
	Date        calendar.Date `json:"date"`
	DeskCode    string        `json:"deskCode,omitempty"`
	ParkingCode string        `json:"parkingCode,omitempty"`
}

func toCancelDayDTO(result application.CancelDayResult) cancelDayDTO {
	return cancelDayDTO{Date: result.Date, DeskCode: result.DeskCode, ParkingCode: result.ParkingCode}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
