package model

import (
	"time"
)

type Student struct {
	ID        int64      `json:"id" db:"id"`
	FirstName string     `json:"firstName" db:"first_name" validate:"required"`
	LastName  string     `json:"lastName" db:"last_name" validate:"required"`
	Cin       int64      `json:"cin" db:"cin" validate:"required,gt=0"`
	School    string     `json:"school" db:"school"`
	BirthDate *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	// ReservationIDs is maintained by the reservation service.
	ReservationIDs []string `json:"reservationIds" db:"reservation_ids"`
}

type UpdateReservationsRequest struct {
	ReservationIDs []string `json:"reservationIds"`
}
