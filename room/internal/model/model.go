package model

type RoomType string

const (
	RoomTypeSimple RoomType = "SIMPLE"
	RoomTypeDouble RoomType = "DOUBLE"
	RoomTypeTriple RoomType = "TRIPLE"
)

type Room struct {
	ID        int64    `json:"id" db:"id"`
	Number    int64    `json:"number" db:"number" validate:"required,gt=0"`
	Type      RoomType `json:"type" db:"type" validate:"required,oneof=SIMPLE DOUBLE TRIPLE"`
	Available bool     `json:"available" db:"available"`
	// ReservationIDs is maintained by the reservation service.
	ReservationIDs []string `json:"reservationIds" db:"reservation_ids"`
}

type UpdateReservationsRequest struct {
	ReservationIDs []string `json:"reservationIds"`
}

type UpdateAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
