package handler

import (
	"context"

	"github.com/Astemirdum/foyer-service/reservation/internal/model"
	"github.com/Astemirdum/foyer-service/reservation/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type ReservationService interface {
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	CancelReservation(ctx context.Context, id string) error
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	GetReservationsByStudent(ctx context.Context, studentID int64) ([]model.Reservation, error)
	GetReservationsByRoomAndYear(ctx context.Context, roomID int64, academicYear int) ([]model.Reservation, error)
}

var _ ReservationService = (*service.Service)(nil)
