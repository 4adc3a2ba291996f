package handler

import (
	"context"

	"github.com/Astemirdum/foyer-service/room/internal/model"
	"github.com/Astemirdum/foyer-service/room/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type RoomService interface {
	CreateRoom(ctx context.Context, room model.Room) (model.Room, error)
	ListRooms(ctx context.Context, available *bool) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	UpdateRoomReservations(ctx context.Context, id int64, reservationIDs []string) error
	UpdateRoomAvailability(ctx context.Context, id int64, available bool) error
}

var _ RoomService = (*service.Service)(nil)
