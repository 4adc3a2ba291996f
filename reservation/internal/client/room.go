package client

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/config"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

type RoomClient struct {
	directory
}

func NewRoomClient(log *zap.Logger, cfg config.DirectoryHTTPServer) *RoomClient {
	return &RoomClient{directory: newDirectory("room", log, cfg)}
}

func (c *RoomClient) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	var room model.Room
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rooms/%d", id), nil, &room); err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (c *RoomClient) UpdateRoomReservations(ctx context.Context, id int64, reservationIDs []string) error {
	body := reservationsBody{ReservationIDs: nonNil(reservationIDs)}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/rooms/%d/reservations", id), body, nil)
}

func (c *RoomClient) UpdateRoomAvailability(ctx context.Context, id int64, available bool) error {
	body := struct {
		Available bool `json:"available"`
	}{Available: available}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/rooms/%d/availability", id), body, nil)
}
