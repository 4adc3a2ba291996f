package client

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/config"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

type StudentClient struct {
	directory
}

func NewStudentClient(log *zap.Logger, cfg config.DirectoryHTTPServer) *StudentClient {
	return &StudentClient{directory: newDirectory("student", log, cfg)}
}

func (c *StudentClient) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var student model.Student
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/students/%d", id), nil, &student); err != nil {
		return model.Student{}, err
	}
	return student, nil
}

func (c *StudentClient) UpdateStudentReservations(ctx context.Context, id int64, reservationIDs []string) error {
	body := reservationsBody{ReservationIDs: nonNil(reservationIDs)}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/students/%d/reservations", id), body, nil)
}

type reservationsBody struct {
	ReservationIDs []string `json:"reservationIds"`
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
