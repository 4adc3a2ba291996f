package handler

import (
	"context"

	"github.com/Astemirdum/foyer-service/student/internal/model"
	"github.com/Astemirdum/foyer-service/student/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type StudentService interface {
	AddStudent(ctx context.Context, st model.Student) (model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	GetStudentByCin(ctx context.Context, cin int64) (model.Student, error)
	UpdateStudent(ctx context.Context, st model.Student) (model.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	UpdateStudentReservations(ctx context.Context, id int64, reservationIDs []string) error
}

var _ StudentService = (*service.Service)(nil)
