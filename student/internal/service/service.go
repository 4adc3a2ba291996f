package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/pkg/validate"
	"github.com/Astemirdum/foyer-service/student/internal/errs"
	"github.com/Astemirdum/foyer-service/student/internal/model"
	"github.com/Astemirdum/foyer-service/student/internal/repository"
)

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	validator *validate.CustomValidator
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		validator: validate.NewCustomValidator(),
	}
}

func (s *Service) AddStudent(ctx context.Context, st model.Student) (model.Student, error) {
	if err := s.validator.Validate(st); err != nil {
		return model.Student{}, errors.Wrap(errs.ErrInvalid, err.Error())
	}
	created, err := s.repo.CreateStudent(ctx, st)
	if err != nil {
		return model.Student{}, errors.Wrapf(err, "cin %d", st.Cin)
	}
	s.log.Info("student added", zap.Int64("id", created.ID))
	return created, nil
}

func (s *Service) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.repo.ListStudents(ctx)
}

func (s *Service) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	st, err := s.repo.GetStudent(ctx, id)
	if err != nil {
		return model.Student{}, errors.Wrapf(err, "student %d", id)
	}
	return st, nil
}

func (s *Service) GetStudentByCin(ctx context.Context, cin int64) (model.Student, error) {
	st, err := s.repo.GetStudentByCin(ctx, cin)
	if err != nil {
		return model.Student{}, errors.Wrapf(err, "cin %d", cin)
	}
	return st, nil
}

// UpdateStudent replaces the profile fields; the reservation list is left alone.
func (s *Service) UpdateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	if err := s.validator.Validate(st); err != nil {
		return model.Student{}, errors.Wrap(errs.ErrInvalid, err.Error())
	}
	updated, err := s.repo.UpdateStudent(ctx, st)
	if err != nil {
		return model.Student{}, errors.Wrapf(err, "student %d", st.ID)
	}
	return updated, nil
}

func (s *Service) DeleteStudent(ctx context.Context, id int64) error {
	if err := s.repo.DeleteStudent(ctx, id); err != nil {
		return errors.Wrapf(err, "student %d", id)
	}
	s.log.Info("student deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) UpdateStudentReservations(ctx context.Context, id int64, reservationIDs []string) error {
	if err := s.repo.UpdateReservations(ctx, id, reservationIDs); err != nil {
		return errors.Wrapf(err, "student %d", id)
	}
	s.log.Debug("reservations updated", zap.Int64("id", id), zap.Strings("reservations", reservationIDs))
	return nil
}
