package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/pkg/validate"
	"github.com/Astemirdum/foyer-service/room/internal/errs"
	"github.com/Astemirdum/foyer-service/room/internal/model"
	"github.com/Astemirdum/foyer-service/room/internal/repository"
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

// CreateRoom stores a new, available room with no reservations.
func (s *Service) CreateRoom(ctx context.Context, room model.Room) (model.Room, error) {
	if err := s.validator.Validate(room); err != nil {
		return model.Room{}, errors.Wrap(errs.ErrInvalid, err.Error())
	}
	room.Available = true
	created, err := s.repo.CreateRoom(ctx, room)
	if err != nil {
		return model.Room{}, errors.Wrapf(err, "room number %d", room.Number)
	}
	s.log.Info("room created", zap.Int64("id", created.ID), zap.Int64("number", created.Number))
	return created, nil
}

func (s *Service) ListRooms(ctx context.Context, available *bool) ([]model.Room, error) {
	return s.repo.ListRooms(ctx, available)
}

func (s *Service) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return model.Room{}, errors.Wrapf(err, "room %d", id)
	}
	return room, nil
}

func (s *Service) UpdateRoomReservations(ctx context.Context, id int64, reservationIDs []string) error {
	if err := s.repo.UpdateReservations(ctx, id, reservationIDs); err != nil {
		return errors.Wrapf(err, "room %d", id)
	}
	return nil
}

func (s *Service) UpdateRoomAvailability(ctx context.Context, id int64, available bool) error {
	if err := s.repo.UpdateAvailability(ctx, id, available); err != nil {
		return errors.Wrapf(err, "room %d", id)
	}
	s.log.Debug("availability updated", zap.Int64("id", id), zap.Bool("available", available))
	return nil
}
