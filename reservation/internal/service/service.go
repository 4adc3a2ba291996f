package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
	"github.com/Astemirdum/foyer-service/reservation/internal/repository"
)

// RoomCapacity is the number of valid reservations a room accepts per academic year.
const RoomCapacity = 2

type StudentDirectory interface {
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	UpdateStudentReservations(ctx context.Context, id int64, reservationIDs []string) error
}

type RoomDirectory interface {
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	UpdateRoomReservations(ctx context.Context, id int64, reservationIDs []string) error
	UpdateRoomAvailability(ctx context.Context, id int64, available bool) error
}

// Enqueuer hands a failed directory update over for asynchronous replay.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg model.DirectorySync) error
}

type AvailabilityPolicy string

const (
	// PolicyLegacy marks a room unavailable whenever a cancellation leaves it
	// below capacity and never marks it available again.
	PolicyLegacy AvailabilityPolicy = "legacy"
	// PolicyRecompute pushes available = (valid count < capacity) after every
	// create and cancel.
	PolicyRecompute AvailabilityPolicy = "recompute"
)

func ParseAvailabilityPolicy(s string) (AvailabilityPolicy, error) {
	switch p := AvailabilityPolicy(s); p {
	case PolicyLegacy, PolicyRecompute:
		return p, nil
	case "":
		return PolicyLegacy, nil
	}
	return "", errors.Wrapf(errs.ErrInvalid, "availability policy %q", s)
}

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	students StudentDirectory
	rooms    RoomDirectory
	enqueuer Enqueuer
	policy   AvailabilityPolicy
}

type Option func(s *Service)

// WithEnqueuer makes directory failures after a committed write non-fatal:
// they are queued instead of returned.
func WithEnqueuer(e Enqueuer) Option {
	return func(s *Service) {
		s.enqueuer = e
	}
}

func WithAvailabilityPolicy(p AvailabilityPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func NewService(repo repository.Repository, students StudentDirectory, rooms RoomDirectory, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:      log.Named("service"),
		repo:     repo,
		students: students,
		rooms:    rooms,
		policy:   PolicyLegacy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	student, err := s.students.GetStudent(ctx, req.StudentID)
	if err != nil {
		return model.Reservation{}, errors.Wrapf(err, "student %d", req.StudentID)
	}
	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return model.Reservation{}, errors.Wrapf(err, "room %d", req.RoomID)
	}

	_, err = s.repo.GetValidByStudentAndYear(ctx, req.StudentID, req.AcademicYear)
	switch {
	case err == nil:
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "student already has an active reservation for the academic year")
	case !errors.Is(err, errs.ErrNotFound):
		return model.Reservation{}, err
	}

	count, err := s.repo.CountValidByRoomAndYear(ctx, req.RoomID, req.AcademicYear)
	if err != nil {
		return model.Reservation{}, err
	}
	if count >= RoomCapacity {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "room already has the maximum number of reservations for the academic year")
	}

	rsv, err := s.repo.CreateReservation(ctx, model.Reservation{
		ID:           uuid.NewString(),
		AcademicYear: req.AcademicYear,
		IsValid:      true,
		StudentID:    req.StudentID,
		RoomID:       req.RoomID,
	}, RoomCapacity)
	if err != nil {
		return model.Reservation{}, err
	}
	log := s.log.With(zap.String("reservation", rsv.ID))
	log.Info("reservation created", zap.Int64("student", rsv.StudentID), zap.Int64("room", rsv.RoomID), zap.Int("year", rsv.AcademicYear))

	// the store is authoritative from here on; directory failures are queued or reported
	if err := s.students.UpdateStudentReservations(ctx, student.ID, appendUnique(student.ReservationIDs, rsv.ID)); err != nil {
		if err := s.deferSync(ctx, model.DirectorySync{
			Target: model.SyncTargetStudent, Op: model.SyncOpAttach, TargetID: req.StudentID, ReservationID: rsv.ID,
		}, err); err != nil {
			return model.Reservation{}, err
		}
	}
	if err := s.rooms.UpdateRoomReservations(ctx, room.ID, appendUnique(room.ReservationIDs, rsv.ID)); err != nil {
		if err := s.deferSync(ctx, model.DirectorySync{
			Target: model.SyncTargetRoom, Op: model.SyncOpAttach, TargetID: req.RoomID, ReservationID: rsv.ID,
		}, err); err != nil {
			return model.Reservation{}, err
		}
	}
	if s.policy == PolicyRecompute && count+1 >= RoomCapacity {
		if err := s.setAvailability(ctx, req.RoomID, false); err != nil {
			return model.Reservation{}, err
		}
	}
	return rsv, nil
}

func (s *Service) CancelReservation(ctx context.Context, id string) error {
	rsv, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "reservation %s", id)
	}
	if err := s.repo.SetValid(ctx, id, false); err != nil {
		return err
	}
	s.log.Info("reservation cancelled", zap.String("reservation", id))

	remaining, err := s.repo.CountValidByRoomAndYear(ctx, rsv.RoomID, rsv.AcademicYear)
	if err != nil {
		return err
	}
	if remaining < RoomCapacity {
		available := false
		if s.policy == PolicyRecompute {
			available = true
		}
		if err := s.setAvailability(ctx, rsv.RoomID, available); err != nil {
			return err
		}
	}

	var gg errgroup.Group
	gg.Go(func() error {
		return s.detach(ctx, model.DirectorySync{
			Target: model.SyncTargetStudent, Op: model.SyncOpDetach, TargetID: rsv.StudentID, ReservationID: id,
		})
	})
	gg.Go(func() error {
		return s.detach(ctx, model.DirectorySync{
			Target: model.SyncTargetRoom, Op: model.SyncOpDetach, TargetID: rsv.RoomID, ReservationID: id,
		})
	})
	return gg.Wait()
}

func (s *Service) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	rsv, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, errors.Wrapf(err, "reservation %s", id)
	}
	return rsv, nil
}

func (s *Service) GetReservationsByStudent(ctx context.Context, studentID int64) ([]model.Reservation, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *Service) GetReservationsByRoomAndYear(ctx context.Context, roomID int64, academicYear int) ([]model.Reservation, error) {
	return s.repo.ListValidByRoomAndYear(ctx, roomID, academicYear)
}

func (s *Service) detach(ctx context.Context, msg model.DirectorySync) error {
	if err := s.ApplySync(ctx, msg); err != nil {
		return s.deferSync(ctx, msg, err)
	}
	return nil
}

func (s *Service) setAvailability(ctx context.Context, roomID int64, available bool) error {
	if err := s.rooms.UpdateRoomAvailability(ctx, roomID, available); err != nil {
		return s.deferSync(ctx, model.DirectorySync{
			Target: model.SyncTargetRoom, Op: model.SyncOpAvailability, TargetID: roomID, Available: available,
		}, err)
	}
	return nil
}

// deferSync queues msg after cause made the synchronous update fail. Without
// an enqueuer, or when queueing fails too, cause is returned.
func (s *Service) deferSync(ctx context.Context, msg model.DirectorySync, cause error) error {
	log := s.log.With(
		zap.String("target", string(msg.Target)),
		zap.String("op", string(msg.Op)),
		zap.Int64("id", msg.TargetID),
		zap.String("reservation", msg.ReservationID),
		zap.Error(cause),
	)
	if s.enqueuer == nil {
		log.Error("directory update failed")
		return errors.Wrapf(cause, "%s %d not updated", msg.Target, msg.TargetID)
	}
	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		log.Error("directory update failed, enqueue failed", zap.NamedError("enqueue", err))
		return errors.Wrapf(cause, "%s %d not updated", msg.Target, msg.TargetID)
	}
	log.Warn("directory update queued")
	return nil
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
