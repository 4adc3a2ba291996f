package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

// ApplySync brings one directory record in line with msg. It re-reads the
// record first, so applying the same message twice is harmless.
func (s *Service) ApplySync(ctx context.Context, msg model.DirectorySync) error {
	switch msg.Target {
	case model.SyncTargetStudent:
		return s.syncStudent(ctx, msg)
	case model.SyncTargetRoom:
		return s.syncRoom(ctx, msg)
	}
	return errors.Wrapf(errs.ErrInvalid, "sync target %q", msg.Target)
}

func (s *Service) syncStudent(ctx context.Context, msg model.DirectorySync) error {
	if msg.Op != model.SyncOpAttach && msg.Op != model.SyncOpDetach {
		return errors.Wrapf(errs.ErrInvalid, "sync op %q for student", msg.Op)
	}
	student, err := s.students.GetStudent(ctx, msg.TargetID)
	if err != nil {
		if msg.Op == model.SyncOpDetach && errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("detach: student is gone", zap.Int64("student", msg.TargetID))
			return nil
		}
		return err
	}
	ids, changed := apply(student.ReservationIDs, msg)
	if !changed {
		return nil
	}
	return s.students.UpdateStudentReservations(ctx, msg.TargetID, ids)
}

func (s *Service) syncRoom(ctx context.Context, msg model.DirectorySync) error {
	if msg.Op == model.SyncOpAvailability {
		return s.rooms.UpdateRoomAvailability(ctx, msg.TargetID, msg.Available)
	}
	if msg.Op != model.SyncOpAttach && msg.Op != model.SyncOpDetach {
		return errors.Wrapf(errs.ErrInvalid, "sync op %q for room", msg.Op)
	}
	room, err := s.rooms.GetRoom(ctx, msg.TargetID)
	if err != nil {
		if msg.Op == model.SyncOpDetach && errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("detach: room is gone", zap.Int64("room", msg.TargetID))
			return nil
		}
		return err
	}
	ids, changed := apply(room.ReservationIDs, msg)
	if !changed {
		return nil
	}
	return s.rooms.UpdateRoomReservations(ctx, msg.TargetID, ids)
}

func apply(ids []string, msg model.DirectorySync) ([]string, bool) {
	var out []string
	if msg.Op == model.SyncOpAttach {
		out = appendUnique(ids, msg.ReservationID)
	} else {
		out = remove(ids, msg.ReservationID)
	}
	return out, len(out) != len(ids)
}
