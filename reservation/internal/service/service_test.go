package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
	"github.com/Astemirdum/foyer-service/reservation/internal/service"
)

type memRepo struct {
	mu    sync.Mutex
	items []model.Reservation
}

func (r *memRepo) CreateReservation(_ context.Context, rsv model.Reservation, capacity int) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inRoom := 0
	for _, v := range r.items {
		if !v.IsValid || v.AcademicYear != rsv.AcademicYear {
			continue
		}
		if v.StudentID == rsv.StudentID {
			return model.Reservation{}, errs.ErrConflict
		}
		if v.RoomID == rsv.RoomID {
			inRoom++
		}
	}
	if inRoom >= capacity {
		return model.Reservation{}, errs.ErrConflict
	}
	rsv.CreatedAt = time.Now().UTC()
	r.items = append(r.items, rsv)
	return rsv, nil
}

func (r *memRepo) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.ID == id {
			return v, nil
		}
	}
	return model.Reservation{}, errs.ErrNotFound
}

func (r *memRepo) GetValidByStudentAndYear(_ context.Context, studentID int64, academicYear int) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.IsValid && v.StudentID == studentID && v.AcademicYear == academicYear {
			return v, nil
		}
	}
	return model.Reservation{}, errs.ErrNotFound
}

func (r *memRepo) CountValidByRoomAndYear(ctx context.Context, roomID int64, academicYear int) (int, error) {
	items, err := r.ListValidByRoomAndYear(ctx, roomID, academicYear)
	return len(items), err
}

func (r *memRepo) ListByStudent(_ context.Context, studentID int64) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, v := range r.items {
		if v.StudentID == studentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memRepo) ListValidByRoomAndYear(_ context.Context, roomID int64, academicYear int) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Reservation, 0)
	for _, v := range r.items {
		if v.IsValid && v.RoomID == roomID && v.AcademicYear == academicYear {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memRepo) SetValid(_ context.Context, id string, valid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].IsValid = valid
			return nil
		}
	}
	return errs.ErrNotFound
}

// memDirectory serves both students and rooms. Setting failWrites makes
// every update return ErrUnavailable.
type memDirectory struct {
	mu           sync.Mutex
	students     map[int64][]string
	rooms        map[int64][]string
	availability map[int64]bool
	failWrites   bool
}

func newDirectory(students, rooms []int64) *memDirectory {
	d := &memDirectory{
		students:     map[int64][]string{},
		rooms:        map[int64][]string{},
		availability: map[int64]bool{},
	}
	for _, id := range students {
		d.students[id] = nil
	}
	for _, id := range rooms {
		d.rooms[id] = nil
		d.availability[id] = true
	}
	return d
}

func (d *memDirectory) GetStudent(_ context.Context, id int64) (model.Student, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids, ok := d.students[id]
	if !ok {
		return model.Student{}, errs.ErrNotFound
	}
	return model.Student{ID: id, ReservationIDs: append([]string(nil), ids...)}, nil
}

func (d *memDirectory) UpdateStudentReservations(_ context.Context, id int64, reservationIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites {
		return errs.ErrUnavailable
	}
	if _, ok := d.students[id]; !ok {
		return errs.ErrNotFound
	}
	d.students[id] = reservationIDs
	return nil
}

func (d *memDirectory) GetRoom(_ context.Context, id int64) (model.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids, ok := d.rooms[id]
	if !ok {
		return model.Room{}, errs.ErrNotFound
	}
	return model.Room{ID: id, Available: d.availability[id], ReservationIDs: append([]string(nil), ids...)}, nil
}

func (d *memDirectory) UpdateRoomReservations(_ context.Context, id int64, reservationIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites {
		return errs.ErrUnavailable
	}
	if _, ok := d.rooms[id]; !ok {
		return errs.ErrNotFound
	}
	d.rooms[id] = reservationIDs
	return nil
}

func (d *memDirectory) UpdateRoomAvailability(_ context.Context, id int64, available bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites {
		return errs.ErrUnavailable
	}
	if _, ok := d.rooms[id]; !ok {
		return errs.ErrNotFound
	}
	d.availability[id] = available
	return nil
}

func (d *memDirectory) setFailWrites(v bool) {
	d.mu.Lock()
	d.failWrites = v
	d.mu.Unlock()
}

type memQueue struct {
	mu   sync.Mutex
	msgs []model.DirectorySync
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, msg model.DirectorySync) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func newService(t *testing.T, opts ...service.Option) (*service.Service, *memRepo, *memDirectory) {
	t.Helper()
	repo := &memRepo{}
	dir := newDirectory([]int64{1, 2, 3}, []int64{10, 20})
	return service.NewService(repo, dir, dir, zap.NewNop(), opts...), repo, dir
}

func create(studentID, roomID int64, year int) model.CreateReservationRequest {
	return model.CreateReservationRequest{StudentID: studentID, RoomID: roomID, AcademicYear: year}
}

func TestService_CreateReservation_Scenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, dir := newService(t)

	x, err := svc.CreateReservation(ctx, create(1, 10, 2024))
	require.NoError(t, err)
	require.NotEmpty(t, x.ID)
	require.True(t, x.IsValid)
	require.Equal(t, []string{x.ID}, dir.students[1])
	require.Equal(t, []string{x.ID}, dir.rooms[10])

	_, err = svc.CreateReservation(ctx, create(1, 20, 2024))
	require.ErrorIs(t, err, errs.ErrConflict)

	y, err := svc.CreateReservation(ctx, create(2, 10, 2024))
	require.NoError(t, err)
	require.Equal(t, []string{x.ID, y.ID}, dir.rooms[10])

	_, err = svc.CreateReservation(ctx, create(3, 10, 2024))
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Empty(t, dir.students[3])

	// another year is a separate bucket
	_, err = svc.CreateReservation(ctx, create(1, 20, 2025))
	require.NoError(t, err)
	require.Len(t, dir.students[1], 2)
}

func TestService_CreateReservation_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, _ := newService(t)

	_, err := svc.CreateReservation(ctx, create(42, 10, 2024))
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.CreateReservation(ctx, create(1, 42, 2024))
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Empty(t, repo.items)
}

func TestService_CreateReservation_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &memRepo{}
	dir := newDirectory([]int64{1, 2, 3}, []int64{10})
	svc := service.NewService(repo, dir, dir, zap.NewNop())

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for _, id := range []int64{1, 2, 3} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateReservation(ctx, create(id, 10, 2024)); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	count, err := repo.CountValidByRoomAndYear(ctx, 10, 2024)
	require.NoError(t, err)
	require.Equal(t, service.RoomCapacity, count)
	require.Equal(t, service.RoomCapacity, oks)
}

func TestService_CancelReservation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, dir := newService(t)

	x, err := svc.CreateReservation(ctx, create(1, 10, 2024))
	require.NoError(t, err)
	y, err := svc.CreateReservation(ctx, create(2, 10, 2024))
	require.NoError(t, err)

	require.NoError(t, svc.CancelReservation(ctx, x.ID))

	got, err := svc.GetReservation(ctx, x.ID)
	require.NoError(t, err)
	require.False(t, got.IsValid)
	require.Empty(t, dir.students[1])
	require.Equal(t, []string{y.ID}, dir.rooms[10])
	require.False(t, dir.availability[10])

	// the cancelled record stays in the student's history
	items, err := svc.GetReservationsByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	valid, err := svc.GetReservationsByRoomAndYear(ctx, 10, 2024)
	require.NoError(t, err)
	require.Equal(t, []model.Reservation{{
		ID: y.ID, AcademicYear: 2024, IsValid: true, StudentID: 2, RoomID: 10, CreatedAt: y.CreatedAt,
	}}, valid)

	// the student may book again once the old one is cancelled
	_, err = svc.CreateReservation(ctx, create(1, 10, 2024))
	require.NoError(t, err)

	err = svc.CancelReservation(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_CancelReservation_RecomputePolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, dir := newService(t, service.WithAvailabilityPolicy(service.PolicyRecompute))

	x, err := svc.CreateReservation(ctx, create(1, 10, 2024))
	require.NoError(t, err)
	require.True(t, dir.availability[10])

	_, err = svc.CreateReservation(ctx, create(2, 10, 2024))
	require.NoError(t, err)
	require.False(t, dir.availability[10])

	require.NoError(t, svc.CancelReservation(ctx, x.ID))
	require.True(t, dir.availability[10])
}

func TestService_CancelReservation_StudentGone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, dir := newService(t)

	x, err := svc.CreateReservation(ctx, create(1, 10, 2024))
	require.NoError(t, err)

	dir.mu.Lock()
	delete(dir.students, 1)
	dir.mu.Unlock()

	require.NoError(t, svc.CancelReservation(ctx, x.ID))
	require.Empty(t, dir.rooms[10])
}

func TestService_DirectoryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("without queue the error is returned", func(t *testing.T) {
		t.Parallel()
		svc, repo, dir := newService(t)
		dir.setFailWrites(true)

		_, err := svc.CreateReservation(ctx, create(1, 10, 2024))
		require.ErrorIs(t, err, errs.ErrUnavailable)
		// the store write is not rolled back
		require.Len(t, repo.items, 1)
	})

	t.Run("queued updates replay idempotently", func(t *testing.T) {
		t.Parallel()
		q := &memQueue{}
		svc, _, dir := newService(t, service.WithEnqueuer(q))
		dir.setFailWrites(true)

		x, err := svc.CreateReservation(ctx, create(1, 10, 2024))
		require.NoError(t, err)
		require.Equal(t, []model.DirectorySync{
			{Target: model.SyncTargetStudent, Op: model.SyncOpAttach, TargetID: 1, ReservationID: x.ID},
			{Target: model.SyncTargetRoom, Op: model.SyncOpAttach, TargetID: 10, ReservationID: x.ID},
		}, q.msgs)
		require.Empty(t, dir.students[1])

		dir.setFailWrites(false)
		for i := 0; i < 2; i++ {
			for _, msg := range q.msgs {
				require.NoError(t, svc.ApplySync(ctx, msg))
			}
		}
		require.Equal(t, []string{x.ID}, dir.students[1])
		require.Equal(t, []string{x.ID}, dir.rooms[10])
	})

	t.Run("queue failure returns the directory error", func(t *testing.T) {
		t.Parallel()
		q := &memQueue{err: errors.New("kafka: client has run out of available brokers")}
		svc, _, dir := newService(t, service.WithEnqueuer(q))
		dir.setFailWrites(true)

		_, err := svc.CreateReservation(ctx, create(1, 10, 2024))
		require.ErrorIs(t, err, errs.ErrUnavailable)
	})
}

func TestService_ApplySync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, dir := newService(t)

	err := svc.ApplySync(ctx, model.DirectorySync{Target: "BUILDING", Op: model.SyncOpAttach, TargetID: 1})
	require.ErrorIs(t, err, errs.ErrInvalid)

	err = svc.ApplySync(ctx, model.DirectorySync{Target: model.SyncTargetStudent, Op: model.SyncOpAvailability, TargetID: 1})
	require.ErrorIs(t, err, errs.ErrInvalid)

	require.NoError(t, svc.ApplySync(ctx, model.DirectorySync{
		Target: model.SyncTargetRoom, Op: model.SyncOpAvailability, TargetID: 20, Available: false,
	}))
	require.False(t, dir.availability[20])

	err = svc.ApplySync(ctx, model.DirectorySync{Target: model.SyncTargetStudent, Op: model.SyncOpAttach, TargetID: 99, ReservationID: "x"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.ApplySync(ctx, model.DirectorySync{
		Target: model.SyncTargetRoom, Op: model.SyncOpDetach, TargetID: 99, ReservationID: "x",
	}))
}

func TestParseAvailabilityPolicy(t *testing.T) {
	t.Parallel()
	p, err := service.ParseAvailabilityPolicy("")
	require.NoError(t, err)
	require.Equal(t, service.PolicyLegacy, p)

	p, err = service.ParseAvailabilityPolicy("recompute")
	require.NoError(t, err)
	require.Equal(t, service.PolicyRecompute, p)

	_, err = service.ParseAvailabilityPolicy("sometimes")
	require.ErrorIs(t, err, errs.ErrInvalid)
}
