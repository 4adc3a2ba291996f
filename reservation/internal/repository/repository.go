package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

type Repository interface {
	// CreateReservation inserts rsv unless the student already holds a valid
	// reservation for the year or the room already holds capacity valid ones.
	CreateReservation(ctx context.Context, rsv model.Reservation, capacity int) (model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	GetValidByStudentAndYear(ctx context.Context, studentID int64, academicYear int) (model.Reservation, error)
	CountValidByRoomAndYear(ctx context.Context, roomID int64, academicYear int) (int, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.Reservation, error)
	ListValidByRoomAndYear(ctx context.Context, roomID int64, academicYear int) ([]model.Reservation, error)
	SetValid(ctx context.Context, id string, valid bool) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	reservationTableName = `reservation`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	reservationColumns = []string{"id", "academic_year", "is_valid", "student_id", "room_id", "created_at"}
)

func (r *repository) CreateReservation(ctx context.Context, rsv model.Reservation, capacity int) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// student lock first, room lock second: every writer takes them in this order
	const lockQ = `select pg_advisory_xact_lock(hashtextextended(@key, 0))`
	for _, key := range []string{
		fmt.Sprintf("reservation:student:%d:%d", rsv.StudentID, rsv.AcademicYear),
		fmt.Sprintf("reservation:room:%d:%d", rsv.RoomID, rsv.AcademicYear),
	} {
		if _, err := tx.Exec(ctx, lockQ, pgx.NamedArgs{"key": key}); err != nil {
			return model.Reservation{}, errors.Wrap(err, "advisory lock")
		}
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
	select exists(select 1 from reservation
	where student_id = @student_id and academic_year = @academic_year and is_valid)`,
		pgx.NamedArgs{"student_id": rsv.StudentID, "academic_year": rsv.AcademicYear},
	).Scan(&exists); err != nil {
		return model.Reservation{}, err
	}
	if exists {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "student already has an active reservation for the academic year")
	}

	var count int
	if err := tx.QueryRow(ctx, `
	select count(*) from reservation
	where room_id = @room_id and academic_year = @academic_year and is_valid`,
		pgx.NamedArgs{"room_id": rsv.RoomID, "academic_year": rsv.AcademicYear},
	).Scan(&count); err != nil {
		return model.Reservation{}, err
	}
	if count >= capacity {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "room already has the maximum number of reservations for the academic year")
	}

	q, args, err := qb.Insert(reservationTableName).
		Columns("id", "academic_year", "is_valid", "student_id", "room_id").
		Values(rsv.ID, rsv.AcademicYear, rsv.IsValid, rsv.StudentID, rsv.RoomID).
		Suffix("returning " + strings.Join(reservationColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return model.Reservation{}, mapError(err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		r.log.Error("CreateReservation", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return model.Reservation{}, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, mapError(err)
	}
	return created, nil
}

func (r *repository) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) GetValidByStudentAndYear(ctx context.Context, studentID int64, academicYear int) (model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"student_id": studentID, "academic_year": academicYear, "is_valid": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) CountValidByRoomAndYear(ctx context.Context, roomID int64, academicYear int) (int, error) {
	q, args, err := qb.Select("count(*)").
		From(reservationTableName).
		Where(sq.Eq{"room_id": roomID, "academic_year": academicYear, "is_valid": true}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int64) ([]model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, q, args...)
}

func (r *repository) ListValidByRoomAndYear(ctx context.Context, roomID int64, academicYear int) ([]model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"room_id": roomID, "academic_year": academicYear, "is_valid": true}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, q, args...)
}

func (r *repository) SetValid(ctx context.Context, id string, valid bool) error {
	q := `update reservation set is_valid = @is_valid where id = @id`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "is_valid": valid})
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) getOne(ctx context.Context, q string, args ...any) (model.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return model.Reservation{}, err
	}
	rsv, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return rsv, nil
}

func (r *repository) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errors.Wrap(errs.ErrConflict, pgErr.Detail)
	}
	return err
}
