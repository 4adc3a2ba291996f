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

	"github.com/Astemirdum/foyer-service/student/internal/errs"
	"github.com/Astemirdum/foyer-service/student/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateStudent(ctx context.Context, st model.Student) (model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	GetStudentByCin(ctx context.Context, cin int64) (model.Student, error)
	UpdateStudent(ctx context.Context, st model.Student) (model.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	UpdateReservations(ctx context.Context, id int64, reservationIDs []string) error
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
	studentTableName = `student`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	studentColumns = []string{"id", "first_name", "last_name", "cin", "school", "birth_date", "reservation_ids"}
)

func (r *repository) CreateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	q, args, err := qb.Insert(studentTableName).
		Columns("first_name", "last_name", "cin", "school", "birth_date").
		Values(st.FirstName, st.LastName, st.Cin, st.School, st.BirthDate).
		Suffix("returning " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Student{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) ListStudents(ctx context.Context) ([]model.Student, error) {
	q, args, err := qb.Select(studentColumns...).
		From(studentTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Student])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func (r *repository) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	q, args, err := qb.Select(studentColumns...).
		From(studentTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Student{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) GetStudentByCin(ctx context.Context, cin int64) (model.Student, error) {
	q, args, err := qb.Select(studentColumns...).
		From(studentTableName).
		Where(sq.Eq{"cin": cin}).
		ToSql()
	if err != nil {
		return model.Student{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) UpdateStudent(ctx context.Context, st model.Student) (model.Student, error) {
	q, args, err := qb.Update(studentTableName).
		SetMap(map[string]any{
			"first_name": st.FirstName,
			"last_name":  st.LastName,
			"cin":        st.Cin,
			"school":     st.School,
			"birth_date": st.BirthDate,
		}).
		Where(sq.Eq{"id": st.ID}).
		Suffix("returning " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Student{}, err
	}
	return r.getOne(ctx, q, args...)
}

func (r *repository) DeleteStudent(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `delete from student where id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateReservations(ctx context.Context, id int64, reservationIDs []string) error {
	if reservationIDs == nil {
		reservationIDs = []string{}
	}
	tag, err := r.db.Exec(ctx, `update student set reservation_ids = @ids where id = @id`,
		pgx.NamedArgs{"id": id, "ids": reservationIDs})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) getOne(ctx context.Context, q string, args ...any) (model.Student, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return model.Student{}, mapError(err)
	}
	st, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Student])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Student{}, errs.ErrNotFound
		}
		r.log.Error("getOne", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return model.Student{}, mapError(err)
	}
	return st, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errors.Wrap(errs.ErrConflict, pgErr.Detail)
	}
	return err
}
