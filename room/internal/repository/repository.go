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

	"github.com/Astemirdum/foyer-service/room/internal/errs"
	"github.com/Astemirdum/foyer-service/room/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateRoom(ctx context.Context, room model.Room) (model.Room, error)
	// ListRooms filters on availability when available is not nil.
	ListRooms(ctx context.Context, available *bool) ([]model.Room, error)
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	UpdateReservations(ctx context.Context, id int64, reservationIDs []string) error
	UpdateAvailability(ctx context.Context, id int64, available bool) error
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
	roomTableName = `room`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	roomColumns = []string{"id", "number", "type", "available", "reservation_ids"}
)

func (r *repository) CreateRoom(ctx context.Context, room model.Room) (model.Room, error) {
	q, args, err := qb.Insert(roomTableName).
		Columns("number", "type", "available").
		Values(room.Number, room.Type, room.Available).
		Suffix("returning " + strings.Join(roomColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Room{}, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return model.Room{}, mapError(err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Room])
	if err != nil {
		r.log.Error("CreateRoom", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return model.Room{}, mapError(err)
	}
	return created, nil
}

func (r *repository) ListRooms(ctx context.Context, available *bool) ([]model.Room, error) {
	sb := qb.Select(roomColumns...).
		From(roomTableName).
		OrderBy("number")
	if available != nil {
		sb = sb.Where(sq.Eq{"available": *available})
	}
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListRooms", zap.String("query", q), zap.Any("args", args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Room])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return items, nil
}

func (r *repository) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	q, args, err := qb.Select(roomColumns...).
		From(roomTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Room{}, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return model.Room{}, err
	}
	room, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Room])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, errs.ErrNotFound
		}
		return model.Room{}, fmt.Errorf("pgx.CollectOneRow: %w", err)
	}
	return room, nil
}

func (r *repository) UpdateReservations(ctx context.Context, id int64, reservationIDs []string) error {
	if reservationIDs == nil {
		reservationIDs = []string{}
	}
	return r.update(ctx, `update room set reservation_ids = @value where id = @id`, id, reservationIDs)
}

func (r *repository) UpdateAvailability(ctx context.Context, id int64, available bool) error {
	return r.update(ctx, `update room set available = @value where id = @id`, id, available)
}

func (r *repository) update(ctx context.Context, q string, id int64, value any) error {
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "value": value})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errors.Wrap(errs.ErrConflict, pgErr.Detail)
	}
	return err
}
