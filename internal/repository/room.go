package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
)

type RoomRepository interface {
	Create(ctx context.Context, req model.CreateRoomRequest) (model.Room, error)
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context) ([]model.Room, error)
	Exists(ctx context.Context, name string) (bool, error)
	SaveAutomode(ctx context.Context, settings []model.AutomodeSetting) error
	ListAutomode(ctx context.Context) ([]model.AutomodeSetting, error)
}

type roomRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRoomRepository(db *sqlx.DB, log *zap.Logger) *roomRepository {
	return &roomRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

func (r *roomRepository) Create(ctx context.Context, req model.CreateRoomRequest) (model.Room, error) {
	q, args, err := qb.Insert(roomTableName).
		Columns("room_uid", "name", "capacity", "description").
		Values(uuid.New(), req.Name, req.Capacity, req.Description).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Room{}, err
	}
	var room model.Room
	if err := r.db.GetContext(ctx, &room, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Room{}, errs.ErrDuplicateRoom
		}
		r.log.Error("Create room", zap.String("q", q), zap.Any("args", args))
		return model.Room{}, err
	}
	return room, nil
}

func (r *roomRepository) Delete(ctx context.Context, uid string) error {
	q, args, err := qb.Delete(roomTableName).
		Where(sq.Eq{"room_uid": uid}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *roomRepository) List(ctx context.Context) ([]model.Room, error) {
	q, _, err := qb.Select("id", "room_uid", "name", "capacity", "description").
		From(roomTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rooms := make([]model.Room, 0)
	if err := r.db.SelectContext(ctx, &rooms, q); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) Exists(ctx context.Context, name string) (bool, error) {
	var id int
	err := r.db.GetContext(ctx, &id, `select id from room where name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveAutomode replaces the whole automode table with the given settings.
func (r *roomRepository) SaveAutomode(ctx context.Context, settings []model.AutomodeSetting) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `delete from automode`); err != nil {
		return err
	}
	b := qb.Insert("automode").Columns("room_name", "automode")
	for _, s := range settings {
		b = b.Values(s.RoomName, s.Automode)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *roomRepository) ListAutomode(ctx context.Context) ([]model.AutomodeSetting, error) {
	settings := make([]model.AutomodeSetting, 0)
	if err := r.db.SelectContext(ctx, &settings,
		`select room_name, automode from automode order by room_name`); err != nil {
		return nil, err
	}
	return settings, nil
}
