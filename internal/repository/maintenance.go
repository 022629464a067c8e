package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
)

type MaintenanceRepository interface {
	Create(ctx context.Context, m model.Maintenance) (model.Maintenance, error)
	List(ctx context.Context) ([]model.Maintenance, error)
	// Complete deletes a window and appends the log entry in one transaction.
	Complete(ctx context.Context, uid string, completedAt time.Time) (model.MaintenanceLog, error)
	// ExpireDue completes every window with end_date <= now.
	ExpireDue(ctx context.Context, now time.Time) ([]model.MaintenanceLog, error)
	ListLog(ctx context.Context) ([]model.MaintenanceLog, error)
	ActiveForRoom(ctx context.Context, room string, at time.Time) (bool, error)
}

type maintenanceRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewMaintenanceRepository(db *sqlx.DB, log *zap.Logger) *maintenanceRepository {
	return &maintenanceRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

const (
	maintenanceTableName    = `maintenance`
	maintenanceLogTableName = `maintenance_log`
)

func (r *maintenanceRepository) Create(ctx context.Context, m model.Maintenance) (model.Maintenance, error) {
	q, args, err := qb.Insert(maintenanceTableName).
		Columns("maintenance_uid", "room", "performer", "reason", "start_date", "end_date").
		Values(uuid.New(), m.Room, m.Performer, m.Reason, m.StartDate, m.EndDate).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Maintenance{}, err
	}
	var created model.Maintenance
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		r.log.Error("Create maintenance", zap.String("q", q), zap.Any("args", args))
		return model.Maintenance{}, err
	}
	return created, nil
}

func (r *maintenanceRepository) List(ctx context.Context) ([]model.Maintenance, error) {
	q, _, err := qb.Select("id", "maintenance_uid", "room", "performer", "reason", "start_date", "end_date").
		From(maintenanceTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Maintenance, 0)
	if err := r.db.SelectContext(ctx, &items, q); err != nil {
		return nil, err
	}
	return items, nil
}

const completeQuery = `
with removed as (
    delete from maintenance where maintenance_uid = $1 returning *
)
insert into maintenance_log (maintenance_uid, room, performer, reason, start_date, end_date, completed_date)
select maintenance_uid, room, performer, reason, start_date, end_date, $2 from removed
returning id, maintenance_uid, room, performer, reason, start_date, end_date, completed_date`

func (r *maintenanceRepository) Complete(ctx context.Context, uid string, completedAt time.Time) (model.MaintenanceLog, error) {
	var entry model.MaintenanceLog
	if err := r.db.GetContext(ctx, &entry, completeQuery, uid, completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MaintenanceLog{}, errs.ErrNotFound
		}
		return model.MaintenanceLog{}, err
	}
	return entry, nil
}

const expireDueQuery = `
with removed as (
    delete from maintenance where end_date <= $1 returning *
)
insert into maintenance_log (maintenance_uid, room, performer, reason, start_date, end_date, completed_date)
select maintenance_uid, room, performer, reason, start_date, end_date, $1 from removed
returning id, maintenance_uid, room, performer, reason, start_date, end_date, completed_date`

func (r *maintenanceRepository) ExpireDue(ctx context.Context, now time.Time) ([]model.MaintenanceLog, error) {
	entries := make([]model.MaintenanceLog, 0)
	if err := r.db.SelectContext(ctx, &entries, expireDueQuery, now); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *maintenanceRepository) ListLog(ctx context.Context) ([]model.MaintenanceLog, error) {
	q, _, err := qb.Select("id", "maintenance_uid", "room", "performer", "reason", "start_date", "end_date", "completed_date").
		From(maintenanceLogTableName).
		OrderBy("completed_date desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	entries := make([]model.MaintenanceLog, 0)
	if err := r.db.SelectContext(ctx, &entries, q); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *maintenanceRepository) ActiveForRoom(ctx context.Context, room string, at time.Time) (bool, error) {
	q, args, err := qb.Select("1").
		From(maintenanceTableName).
		Where(sq.Eq{"room": room}).
		Where(sq.LtOrEq{"start_date": at}).
		Where(sq.Gt{"end_date": at}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}
	var one int
	if err := r.db.GetContext(ctx, &one, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
