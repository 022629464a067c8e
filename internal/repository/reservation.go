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

type ReservationRepository interface {
	Create(ctx context.Context, req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error)
	CreateStaffBooking(ctx context.Context, req model.CreateReservationRequest, evictionRemark string) (model.Reservation, []model.Reservation, error)
	Get(ctx context.Context, uid string) (model.Reservation, error)
	UpdateStatus(ctx context.Context, uid string, status model.Status, remark *string) (model.Reservation, error)
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context, room string, status model.Status) ([]model.Reservation, error)
	FindCovering(ctx context.Context, room string, at time.Time) (model.Reservation, error)
}

type reservationRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewReservationRepository(db *sqlx.DB, log *zap.Logger) *reservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

const (
	reservationTableName = `reservation`
	roomTableName        = `room`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var reservationColumns = []string{
	"id", "reservation_uid", "room", "requester", "subject",
	"start_date", "end_date", "emails", "origin", "status", "remark",
}

func (r *reservationRepository) Create(ctx context.Context, req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error) {
	q, args, err := qb.Insert(reservationTableName).
		Columns("reservation_uid", "room", "requester", "subject", "start_date", "end_date", "emails", "origin", "status").
		Values(uuid.New(), req.Room, req.Requester, req.Subject, req.StartDate, req.EndDate, model.Emails(req.Emails), origin, status).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, args...); err != nil {
		r.log.Error("Create", zap.String("q", q), zap.Any("args", args))
		return model.Reservation{}, err
	}
	return res, nil
}

// CreateStaffBooking inserts an accepted staff reservation and flips every
// other accepted reservation in the same room with an overlapping range to
// rejected. The room row is locked for the duration of the transaction so
// two concurrent staff bookings cannot both miss each other's conflicts.
func (r *reservationRepository) CreateStaffBooking(ctx context.Context, req model.CreateReservationRequest, evictionRemark string) (model.Reservation, []model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var roomID int
	if err := tx.GetContext(ctx, &roomID,
		`select id from room where name = $1 for update`, req.Room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, nil, errs.ErrUnknownRoom
		}
		return model.Reservation{}, nil, err
	}

	evictQ := `
	update reservation
	set status = 'rejected', remark = $1
	where room = $2 and status = 'accepted'
	  and start_date < $3 and end_date > $4
	returning ` + columnList()
	var evicted []model.Reservation
	if err := tx.SelectContext(ctx, &evicted, evictQ, evictionRemark, req.Room, req.EndDate, req.StartDate); err != nil {
		return model.Reservation{}, nil, err
	}

	q, args, err := qb.Insert(reservationTableName).
		Columns("reservation_uid", "room", "requester", "subject", "start_date", "end_date", "emails", "origin", "status").
		Values(uuid.New(), req.Room, req.Requester, req.Subject, req.StartDate, req.EndDate, model.Emails(req.Emails), model.OriginStaff, model.StatusAccepted).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Reservation{}, nil, err
	}
	var res model.Reservation
	if err := tx.GetContext(ctx, &res, q, args...); err != nil {
		r.log.Error("CreateStaffBooking", zap.String("q", q), zap.Any("args", args))
		return model.Reservation{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return model.Reservation{}, nil, err
	}
	return res, evicted, nil
}

func (r *reservationRepository) Get(ctx context.Context, uid string) (model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"reservation_uid": uid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// UpdateStatus flips a reservation's status while holding the room row lock,
// so accepts and rejects serialize with concurrent staff bookings on the
// same room.
func (r *reservationRepository) UpdateStatus(ctx context.Context, uid string, status model.Status, remark *string) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var room string
	if err := tx.GetContext(ctx, &room,
		`select room from reservation where reservation_uid = $1`, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	var roomID int
	// A missing room row means the room was deleted; nothing to serialize
	// against, the update proceeds unlocked.
	if err := tx.GetContext(ctx, &roomID,
		`select id from room where name = $1 for update`, room); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, err
	}

	b := qb.Update(reservationTableName).
		Set("status", status).
		Where(sq.Eq{"reservation_uid": uid}).
		Suffix("returning " + columnList())
	if remark != nil {
		b = b.Set("remark", *remark)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := tx.GetContext(ctx, &res, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *reservationRepository) Delete(ctx context.Context, uid string) error {
	q, args, err := qb.Delete(reservationTableName).
		Where(sq.Eq{"reservation_uid": uid}).
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

// List returns reservations in insertion order; empty room or status means
// no filter on that column.
func (r *reservationRepository) List(ctx context.Context, room string, status model.Status) ([]model.Reservation, error) {
	b := qb.Select(reservationColumns...).
		From(reservationTableName).
		OrderBy("id")
	if room != "" {
		b = b.Where(sq.Eq{"room": room})
	}
	if status != "" {
		b = b.Where(sq.Eq{"status": status})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Reservation, 0)
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *reservationRepository) FindCovering(ctx context.Context, room string, at time.Time) (model.Reservation, error) {
	q, args, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		Where(sq.Eq{"room": room, "status": model.StatusAccepted}).
		Where(sq.LtOrEq{"start_date": at}).
		Where(sq.Gt{"end_date": at}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func columnList() string {
	s := reservationColumns[0]
	for _, c := range reservationColumns[1:] {
		s += ", " + c
	}
	return s
}
