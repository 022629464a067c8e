package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/model"
)

type StatsRepository interface {
	Dashboard(ctx context.Context, now time.Time) (model.DashboardStats, error)
	RoomUsage(ctx context.Context) (map[string]int, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
}

type statsRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStatsRepository(db *sqlx.DB, log *zap.Logger) *statsRepository {
	return &statsRepository{
		db:  db,
		log: log.Named("repo"),
	}
}

const dashboardQuery = `
select
    count(*) filter (where status = 'accepted' and end_date > $1)                          as active_rooms,
    count(*) filter (where status = 'pending')                                             as pending_count,
    count(*) filter (where status = 'accepted' and start_date <= $1 and end_date > $1)     as ongoing_count,
    count(*) filter (where status = 'accepted' and end_date <= $1)                         as finished_count,
    (select count(distinct e)
     from reservation cross join lateral jsonb_array_elements_text(emails) e)              as distinct_attendees
from reservation`

func (r *statsRepository) Dashboard(ctx context.Context, now time.Time) (model.DashboardStats, error) {
	var row struct {
		ActiveRooms       int `db:"active_rooms"`
		PendingCount      int `db:"pending_count"`
		OngoingCount      int `db:"ongoing_count"`
		FinishedCount     int `db:"finished_count"`
		DistinctAttendees int `db:"distinct_attendees"`
	}
	if err := r.db.GetContext(ctx, &row, dashboardQuery, now); err != nil {
		return model.DashboardStats{}, err
	}
	return model.DashboardStats{
		ActiveRooms:           row.ActiveRooms,
		PendingCount:          row.PendingCount,
		OngoingCount:          row.OngoingCount,
		FinishedCount:         row.FinishedCount,
		DistinctAttendeeCount: row.DistinctAttendees,
	}, nil
}

// RoomUsage counts reservations of every status per room. Rejected and
// pending entries are included to match the historical trend charts.
func (r *statsRepository) RoomUsage(ctx context.Context) (map[string]int, error) {
	rows := make([]struct {
		Room  string `db:"room"`
		Count int    `db:"count"`
	}, 0)
	if err := r.db.SelectContext(ctx, &rows,
		`select room, count(*) as count from reservation group by room`); err != nil {
		return nil, err
	}
	usage := make(map[string]int, len(rows))
	for _, row := range rows {
		usage[row.Room] = row.Count
	}
	return usage, nil
}

func (r *statsRepository) ListAll(ctx context.Context) ([]model.Reservation, error) {
	q, _, err := qb.Select(reservationColumns...).
		From(reservationTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Reservation, 0)
	if err := r.db.SelectContext(ctx, &items, q); err != nil {
		return nil, err
	}
	return items, nil
}
