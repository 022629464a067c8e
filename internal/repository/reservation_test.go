package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
)

func newMockReservationRepo(t *testing.T) (*reservationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReservationRepository(sqlx.NewDb(db, "sqlmock"), zap.NewNop()), mock
}

func reservationRows(uid string, status model.Status) *sqlmock.Rows {
	start := time.Date(2024, 7, 16, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(reservationColumns).
		AddRow(1, uid, "conference-a", "alice", "sprint review",
			start, start.Add(time.Hour), []byte(`["alice@example.com"]`),
			"self", string(status), nil)
}

// The status update must hold the room row lock so it cannot interleave
// with a staff booking resolving conflicts on the same room.
func TestReservationRepository_UpdateStatus_LocksRoom(t *testing.T) {
	t.Parallel()
	uid := "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	repo, mock := newMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`select room from reservation where reservation_uid = $1`)).
		WithArgs(uid).
		WillReturnRows(sqlmock.NewRows([]string{"room"}).AddRow("conference-a"))
	mock.ExpectQuery(regexp.QuoteMeta(`select id from room where name = $1 for update`)).
		WithArgs("conference-a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE reservation SET status = $1 WHERE reservation_uid = $2 returning ` + columnList())).
		WithArgs("accepted", uid).
		WillReturnRows(reservationRows(uid, model.StatusAccepted))
	mock.ExpectCommit()

	res, err := repo.UpdateStatus(context.Background(), uid, model.StatusAccepted, nil)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, res.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`select room from reservation where reservation_uid = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), "missing", model.StatusRejected, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_CreateStaffBooking_UnknownRoom(t *testing.T) {
	t.Parallel()
	repo, mock := newMockReservationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`select id from room where name = $1 for update`)).
		WithArgs("basement").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	req := model.CreateReservationRequest{
		Room:      "basement",
		Requester: "admin",
		Subject:   "board meeting",
		StartDate: time.Date(2024, 7, 16, 10, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 16, 11, 0, 0, 0, time.UTC),
		Emails:    []string{"admin@example.com"},
	}
	_, _, err := repo.CreateStaffBooking(context.Background(), req, "slot taken over")
	require.ErrorIs(t, err, errs.ErrUnknownRoom)
	require.NoError(t, mock.ExpectationsWereMet())
}
