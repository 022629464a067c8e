package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
)

type fakeStatsRepo struct {
	repository.StatsRepository

	dashboardFn func(now time.Time) (model.DashboardStats, error)
	listAllFn   func() ([]model.Reservation, error)
}

func (f *fakeStatsRepo) Dashboard(_ context.Context, now time.Time) (model.DashboardStats, error) {
	return f.dashboardFn(now)
}

func (f *fakeStatsRepo) ListAll(_ context.Context) ([]model.Reservation, error) {
	return f.listAllFn()
}

func TestPeakHoursHistogram_InclusiveEndHour(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	reservations := []model.Reservation{
		{
			StartDate: day.Add(9*time.Hour + 15*time.Minute),
			EndDate:   day.Add(11*time.Hour + 15*time.Minute),
		},
	}

	buckets := PeakHoursHistogram(reservations)

	require.Equal(t, 0, buckets[8])
	require.Equal(t, 1, buckets[9])
	require.Equal(t, 1, buckets[10])
	require.Equal(t, 1, buckets[11], "end hour bucket is counted")
	require.Equal(t, 0, buckets[12])
}

func TestPeakHoursHistogram_Accumulates(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	reservations := []model.Reservation{
		{StartDate: day.Add(9 * time.Hour), EndDate: day.Add(10 * time.Hour)},
		{StartDate: day.Add(9*time.Hour + 30*time.Minute), EndDate: day.Add(12 * time.Hour)},
	}

	buckets := PeakHoursHistogram(reservations)

	require.Equal(t, 2, buckets[9])
	require.Equal(t, 2, buckets[10])
	require.Equal(t, 1, buckets[11])
	require.Equal(t, 1, buckets[12])
	require.Equal(t, 0, buckets[13])
}

func TestStatsService_Dashboard_UsesClock(t *testing.T) {
	t.Parallel()
	want := model.DashboardStats{
		ActiveRooms:           3,
		PendingCount:          2,
		OngoingCount:          1,
		FinishedCount:         5,
		DistinctAttendeeCount: 7,
	}
	repo := &fakeStatsRepo{
		dashboardFn: func(now time.Time) (model.DashboardStats, error) {
			require.Equal(t, testNow, now)
			return want, nil
		},
	}
	svc := NewStatsService(repo, zap.NewNop()).WithClock(fakeClock{t: testNow})

	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStatsService_PeakHours(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeStatsRepo{
		listAllFn: func() ([]model.Reservation, error) {
			return []model.Reservation{
				{StartDate: day.Add(14 * time.Hour), EndDate: day.Add(15 * time.Hour)},
			}, nil
		},
	}
	svc := NewStatsService(repo, zap.NewNop())

	buckets, err := svc.PeakHours(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, buckets[14])
	require.Equal(t, 1, buckets[15])
	require.Equal(t, 0, buckets[16])
}
