package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
)

// StatsService is stateless: every call recomputes from the store.
type StatsService struct {
	log   *zap.Logger
	repo  repository.StatsRepository
	clock Clock
}

func NewStatsService(repo repository.StatsRepository, log *zap.Logger) *StatsService {
	return &StatsService{
		log:   log,
		repo:  repo,
		clock: RealClock{},
	}
}

func (s *StatsService) WithClock(clock Clock) *StatsService {
	s.clock = clock
	return s
}

func (s *StatsService) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	return s.repo.Dashboard(ctx, s.clock.Now())
}

func (s *StatsService) RoomUsage(ctx context.Context) (map[string]int, error) {
	return s.repo.RoomUsage(ctx)
}

func (s *StatsService) PeakHours(ctx context.Context) ([24]int, error) {
	reservations, err := s.repo.ListAll(ctx)
	if err != nil {
		return [24]int{}, err
	}
	return PeakHoursHistogram(reservations), nil
}

// PeakHoursHistogram increments every hour bucket a reservation touches,
// including the bucket of its end hour. The trend charts have always counted
// the end hour, so that behavior is kept for compatibility.
func PeakHoursHistogram(reservations []model.Reservation) [24]int {
	var buckets [24]int
	for _, res := range reservations {
		start := res.StartDate.Hour()
		end := res.EndDate.Hour()
		if end < start {
			continue
		}
		for h := start; h <= end && h < 24; h++ {
			buckets[h]++
		}
	}
	return buckets
}
