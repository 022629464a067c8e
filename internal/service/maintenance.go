package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
)

type MaintenanceService struct {
	log   *zap.Logger
	repo  repository.MaintenanceRepository
	rooms repository.RoomRepository
	clock Clock
}

func NewMaintenanceService(repo repository.MaintenanceRepository, rooms repository.RoomRepository, log *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		log:   log,
		repo:  repo,
		rooms: rooms,
		clock: RealClock{},
	}
}

func (s *MaintenanceService) WithClock(clock Clock) *MaintenanceService {
	s.clock = clock
	return s
}

// Schedule takes a room out of service for durationDays starting now.
func (s *MaintenanceService) Schedule(ctx context.Context, req model.ScheduleMaintenanceRequest) (model.Maintenance, error) {
	if req.DurationDays < 1 {
		return model.Maintenance{}, errs.NewValidation("durationDays", "must be at least 1")
	}
	exists, err := s.rooms.Exists(ctx, req.Room)
	if err != nil {
		return model.Maintenance{}, err
	}
	if !exists {
		return model.Maintenance{}, errs.NewValidation("room", "unknown room")
	}
	now := s.clock.Now()
	return s.repo.Create(ctx, model.Maintenance{
		Room:      req.Room,
		Performer: req.Performer,
		Reason:    req.Reason,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, req.DurationDays),
	})
}

// Remove completes a window early. The deletion and the log append happen in
// one repository transaction, so a concurrent sweep sees either both or
// neither.
func (s *MaintenanceService) Remove(ctx context.Context, uid string) (model.MaintenanceLog, error) {
	return s.repo.Complete(ctx, uid, s.clock.Now())
}

func (s *MaintenanceService) List(ctx context.Context) ([]model.Maintenance, error) {
	return s.repo.List(ctx)
}

func (s *MaintenanceService) ListLog(ctx context.Context) ([]model.MaintenanceLog, error) {
	return s.repo.ListLog(ctx)
}

// Sweep expires every window whose end has passed. Safe to call concurrently
// with Remove: already-removed windows are simply not found again.
func (s *MaintenanceService) Sweep(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if len(expired) > 0 {
		s.log.Info("maintenance sweep", zap.Int("expired", len(expired)))
	}
	return len(expired), nil
}

// RunSweeper blocks, sweeping on every tick until ctx is cancelled.
func (s *MaintenanceService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("maintenance sweep", zap.Error(err))
			}
		}
	}
}
