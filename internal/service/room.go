package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
)

type RoomService struct {
	log         *zap.Logger
	repo        repository.RoomRepository
	maintenance repository.MaintenanceRepository
}

func NewRoomService(repo repository.RoomRepository, maintenance repository.MaintenanceRepository, log *zap.Logger) *RoomService {
	return &RoomService{
		log:         log,
		repo:        repo,
		maintenance: maintenance,
	}
}

func (s *RoomService) Create(ctx context.Context, req model.CreateRoomRequest) (model.Room, error) {
	return s.repo.Create(ctx, req)
}

func (s *RoomService) Delete(ctx context.Context, uid string) error {
	return s.repo.Delete(ctx, uid)
}

func (s *RoomService) List(ctx context.Context) ([]model.Room, error) {
	return s.repo.List(ctx)
}

// UnderMaintenance reports whether an active maintenance window covers the
// room at the given instant. Selection UIs disable such rooms.
func (s *RoomService) UnderMaintenance(ctx context.Context, room string, at time.Time) (bool, error) {
	return s.maintenance.ActiveForRoom(ctx, room, at)
}

func (s *RoomService) SaveAutomode(ctx context.Context, settings []model.AutomodeSetting) error {
	return s.repo.SaveAutomode(ctx, settings)
}

func (s *RoomService) ListAutomode(ctx context.Context) ([]model.AutomodeSetting, error) {
	return s.repo.ListAutomode(ctx)
}
