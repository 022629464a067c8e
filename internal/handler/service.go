package handler

import (
	"context"
	"time"

	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookingService interface {
	Submit(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	SubmitStaff(ctx context.Context, req model.CreateReservationRequest) (model.StaffBookingResponse, error)
	Accept(ctx context.Context, uid string) (model.Reservation, error)
	Reject(ctx context.Context, uid, remark string) (model.Reservation, error)
	Cancel(ctx context.Context, uid string) error
	List(ctx context.Context, room string, status model.Status) ([]model.Reservation, error)
	Details(ctx context.Context, room string, at time.Time) (model.BookingDetails, error)
}

type RoomService interface {
	Create(ctx context.Context, req model.CreateRoomRequest) (model.Room, error)
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context) ([]model.Room, error)
	UnderMaintenance(ctx context.Context, room string, at time.Time) (bool, error)
	SaveAutomode(ctx context.Context, settings []model.AutomodeSetting) error
	ListAutomode(ctx context.Context) ([]model.AutomodeSetting, error)
}

type MaintenanceService interface {
	Schedule(ctx context.Context, req model.ScheduleMaintenanceRequest) (model.Maintenance, error)
	Remove(ctx context.Context, uid string) (model.MaintenanceLog, error)
	List(ctx context.Context) ([]model.Maintenance, error)
	ListLog(ctx context.Context) ([]model.MaintenanceLog, error)
}

type StatsService interface {
	Dashboard(ctx context.Context) (model.DashboardStats, error)
	RoomUsage(ctx context.Context) (map[string]int, error)
	PeakHours(ctx context.Context) ([24]int, error)
}

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.User, error)
	Authorize(ctx context.Context, req model.AuthRequest) (string, error)
	GetUser(ctx context.Context, username string) (model.User, error)
}

var (
	_ BookingService     = (*service.BookingService)(nil)
	_ RoomService        = (*service.RoomService)(nil)
	_ MaintenanceService = (*service.MaintenanceService)(nil)
	_ StatsService       = (*service.StatsService)(nil)
	_ AuthService        = (*service.AuthService)(nil)
)
