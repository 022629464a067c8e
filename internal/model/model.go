package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Origin distinguishes self-service requests from direct staff bookings.
type Origin string

const (
	OriginSelf  Origin = "self"
	OriginStaff Origin = "staff"
)

// Emails is stored as a jsonb column.
type Emails []string

func (e Emails) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Emails) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	}
	return errors.Errorf("emails: unsupported scan type %T", src)
}

type Room struct {
	ID          int    `json:"-" db:"id"`
	RoomUid     string `json:"roomUid" db:"room_uid"`
	Name        string `json:"name" db:"name"`
	Capacity    int    `json:"capacity" db:"capacity"`
	Description string `json:"description" db:"description"`
}

type Reservation struct {
	ID             int       `json:"-" db:"id"`
	ReservationUid string    `json:"reservationUid" db:"reservation_uid"`
	Room           string    `json:"room" db:"room"`
	Requester      string    `json:"name" db:"requester"`
	Subject        string    `json:"subject" db:"subject"`
	StartDate      time.Time `json:"startDate" db:"start_date"`
	EndDate        time.Time `json:"endDate" db:"end_date"`
	Emails         Emails    `json:"email" db:"emails"`
	Origin         Origin    `json:"origin" db:"origin"`
	Status         Status    `json:"status" db:"status"`
	Remark         *string   `json:"remark,omitempty" db:"remark"`
}

func (r Reservation) Range() TimeRange {
	return TimeRange{Start: r.StartDate, End: r.EndDate}
}

type Maintenance struct {
	ID             int       `json:"-" db:"id"`
	MaintenanceUid string    `json:"maintenanceUid" db:"maintenance_uid"`
	Room           string    `json:"room" db:"room"`
	Performer      string    `json:"name" db:"performer"`
	Reason         string    `json:"reason" db:"reason"`
	StartDate      time.Time `json:"startDate" db:"start_date"`
	EndDate        time.Time `json:"endDate" db:"end_date"`
}

func (m Maintenance) Range() TimeRange {
	return TimeRange{Start: m.StartDate, End: m.EndDate}
}

// MaintenanceLog is an append-only record of a completed maintenance window.
type MaintenanceLog struct {
	ID             int       `json:"-" db:"id"`
	MaintenanceUid string    `json:"maintenanceUid" db:"maintenance_uid"`
	Room           string    `json:"room" db:"room"`
	Performer      string    `json:"name" db:"performer"`
	Reason         string    `json:"reason" db:"reason"`
	StartDate      time.Time `json:"startDate" db:"start_date"`
	EndDate        time.Time `json:"endDate" db:"end_date"`
	CompletedDate  time.Time `json:"completedDate" db:"completed_date"`
}

type User struct {
	ID           int    `json:"-" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type AutomodeSetting struct {
	RoomName string `json:"roomName" db:"room_name" validate:"required"`
	Automode bool   `json:"automode" db:"automode"`
}

type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Description string `json:"description"`
}

type CreateReservationRequest struct {
	Room      string    `json:"room" validate:"required"`
	Requester string    `json:"name" validate:"required"`
	Subject   string    `json:"subject" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Emails    []string  `json:"email" validate:"required,min=1,dive,email"`
}

// StaffBookingResponse carries the evicted reservations so the caller can
// notify affected parties.
type StaffBookingResponse struct {
	Reservation Reservation   `json:"reservation"`
	Evicted     []Reservation `json:"rejectedBookings"`
}

type ScheduleMaintenanceRequest struct {
	Room         string `json:"room" validate:"required"`
	Performer    string `json:"name" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
	DurationDays int    `json:"durationDays" validate:"required,min=1"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
}

type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type DashboardStats struct {
	ActiveRooms           int `json:"activeRooms"`
	PendingCount          int `json:"pendingCount"`
	OngoingCount          int `json:"ongoingCount"`
	FinishedCount         int `json:"finishedCount"`
	DistinctAttendeeCount int `json:"distinctAttendeeCount"`
}

type BookingDetails struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}
