package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
	"github.com/confbook/booking-service/pkg/kafka"
)

const (
	// Bookable window within a day, minutes from midnight local time.
	dayWindowOpen  = 8*60 + 30
	dayWindowClose = 18 * 60

	remarkMinLen = 20
	remarkMaxLen = 250

	// Attached to reservations rejected by a conflicting staff booking.
	evictionRemark = "Automatically rejected: the slot was taken over by a staff booking."
)

type BookingService struct {
	log      *zap.Logger
	repo     repository.ReservationRepository
	rooms    repository.RoomRepository
	notifier Notifier
	clock    Clock
}

func NewBookingService(repo repository.ReservationRepository, rooms repository.RoomRepository, notifier Notifier, log *zap.Logger) *BookingService {
	return &BookingService{
		log:      log,
		repo:     repo,
		rooms:    rooms,
		notifier: notifier,
		clock:    RealClock{},
	}
}

// WithClock overrides the time source, for tests.
func (s *BookingService) WithClock(clock Clock) *BookingService {
	s.clock = clock
	return s
}

// Submit validates and stores a self-service reservation as pending.
func (s *BookingService) Submit(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return model.Reservation{}, err
	}
	return s.repo.Create(ctx, req, model.OriginSelf, model.StatusPending)
}

// SubmitStaff stores a staff booking as accepted and evicts every other
// accepted reservation in the room whose range overlaps. Staff bookings are
// authoritative scheduling decisions, so the newest one always wins.
func (s *BookingService) SubmitStaff(ctx context.Context, req model.CreateReservationRequest) (model.StaffBookingResponse, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return model.StaffBookingResponse{}, err
	}
	res, evicted, err := s.repo.CreateStaffBooking(ctx, req, evictionRemark)
	if err != nil {
		return model.StaffBookingResponse{}, err
	}
	for _, ev := range evicted {
		s.notifier.Notify(kafka.EventNotify{
			Emails:  ev.Emails,
			Room:    ev.Room,
			Outcome: string(model.StatusRejected),
			Remark:  evictionRemark,
			Start:   ev.StartDate,
			End:     ev.EndDate,
		})
	}
	s.log.Info("staff booking",
		zap.String("room", req.Room),
		zap.Int("evicted", len(evicted)))
	return model.StaffBookingResponse{Reservation: res, Evicted: evicted}, nil
}

// Accept promotes a pending reservation. Accepting an already-accepted
// reservation returns the current state without re-sending notifications.
func (s *BookingService) Accept(ctx context.Context, uid string) (model.Reservation, error) {
	current, err := s.repo.Get(ctx, uid)
	if err != nil {
		return model.Reservation{}, err
	}
	if current.Status == model.StatusAccepted {
		return current, nil
	}
	res, err := s.repo.UpdateStatus(ctx, uid, model.StatusAccepted, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	s.notifier.Notify(kafka.EventNotify{
		Emails:  res.Emails,
		Room:    res.Room,
		Outcome: string(model.StatusAccepted),
		Start:   res.StartDate,
		End:     res.EndDate,
	})
	return res, nil
}

func (s *BookingService) Reject(ctx context.Context, uid, remark string) (model.Reservation, error) {
	remark = strings.TrimSpace(remark)
	if err := validateRemark(remark); err != nil {
		return model.Reservation{}, err
	}
	res, err := s.repo.UpdateStatus(ctx, uid, model.StatusRejected, &remark)
	if err != nil {
		return model.Reservation{}, err
	}
	s.notifier.Notify(kafka.EventNotify{
		Emails:  res.Emails,
		Room:    res.Room,
		Outcome: string(model.StatusRejected),
		Remark:  remark,
		Start:   res.StartDate,
		End:     res.EndDate,
	})
	return res, nil
}

// Cancel is a hard delete; cancellations are not journaled.
func (s *BookingService) Cancel(ctx context.Context, uid string) error {
	return s.repo.Delete(ctx, uid)
}

func (s *BookingService) List(ctx context.Context, room string, status model.Status) ([]model.Reservation, error) {
	if status != "" && !status.Valid() {
		return nil, errs.NewValidation("status", "must be one of pending, accepted, rejected")
	}
	return s.repo.List(ctx, room, status)
}

// Details returns who holds the room at the given instant.
func (s *BookingService) Details(ctx context.Context, room string, at time.Time) (model.BookingDetails, error) {
	res, err := s.repo.FindCovering(ctx, room, at)
	if err != nil {
		return model.BookingDetails{}, err
	}
	return model.BookingDetails{Name: res.Requester, Subject: res.Subject}, nil
}

func (s *BookingService) validateRequest(ctx context.Context, req model.CreateReservationRequest) error {
	now := s.clock.Now()
	if err := ValidateRange(model.TimeRange{Start: req.StartDate, End: req.EndDate}, now); err != nil {
		return err
	}
	if len(req.Emails) == 0 {
		return errs.NewValidation("email", "at least one attendee email is required")
	}
	exists, err := s.rooms.Exists(ctx, req.Room)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewValidation("room", "unknown room")
	}
	return nil
}

// ValidateRange enforces the booking policy: a positive range starting no
// earlier than now, ending within one month, with both endpoints inside the
// 08:30-18:00 daily window.
func ValidateRange(r model.TimeRange, now time.Time) error {
	if !r.IsValid() {
		return errs.NewValidation("startDate", "start must be before end")
	}
	if r.Start.Before(now) {
		return errs.NewValidation("startDate", "booking must not start in the past")
	}
	if r.End.After(now.AddDate(0, 1, 0)) {
		return errs.NewValidation("endDate", "booking is only allowed for the next month")
	}
	if !withinDayWindow(r.Start) {
		return errs.NewValidation("startDate", "bookings are allowed between 08:30 and 18:00")
	}
	if !withinDayWindow(r.End) {
		return errs.NewValidation("endDate", "bookings are allowed between 08:30 and 18:00")
	}
	return nil
}

func withinDayWindow(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= dayWindowOpen && minutes <= dayWindowClose
}

func validateRemark(remark string) error {
	// Limits count characters, not bytes.
	if n := utf8.RuneCountInString(remark); n < remarkMinLen || n > remarkMaxLen {
		return errs.NewValidation("remark", "remark must be between 20 and 250 characters")
	}
	first, _ := utf8.DecodeRuneInString(remark)
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return errs.NewValidation("remark", "remark cannot start with special characters or spaces")
	}
	return nil
}
