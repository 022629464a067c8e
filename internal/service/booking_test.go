package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/internal/repository"
	"github.com/confbook/booking-service/pkg/kafka"
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeReservationRepo struct {
	repository.ReservationRepository

	createFn func(req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error)
	staffFn  func(req model.CreateReservationRequest, remark string) (model.Reservation, []model.Reservation, error)
	getFn    func(uid string) (model.Reservation, error)
	updateFn func(uid string, status model.Status, remark *string) (model.Reservation, error)
	deleteFn func(uid string) error
}

func (f *fakeReservationRepo) Create(_ context.Context, req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error) {
	return f.createFn(req, origin, status)
}

func (f *fakeReservationRepo) CreateStaffBooking(_ context.Context, req model.CreateReservationRequest, remark string) (model.Reservation, []model.Reservation, error) {
	return f.staffFn(req, remark)
}

func (f *fakeReservationRepo) Get(_ context.Context, uid string) (model.Reservation, error) {
	return f.getFn(uid)
}

func (f *fakeReservationRepo) UpdateStatus(_ context.Context, uid string, status model.Status, remark *string) (model.Reservation, error) {
	return f.updateFn(uid, status, remark)
}

func (f *fakeReservationRepo) Delete(_ context.Context, uid string) error {
	return f.deleteFn(uid)
}

type fakeRoomRepo struct {
	repository.RoomRepository
	rooms map[string]bool
}

func (f *fakeRoomRepo) Exists(_ context.Context, name string) (bool, error) {
	return f.rooms[name], nil
}

type recordingNotifier struct {
	events []kafka.EventNotify
}

func (n *recordingNotifier) Notify(event kafka.EventNotify) {
	n.events = append(n.events, event)
}

var testNow = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

func validRequest() model.CreateReservationRequest {
	return model.CreateReservationRequest{
		Room:      "conference-a",
		Requester: "alice",
		Subject:   "sprint review",
		StartDate: testNow.Add(time.Hour),
		EndDate:   testNow.Add(2 * time.Hour),
		Emails:    []string{"alice@example.com"},
	}
}

func newBookingService(repo *fakeReservationRepo, notifier Notifier) *BookingService {
	rooms := &fakeRoomRepo{rooms: map[string]bool{"conference-a": true}}
	return NewBookingService(repo, rooms, notifier, zap.NewNop()).WithClock(fakeClock{t: testNow})
}

func TestBookingService_Submit(t *testing.T) {
	t.Parallel()
	repo := &fakeReservationRepo{
		createFn: func(req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error) {
			require.Equal(t, model.OriginSelf, origin)
			require.Equal(t, model.StatusPending, status)
			return model.Reservation{Room: req.Room, Status: status, Origin: origin}, nil
		},
	}
	svc := newBookingService(repo, &recordingNotifier{})

	res, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, res.Status)
}

func TestBookingService_Submit_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		mutate    func(*model.CreateReservationRequest)
		wantField string
	}{
		{
			name: "start after end",
			mutate: func(r *model.CreateReservationRequest) {
				r.StartDate, r.EndDate = r.EndDate, r.StartDate
			},
			wantField: "startDate",
		},
		{
			name: "start in the past",
			mutate: func(r *model.CreateReservationRequest) {
				r.StartDate = testNow.Add(-time.Hour)
			},
			wantField: "startDate",
		},
		{
			name: "beyond one month horizon",
			mutate: func(r *model.CreateReservationRequest) {
				r.StartDate = testNow.AddDate(0, 1, 2)
				r.EndDate = r.StartDate.Add(time.Hour)
			},
			wantField: "endDate",
		},
		{
			name: "before daily window",
			mutate: func(r *model.CreateReservationRequest) {
				r.StartDate = time.Date(2024, 7, 16, 8, 0, 0, 0, time.UTC)
				r.EndDate = time.Date(2024, 7, 16, 9, 0, 0, 0, time.UTC)
			},
			wantField: "startDate",
		},
		{
			name: "after daily window",
			mutate: func(r *model.CreateReservationRequest) {
				r.StartDate = time.Date(2024, 7, 16, 17, 0, 0, 0, time.UTC)
				r.EndDate = time.Date(2024, 7, 16, 18, 30, 0, 0, time.UTC)
			},
			wantField: "endDate",
		},
		{
			name: "no attendees",
			mutate: func(r *model.CreateReservationRequest) {
				r.Emails = nil
			},
			wantField: "email",
		},
		{
			name: "unknown room",
			mutate: func(r *model.CreateReservationRequest) {
				r.Room = "basement"
			},
			wantField: "room",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newBookingService(&fakeReservationRepo{}, &recordingNotifier{})
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			ve, ok := errs.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			require.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestBookingService_Submit_WindowBoundaries(t *testing.T) {
	t.Parallel()
	repo := &fakeReservationRepo{
		createFn: func(req model.CreateReservationRequest, origin model.Origin, status model.Status) (model.Reservation, error) {
			return model.Reservation{Status: status}, nil
		},
	}
	svc := newBookingService(repo, &recordingNotifier{})

	// 08:30 start and 18:00 end are both allowed exactly at the boundary.
	req := validRequest()
	req.StartDate = time.Date(2024, 7, 16, 8, 30, 0, 0, time.UTC)
	req.EndDate = time.Date(2024, 7, 16, 18, 0, 0, 0, time.UTC)
	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
}

func TestBookingService_SubmitStaff_Evicts(t *testing.T) {
	t.Parallel()
	evicted := model.Reservation{
		ReservationUid: "11111111-1111-1111-1111-111111111111",
		Room:           "conference-a",
		Status:         model.StatusRejected,
		Emails:         model.Emails{"bob@example.com"},
		StartDate:      testNow.Add(90 * time.Minute),
		EndDate:        testNow.Add(150 * time.Minute),
	}
	repo := &fakeReservationRepo{
		staffFn: func(req model.CreateReservationRequest, remark string) (model.Reservation, []model.Reservation, error) {
			require.NotEmpty(t, remark)
			return model.Reservation{Room: req.Room, Status: model.StatusAccepted, Origin: model.OriginStaff},
				[]model.Reservation{evicted}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newBookingService(repo, notifier)

	resp, err := svc.SubmitStaff(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, resp.Reservation.Status)
	require.Len(t, resp.Evicted, 1)

	require.Len(t, notifier.events, 1)
	require.Equal(t, []string{"bob@example.com"}, notifier.events[0].Emails)
	require.Equal(t, string(model.StatusRejected), notifier.events[0].Outcome)
}

func TestBookingService_Accept_Idempotent(t *testing.T) {
	t.Parallel()
	repo := &fakeReservationRepo{
		getFn: func(uid string) (model.Reservation, error) {
			return model.Reservation{ReservationUid: uid, Status: model.StatusAccepted}, nil
		},
		updateFn: func(uid string, status model.Status, remark *string) (model.Reservation, error) {
			t.Fatal("UpdateStatus must not be called for an already-accepted reservation")
			return model.Reservation{}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newBookingService(repo, notifier)

	res, err := svc.Accept(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, res.Status)
	require.Empty(t, notifier.events, "no side effects may be re-triggered")
}

func TestBookingService_Accept_Pending(t *testing.T) {
	t.Parallel()
	repo := &fakeReservationRepo{
		getFn: func(uid string) (model.Reservation, error) {
			return model.Reservation{ReservationUid: uid, Status: model.StatusPending}, nil
		},
		updateFn: func(uid string, status model.Status, remark *string) (model.Reservation, error) {
			require.Equal(t, model.StatusAccepted, status)
			require.Nil(t, remark)
			return model.Reservation{ReservationUid: uid, Status: status, Emails: model.Emails{"a@b.c"}}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newBookingService(repo, notifier)

	res, err := svc.Accept(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, res.Status)
	require.Len(t, notifier.events, 1)
}

func TestBookingService_Reject_RemarkValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		remark  string
		wantErr bool
	}{
		{name: "too short", remark: strings.Repeat("a", 19), wantErr: true},
		{name: "minimum length", remark: strings.Repeat("a", 20), wantErr: false},
		{name: "maximum length", remark: strings.Repeat("a", 250), wantErr: false},
		{name: "too long", remark: strings.Repeat("a", 251), wantErr: true},
		{name: "maximum length multibyte", remark: strings.Repeat("ж", 250), wantErr: false},
		{name: "too long multibyte", remark: strings.Repeat("ж", 251), wantErr: true},
		{name: "starts with multibyte letter", remark: "Ж" + strings.Repeat("a", 25), wantErr: false},
		{name: "starts with punctuation", remark: "!" + strings.Repeat("a", 25), wantErr: true},
		{name: "only whitespace", remark: strings.Repeat(" ", 30), wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeReservationRepo{
				updateFn: func(uid string, status model.Status, remark *string) (model.Reservation, error) {
					require.Equal(t, model.StatusRejected, status)
					require.NotNil(t, remark)
					return model.Reservation{ReservationUid: uid, Status: status, Remark: remark}, nil
				},
			}
			svc := newBookingService(repo, &recordingNotifier{})

			_, err := svc.Reject(context.Background(), "uid-1", tt.remark)
			if tt.wantErr {
				_, ok := errs.AsValidation(err)
				require.True(t, ok, "expected validation error, got %v", err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	t.Parallel()
	repo := &fakeReservationRepo{
		deleteFn: func(uid string) error { return errs.ErrNotFound },
	}
	svc := newBookingService(repo, &recordingNotifier{})

	err := svc.Cancel(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
