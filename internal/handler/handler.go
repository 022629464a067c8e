package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/confbook/booking-service/internal/errs"
	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/pkg/validate"
)

type Handler struct {
	booking     BookingService
	rooms       RoomService
	maintenance MaintenanceService
	stats       StatsService
	auth        AuthService
	log         *zap.Logger
}

func New(booking BookingService, rooms RoomService, maintenance MaintenanceService, stats StatsService, authSvc AuthService, log *zap.Logger) *Handler {
	return &Handler{
		booking:     booking,
		rooms:       rooms,
		maintenance: maintenance,
		stats:       stats,
		auth:        authSvc,
		log:         log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	e.Binder = strictBinder{}
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig()),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/register", h.Register)
	api.POST("/authorize", h.Authorize)

	authed := api.Group("", jwtAuthentication)
	admin := authed.Group("", adminOnly)

	authed.GET("/users/:username", h.GetUser)

	authed.POST("/reservations", h.CreateReservation)
	admin.POST("/reservations/staff", h.CreateStaffBooking)
	admin.PUT("/reservations/:reservationUid/accept", h.AcceptBooking)
	admin.PUT("/reservations/:reservationUid/reject", h.RejectBooking)
	authed.DELETE("/reservations/:reservationUid", h.CancelBooking)
	authed.GET("/reservations", h.ListBookings)
	authed.GET("/reservations/details", h.BookingDetails)

	admin.POST("/rooms", h.CreateRoom)
	authed.GET("/rooms", h.ListRooms)
	admin.DELETE("/rooms/:roomUid", h.DeleteRoom)
	authed.GET("/rooms/:name/availability", h.RoomAvailability)
	admin.POST("/automode", h.SaveAutomode)
	authed.GET("/automode", h.ListAutomode)

	admin.POST("/maintenance", h.ScheduleMaintenance)
	admin.GET("/maintenance", h.ListMaintenance)
	admin.DELETE("/maintenance/:maintenanceUid", h.RemoveMaintenance)
	admin.GET("/maintenance/logs", h.MaintenanceLogs)

	authed.GET("/stats/dashboard", h.DashboardStats)
	authed.GET("/stats/rooms", h.RoomUsage)
	authed.GET("/stats/peak-hours", h.PeakHours)
	authed.GET("/stats/pending-count", h.PendingCount)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps service errors to transport codes. Internal failures are
// logged with context and surfaced as an opaque message.
func (h *Handler) httpError(err error) *echo.HTTPError {
	if ve, ok := errs.AsValidation(err); ok {
		return echo.NewHTTPError(http.StatusBadRequest, ve)
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrUnknownRoom):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrDuplicateRoom), errors.Is(err, errs.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	default:
		h.log.Error("internal", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	user, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) Authorize(c echo.Context) error {
	var req model.AuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	token, err := h.auth.Authorize(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (h *Handler) GetUser(c echo.Context) error {
	user, err := h.auth.GetUser(c.Request().Context(), c.Param("username"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	res, err := h.booking.Submit(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) CreateStaffBooking(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp, err := h.booking.SubmitStaff(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) AcceptBooking(c echo.Context) error {
	uid := c.Param("reservationUid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	res, err := h.booking.Accept(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RejectBooking(c echo.Context) error {
	uid := c.Param("reservationUid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	var req struct {
		Remark string `json:"remark"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.booking.Reject(c.Request().Context(), uid, req.Remark)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CancelBooking(c echo.Context) error {
	uid := c.Param("reservationUid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	if err := h.booking.Cancel(c.Request().Context(), uid); err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}

func (h *Handler) ListBookings(c echo.Context) error {
	room := c.QueryParam("room")
	status := model.Status(c.QueryParam("status"))
	items, err := h.booking.List(c.Request().Context(), room, status)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) BookingDetails(c echo.Context) error {
	room := c.QueryParam("room")
	if room == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "room is empty")
	}
	at, err := parseInstant(c.QueryParam("at"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid at timestamp")
	}
	details, err := h.booking.Details(c.Request().Context(), room, at)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var req model.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	room, err := h.rooms.Create(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *Handler) ListRooms(c echo.Context) error {
	rooms, err := h.rooms.List(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	uid := c.Param("roomUid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "roomUid is empty")
	}
	if err := h.rooms.Delete(c.Request().Context(), uid); err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room deleted"})
}

func (h *Handler) RoomAvailability(c echo.Context) error {
	name := c.Param("name")
	at := time.Now()
	if q := c.QueryParam("at"); q != "" {
		var err error
		if at, err = parseInstant(q); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid at timestamp")
		}
	}
	under, err := h.rooms.UnderMaintenance(c.Request().Context(), name, at)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room": name, "underMaintenance": under})
}

func (h *Handler) SaveAutomode(c echo.Context) error {
	var req struct {
		Rooms []model.AutomodeSetting `json:"rooms" validate:"required,min=1,dive"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.rooms.SaveAutomode(c.Request().Context(), req.Rooms); err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "automode status saved"})
}

func (h *Handler) ListAutomode(c echo.Context) error {
	settings, err := h.rooms.ListAutomode(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *Handler) ScheduleMaintenance(c echo.Context) error {
	var req model.ScheduleMaintenanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	window, err := h.maintenance.Schedule(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, window)
}

func (h *Handler) ListMaintenance(c echo.Context) error {
	windows, err := h.maintenance.List(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, windows)
}

func (h *Handler) RemoveMaintenance(c echo.Context) error {
	uid := c.Param("maintenanceUid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "maintenanceUid is empty")
	}
	entry, err := h.maintenance.Remove(c.Request().Context(), uid)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) MaintenanceLogs(c echo.Context) error {
	logs, err := h.maintenance.ListLog(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) DashboardStats(c echo.Context) error {
	stats, err := h.stats.Dashboard(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) RoomUsage(c echo.Context) error {
	usage, err := h.stats.RoomUsage(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, usage)
}

func (h *Handler) PeakHours(c echo.Context) error {
	buckets, err := h.stats.PeakHours(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, buckets)
}

func (h *Handler) PendingCount(c echo.Context) error {
	stats, err := h.stats.Dashboard(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pendingRequestsCount": stats.PendingCount})
}

// strictBinder decodes JSON bodies rejecting unknown fields, so partial or
// misspelled documents fail loudly instead of being silently accepted.
type strictBinder struct{}

func (strictBinder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	if req.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// parseInstant accepts RFC3339 or unix milliseconds, matching the slot
// rendering clients.
func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
