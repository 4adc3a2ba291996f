package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	md "github.com/Astemirdum/foyer-service/pkg/middleware"
	"github.com/Astemirdum/foyer-service/pkg/validate"
	"github.com/Astemirdum/foyer-service/room/internal/errs"
	"github.com/Astemirdum/foyer-service/room/internal/model"
)

type Handler struct {
	roomSvc RoomService
	log     *zap.Logger
}

func New(roomSvc RoomService, log *zap.Logger) *Handler {
	return &Handler{
		roomSvc: roomSvc,
		log:     log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	md.Use(e)

	base := e.Group("", md.NewRateLimiter(md.BaseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(md.APIRPS),
	)

	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)
	api.PUT("/rooms/:id/reservations", h.UpdateReservations)
	api.PUT("/rooms/:id/availability", h.UpdateAvailability)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var room model.Room
	if err := c.Bind(&room); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.roomSvc.CreateRoom(c.Request().Context(), room)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListRooms(c echo.Context) error {
	var available *bool
	if param := c.QueryParam("available"); param != "" {
		v, err := strconv.ParseBool(param)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available is invalid")
		}
		available = &v
	}
	items, err := h.roomSvc.ListRooms(c.Request().Context(), available)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := roomID(c)
	if err != nil {
		return err
	}
	room, err := h.roomSvc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) UpdateReservations(c echo.Context) error {
	id, err := roomID(c)
	if err != nil {
		return err
	}
	var req model.UpdateReservationsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.roomSvc.UpdateRoomReservations(c.Request().Context(), id, req.ReservationIDs); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateAvailability(c echo.Context) error {
	id, err := roomID(c)
	if err != nil {
		return err
	}
	var req model.UpdateAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.roomSvc.UpdateRoomAvailability(c.Request().Context(), id, *req.Available); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func roomID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
