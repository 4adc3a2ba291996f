package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	md "github.com/Astemirdum/foyer-service/pkg/middleware"
	"github.com/Astemirdum/foyer-service/pkg/validate"
	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
	_ "github.com/Astemirdum/foyer-service/reservation/swagger"
)

type Handler struct {
	reservationSvc ReservationService
	log            *zap.Logger
}

func New(reservationSvc ReservationService, log *zap.Logger) *Handler {
	return &Handler{
		reservationSvc: reservationSvc,
		log:            log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	md.Use(e)

	base := e.Group("", md.NewRateLimiter(md.BaseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(md.APIRPS),
	)

	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations", h.GetReservationsByStudent)
	api.GET("/reservations/:id", h.GetReservation)
	api.POST("/reservations/:id/cancel", h.CancelReservation)
	api.GET("/rooms/:roomId/reservations", h.GetReservationsByRoom)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// CreateReservation
// @Summary Reserve a room for a student and academic year
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body model.CreateReservationRequest true "reservation"
// @Success 201 {object} model.Reservation
// @Failure 400,404,409,503 {object} echo.HTTPError
// @Router /api/v1/reservations [post]
func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rsv, err := h.reservationSvc.CreateReservation(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rsv)
}

// GetReservation
// @Summary Get a reservation by id
// @Tags reservations
// @Produce json
// @Param id path string true "reservation id"
// @Success 200 {object} model.Reservation
// @Failure 404 {object} echo.HTTPError
// @Router /api/v1/reservations/{id} [get]
func (h *Handler) GetReservation(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is empty")
	}
	rsv, err := h.reservationSvc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// CancelReservation
// @Summary Cancel a reservation; the record is kept with isValid=false
// @Tags reservations
// @Param id path string true "reservation id"
// @Success 204
// @Failure 404,503 {object} echo.HTTPError
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *Handler) CancelReservation(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is empty")
	}
	if err := h.reservationSvc.CancelReservation(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReservationsByStudent
// @Summary List every reservation of a student
// @Tags reservations
// @Produce json
// @Param studentId query int true "student id"
// @Success 200 {array} model.Reservation
// @Router /api/v1/reservations [get]
func (h *Handler) GetReservationsByStudent(c echo.Context) error {
	studentID, err := strconv.ParseInt(c.QueryParam("studentId"), 10, 64)
	if err != nil || studentID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "studentId is invalid")
	}
	items, err := h.reservationSvc.GetReservationsByStudent(c.Request().Context(), studentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetReservationsByRoom
// @Summary List valid reservations of a room for an academic year
// @Tags reservations
// @Produce json
// @Param roomId path int true "room id"
// @Param academicYear query int true "academic year"
// @Success 200 {array} model.Reservation
// @Router /api/v1/rooms/{roomId}/reservations [get]
func (h *Handler) GetReservationsByRoom(c echo.Context) error {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "roomId is invalid")
	}
	year, err := strconv.Atoi(c.QueryParam("academicYear"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "academicYear is invalid")
	}
	items, err := h.reservationSvc.GetReservationsByRoomAndYear(c.Request().Context(), roomID, year)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
