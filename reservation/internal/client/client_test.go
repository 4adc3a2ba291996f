package client_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/config"
	"github.com/Astemirdum/foyer-service/reservation/internal/client"
	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

func directoryConfig(t *testing.T, srv *httptest.Server) config.DirectoryHTTPServer {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	return config.DirectoryHTTPServer{Host: host, Port: port, Timeout: time.Second}
}

func TestStudentClient(t *testing.T) {
	t.Parallel()
	var updated []string
	e := echo.New()
	e.GET("/api/v1/students/1", func(c echo.Context) error {
		return c.JSON(http.StatusOK, model.Student{ID: 1, ReservationIDs: []string{"a"}})
	})
	e.GET("/api/v1/students/2", func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})
	e.GET("/api/v1/students/3", func(c echo.Context) error {
		return c.NoContent(http.StatusBadGateway)
	})
	e.PUT("/api/v1/students/1/reservations", func(c echo.Context) error {
		var body struct {
			ReservationIDs []string `json:"reservationIds"`
		}
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		updated = body.ReservationIDs
		return c.NoContent(http.StatusNoContent)
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	cl := client.NewStudentClient(zap.NewNop(), directoryConfig(t, srv))
	ctx := context.Background()

	student, err := cl.GetStudent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, model.Student{ID: 1, ReservationIDs: []string{"a"}}, student)

	_, err = cl.GetStudent(ctx, 2)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = cl.GetStudent(ctx, 3)
	require.ErrorIs(t, err, errs.ErrUnavailable)

	require.NoError(t, cl.UpdateStudentReservations(ctx, 1, nil))
	require.Equal(t, []string{}, updated)
	require.NoError(t, cl.UpdateStudentReservations(ctx, 1, []string{"a", "b"}))
	require.Equal(t, []string{"a", "b"}, updated)
}

func TestRoomClient(t *testing.T) {
	t.Parallel()
	var available *bool
	e := echo.New()
	e.GET("/api/v1/rooms/10", func(c echo.Context) error {
		return c.JSON(http.StatusOK, model.Room{ID: 10, Available: true})
	})
	e.PUT("/api/v1/rooms/10/availability", func(c echo.Context) error {
		var body struct {
			Available *bool `json:"available"`
		}
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		available = body.Available
		return c.NoContent(http.StatusNoContent)
	})
	e.PUT("/api/v1/rooms/10/reservations", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad ids")
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	cl := client.NewRoomClient(zap.NewNop(), directoryConfig(t, srv))
	ctx := context.Background()

	room, err := cl.GetRoom(ctx, 10)
	require.NoError(t, err)
	require.True(t, room.Available)
	require.Empty(t, room.ReservationIDs)

	require.NoError(t, cl.UpdateRoomAvailability(ctx, 10, false))
	require.NotNil(t, available)
	require.False(t, *available)

	err = cl.UpdateRoomReservations(ctx, 10, []string{"a"})
	require.ErrorIs(t, err, errs.ErrRejected)
	require.NotErrorIs(t, err, errs.ErrUnavailable)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := directoryConfig(t, srv)
	srv.Close()

	cl := client.NewRoomClient(zap.NewNop(), cfg)
	_, err := cl.GetRoom(context.Background(), 10)
	require.ErrorIs(t, err, errs.ErrUnavailable)
}
