package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/student/internal/errs"
	"github.com/Astemirdum/foyer-service/student/internal/handler"
	service_mocks "github.com/Astemirdum/foyer-service/student/internal/handler/mocks"
	"github.com/Astemirdum/foyer-service/student/internal/model"
)

func TestHandler_Students(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockStudentService)

	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "get ok",
			method: http.MethodGet,
			target: "/students/1",
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().GetStudent(gomock.Any(), int64(1)).
					Return(model.Student{ID: 1, FirstName: "Amine", LastName: "Ben Salah", Cin: 11223344, ReservationIDs: []string{"a"}}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":1,"firstName":"Amine","lastName":"Ben Salah","cin":11223344,"school":"","reservationIds":["a"]}`,
			},
		},
		{
			name:   "get not found",
			method: http.MethodGet,
			target: "/students/2",
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().GetStudent(gomock.Any(), int64(2)).Return(model.Student{}, errors.Wrap(errs.ErrNotFound, "student 2"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"student 2: not found"}`,
			},
		},
		{
			name:         "get bad id",
			method:       http.MethodGet,
			target:       "/students/abc",
			mockBehavior: func(r *service_mocks.MockStudentService) {},
			response:     response{expectedCode: http.StatusBadRequest},
		},
		{
			name:   "by cin",
			method: http.MethodGet,
			target: "/students/cin/11223344",
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().GetStudentByCin(gomock.Any(), int64(11223344)).Return(model.Student{ID: 1, Cin: 11223344}, nil)
			},
			response: response{expectedCode: http.StatusOK},
		},
		{
			name:   "add conflict",
			method: http.MethodPost,
			target: "/students",
			body:   `{"firstName":"Amine","lastName":"Ben Salah","cin":11223344}`,
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().AddStudent(gomock.Any(), model.Student{FirstName: "Amine", LastName: "Ben Salah", Cin: 11223344}).
					Return(model.Student{}, errs.ErrConflict)
			},
			response: response{expectedCode: http.StatusConflict},
		},
		{
			name:   "add invalid",
			method: http.MethodPost,
			target: "/students",
			body:   `{"lastName":"Ben Salah"}`,
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().AddStudent(gomock.Any(), gomock.Any()).Return(model.Student{}, errs.ErrInvalid)
			},
			response: response{expectedCode: http.StatusBadRequest},
		},
		{
			name:   "update reservations",
			method: http.MethodPut,
			target: "/students/1/reservations",
			body:   `{"reservationIds":["a","b"]}`,
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().UpdateStudentReservations(gomock.Any(), int64(1), []string{"a", "b"}).Return(nil)
			},
			response: response{expectedCode: http.StatusNoContent},
		},
		{
			name:   "delete not found",
			method: http.MethodDelete,
			target: "/students/3",
			mockBehavior: func(r *service_mocks.MockStudentService) {
				r.EXPECT().DeleteStudent(gomock.Any(), int64(3)).Return(errs.ErrNotFound)
			},
			response: response{expectedCode: http.StatusNotFound},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockStudentService(c)
			tt.mockBehavior(svc)
			h := handler.New(svc, zap.NewNop())

			e := echo.New()
			e.POST("/students", h.AddStudent)
			e.GET("/students/cin/:cin", h.GetStudentByCin)
			e.GET("/students/:id", h.GetStudent)
			e.DELETE("/students/:id", h.DeleteStudent)
			e.PUT("/students/:id/reservations", h.UpdateReservations)

			r := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			if tt.body != "" {
				r = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}
