package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/student/internal/errs"
	"github.com/Astemirdum/foyer-service/student/internal/model"
	repo_mocks "github.com/Astemirdum/foyer-service/student/internal/repository/mocks"
	"github.com/Astemirdum/foyer-service/student/internal/service"
)

func TestService_AddStudent(t *testing.T) {
	t.Parallel()
	valid := model.Student{FirstName: "Amine", LastName: "Ben Salah", Cin: 11223344, School: "ESPRIT"}

	type mockBehavior func(r *repo_mocks.MockRepository)
	tests := []struct {
		name         string
		input        model.Student
		mockBehavior mockBehavior
		want         model.Student
		wantErr      error
	}{
		{
			name:  "ok",
			input: valid,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				out := valid
				out.ID = 1
				out.ReservationIDs = []string{}
				r.EXPECT().CreateStudent(gomock.Any(), valid).Return(out, nil)
			},
			want: model.Student{ID: 1, FirstName: "Amine", LastName: "Ben Salah", Cin: 11223344, School: "ESPRIT", ReservationIDs: []string{}},
		},
		{
			name:         "err. missing first name",
			input:        model.Student{LastName: "Ben Salah", Cin: 11223344},
			mockBehavior: func(r *repo_mocks.MockRepository) {},
			wantErr:      errs.ErrInvalid,
		},
		{
			name:         "err. cin not positive",
			input:        model.Student{FirstName: "Amine", LastName: "Ben Salah", Cin: -1},
			mockBehavior: func(r *repo_mocks.MockRepository) {},
			wantErr:      errs.ErrInvalid,
		},
		{
			name:  "err. duplicate cin",
			input: valid,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().CreateStudent(gomock.Any(), valid).Return(model.Student{}, errors.Wrap(errs.ErrConflict, "cin exists"))
			},
			wantErr: errs.ErrConflict,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := repo_mocks.NewMockRepository(c)
			tt.mockBehavior(repo)
			svc := service.NewService(repo, zap.NewNop())

			got, err := svc.AddStudent(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_GetStudent(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	st := model.Student{ID: 1, FirstName: "Amine", LastName: "Ben Salah", Cin: 11223344, ReservationIDs: []string{"a"}}
	repo.EXPECT().GetStudent(gomock.Any(), int64(1)).Return(st, nil)
	repo.EXPECT().GetStudent(gomock.Any(), int64(2)).Return(model.Student{}, errs.ErrNotFound)
	repo.EXPECT().GetStudentByCin(gomock.Any(), int64(11223344)).Return(st, nil)
	repo.EXPECT().GetStudentByCin(gomock.Any(), int64(5)).Return(model.Student{}, errs.ErrNotFound)

	got, err := svc.GetStudent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, st, got)

	_, err = svc.GetStudent(ctx, 2)
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err = svc.GetStudentByCin(ctx, 11223344)
	require.NoError(t, err)
	require.Equal(t, st, got)

	_, err = svc.GetStudentByCin(ctx, 5)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_UpdateDelete(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()
	repo := repo_mocks.NewMockRepository(c)
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	upd := model.Student{ID: 7, FirstName: "Sarra", LastName: "Trabelsi", Cin: 99887766}
	repo.EXPECT().UpdateStudent(gomock.Any(), upd).Return(model.Student{}, errs.ErrNotFound)
	repo.EXPECT().DeleteStudent(gomock.Any(), int64(7)).Return(errs.ErrNotFound)
	repo.EXPECT().DeleteStudent(gomock.Any(), int64(8)).Return(nil)
	repo.EXPECT().UpdateReservations(gomock.Any(), int64(8), []string{"a", "b"}).Return(nil)
	repo.EXPECT().ListStudents(gomock.Any()).Return([]model.Student{}, nil)

	_, err := svc.UpdateStudent(ctx, upd)
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.UpdateStudent(ctx, model.Student{ID: 7})
	require.ErrorIs(t, err, errs.ErrInvalid)

	require.ErrorIs(t, svc.DeleteStudent(ctx, 7), errs.ErrNotFound)
	require.NoError(t, svc.DeleteStudent(ctx, 8))
	require.NoError(t, svc.UpdateStudentReservations(ctx, 8, []string{"a", "b"}))

	items, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}
