package enrollment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arinakozh/course-sales/internal/models"
)

type GroupRepoMock struct{ mock.Mock }

func (m *GroupRepoMock) CountGroups(ctx context.Context, courseID int) (int, error) {
	args := m.Called(ctx, courseID)
	return args.Int(0), args.Error(1)
}
func (m *GroupRepoMock) CreateGroup(ctx context.Context, courseID int, title string) error {
	return m.Called(ctx, courseID, title).Error(0)
}
func (m *GroupRepoMock) FindLeastLoadedGroup(ctx context.Context, courseID int) (*models.Group, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}
func (m *GroupRepoMock) AddStudentToGroup(ctx context.Context, groupID int, userUID string) error {
	return m.Called(ctx, groupID, userUID).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "4bd9e9ab-60bd-4d0e-9c0b-3e0a38c3b1a9"

func TestGroupTitle(t *testing.T) {
	got := GroupTitle(3, "Go для начинающих")
	assert.Equal(t, `Группа 3 курса "Go для начинающих"`, got)
}

func TestAllocationService_Allocate(t *testing.T) {
	course := &models.Course{ID: 7, Title: "Алгоритмы"}

	tests := []struct {
		name       string
		setupMocks func(r *GroupRepoMock)
		wantErr    bool
	}{
		{
			name: "первая покупка создаёт все десять групп",
			setupMocks: func(r *GroupRepoMock) {
				r.On("CountGroups", mock.Anything, 7).Return(0, nil).Once()
				for n := 1; n <= MaxGroupsPerCourse; n++ {
					r.On("CreateGroup", mock.Anything, 7, fmt.Sprintf("Группа %d курса \"Алгоритмы\"", n)).
						Return(nil).Once()
				}
				r.On("FindLeastLoadedGroup", mock.Anything, 7).
					Return(&models.Group{ID: 1, CourseID: 7, StudentsCount: 0}, nil).Once()
				r.On("AddStudentToGroup", mock.Anything, 1, userUID).Return(nil).Once()
			},
		},
		{
			name: "дозаполнение пула после частичного создания",
			setupMocks: func(r *GroupRepoMock) {
				r.On("CountGroups", mock.Anything, 7).Return(4, nil).Once()
				for n := 5; n <= MaxGroupsPerCourse; n++ {
					r.On("CreateGroup", mock.Anything, 7, fmt.Sprintf("Группа %d курса \"Алгоритмы\"", n)).
						Return(nil).Once()
				}
				r.On("FindLeastLoadedGroup", mock.Anything, 7).
					Return(&models.Group{ID: 5, CourseID: 7, StudentsCount: 0}, nil).Once()
				r.On("AddStudentToGroup", mock.Anything, 5, userUID).Return(nil).Once()
			},
		},
		{
			name: "при десяти группах создание пропускается",
			setupMocks: func(r *GroupRepoMock) {
				r.On("CountGroups", mock.Anything, 7).Return(MaxGroupsPerCourse, nil).Once()
				r.On("FindLeastLoadedGroup", mock.Anything, 7).
					Return(&models.Group{ID: 2, CourseID: 7, StudentsCount: 3}, nil).Once()
				r.On("AddStudentToGroup", mock.Anything, 2, userUID).Return(nil).Once()
			},
		},
		{
			name: "ошибка подсчёта групп прерывает распределение",
			setupMocks: func(r *GroupRepoMock) {
				r.On("CountGroups", mock.Anything, 7).Return(0, errors.New("db down")).Once()
			},
			wantErr: true,
		},
		{
			name: "ошибка добавления студента возвращается наружу",
			setupMocks: func(r *GroupRepoMock) {
				r.On("CountGroups", mock.Anything, 7).Return(MaxGroupsPerCourse, nil).Once()
				r.On("FindLeastLoadedGroup", mock.Anything, 7).
					Return(&models.Group{ID: 9, CourseID: 7, StudentsCount: 1}, nil).Once()
				r.On("AddStudentToGroup", mock.Anything, 9, userUID).
					Return(errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(GroupRepoMock)
			svc := NewAllocationService(repo, newNoopLogger())

			tt.setupMocks(repo)

			err := svc.Allocate(context.Background(), course, userUID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
		})
	}
}
