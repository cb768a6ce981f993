package purchase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arinakozh/course-sales/internal/metrics"
	"github.com/arinakozh/course-sales/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadCourse(ctx context.Context, id int) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}
func (m *RepoMock) SubscriptionExists(ctx context.Context, userUID string, courseID int) (bool, error) {
	args := m.Called(ctx, userUID, courseID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) GetOrCreateBalance(ctx context.Context, userUID string) (*models.Balance, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}
func (m *RepoMock) CreateSubscriptionWithDebit(ctx context.Context, userUID string, courseID, price int) (*models.PurchaseReceipt, error) {
	args := m.Called(ctx, userUID, courseID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseReceipt), args.Error(1)
}
func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) ListSubscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type AllocatorMock struct{ mock.Mock }

func (m *AllocatorMock) Allocate(ctx context.Context, course *models.Course, userUID string) error {
	return m.Called(ctx, course, userUID).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "4bd9e9ab-60bd-4d0e-9c0b-3e0a38c3b1a9"

func TestService_Pay(t *testing.T) {
	course := &models.Course{
		ID:        1,
		Title:     "Go для начинающих",
		Author:    "Иванов",
		Price:     100,
		StartDate: time.Now(),
	}
	receipt := &models.PurchaseReceipt{
		SubscriptionID:   42,
		CreatedAt:        time.Now(),
		PreviousBalance:  150,
		RemainingBalance: 50,
	}
	user := &models.User{
		UID:      userUID,
		Email:    "student@example.com",
		Username: "student",
		Role:     "user",
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, a *AllocatorMock, p *PublisherMock)
		wantErr    error
		check      func(t *testing.T, res *models.PurchaseResult, err error)
	}{
		{
			name: "успешная покупка списывает цену курса",
			setupMocks: func(r *RepoMock, a *AllocatorMock, p *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(false, nil).Once()
				r.On("GetOrCreateBalance", mock.Anything, userUID).
					Return(&models.Balance{UserUID: userUID, Bonuses: 150}, nil).Once()
				r.On("CreateSubscriptionWithDebit", mock.Anything, userUID, 1, 100).
					Return(receipt, nil).Once()
				a.On("Allocate", mock.Anything, course, userUID).Return(nil).Once()
				r.On("GetUser", mock.Anything, userUID).Return(user, nil).Once()
				p.On("Publish", ReceiptRoutingKey, mock.MatchedBy(func(e models.ReceiptEvent) bool {
					return e.Email == user.Email && e.Amount == 100 && e.RemainingBalance == 50
				})).Return(nil).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "Курс успешно оплачен", res.Message)
				assert.Equal(t, 42, res.Subscription.ID)
				assert.Equal(t, 100, res.PaymentDetails.Amount)
				assert.Equal(t, 150, res.PaymentDetails.PreviousBalance)
				assert.Equal(t, 50, res.PaymentDetails.RemainingBalance)
			},
		},
		{
			name: "недостаточно бонусов, без изменений в хранилище",
			setupMocks: func(r *RepoMock, _ *AllocatorMock, _ *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(false, nil).Once()
				r.On("GetOrCreateBalance", mock.Anything, userUID).
					Return(&models.Balance{UserUID: userUID, Bonuses: 50}, nil).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.Nil(t, res)
				var insufficientErr *models.InsufficientFundsError
				assert.ErrorAs(t, err, &insufficientErr)
				assert.Equal(t, 50, insufficientErr.CurrentBalance)
				assert.Equal(t, 100, insufficientErr.Required)
				assert.Equal(t, 50, insufficientErr.Deficit)
			},
		},
		{
			name: "курс не найден",
			setupMocks: func(r *RepoMock, _ *AllocatorMock, _ *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(nil, models.ErrCourseNotFound).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, models.ErrCourseNotFound)
			},
		},
		{
			name: "повторная покупка того же курса",
			setupMocks: func(r *RepoMock, _ *AllocatorMock, _ *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(true, nil).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
			},
		},
		{
			name: "гонка на коммите превращается в конфликт",
			setupMocks: func(r *RepoMock, _ *AllocatorMock, _ *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(false, nil).Once()
				r.On("GetOrCreateBalance", mock.Anything, userUID).
					Return(&models.Balance{UserUID: userUID, Bonuses: 150}, nil).Once()
				r.On("CreateSubscriptionWithDebit", mock.Anything, userUID, 1, 100).
					Return(nil, models.ErrAlreadySubscribed).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.Nil(t, res)
				assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
			},
		},
		{
			name: "сбой распределения по группам не отменяет покупку",
			setupMocks: func(r *RepoMock, a *AllocatorMock, p *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(false, nil).Once()
				r.On("GetOrCreateBalance", mock.Anything, userUID).
					Return(&models.Balance{UserUID: userUID, Bonuses: 150}, nil).Once()
				r.On("CreateSubscriptionWithDebit", mock.Anything, userUID, 1, 100).
					Return(receipt, nil).Once()
				a.On("Allocate", mock.Anything, course, userUID).
					Return(errors.New("db connection lost")).Once()
				p.On("Publish", AllocationFailureRoutingKey, mock.MatchedBy(func(e models.AllocationFailureEvent) bool {
					return e.CourseID == 1 && e.UserUID == userUID
				})).Return(nil).Once()
				r.On("GetUser", mock.Anything, userUID).Return(user, nil).Once()
				p.On("Publish", ReceiptRoutingKey, mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "Курс успешно оплачен", res.Message)
			},
		},
		{
			name: "ошибка публикации чека не влияет на результат",
			setupMocks: func(r *RepoMock, a *AllocatorMock, p *PublisherMock) {
				r.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
				r.On("SubscriptionExists", mock.Anything, userUID, 1).Return(false, nil).Once()
				r.On("GetOrCreateBalance", mock.Anything, userUID).
					Return(&models.Balance{UserUID: userUID, Bonuses: 150}, nil).Once()
				r.On("CreateSubscriptionWithDebit", mock.Anything, userUID, 1, 100).
					Return(receipt, nil).Once()
				a.On("Allocate", mock.Anything, course, userUID).Return(nil).Once()
				r.On("GetUser", mock.Anything, userUID).Return(user, nil).Once()
				p.On("Publish", ReceiptRoutingKey, mock.Anything).
					Return(errors.New("broker unavailable")).Once()
			},
			check: func(t *testing.T, res *models.PurchaseResult, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "Курс успешно оплачен", res.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			allocator := new(AllocatorMock)
			publisher := new(PublisherMock)
			svc := New(repo, allocator, publisher, newNoopLogger())

			tt.setupMocks(repo, allocator, publisher)

			res, err := svc.Pay(context.Background(), userUID, 1)
			tt.check(t, res, err)

			repo.AssertExpectations(t)
			allocator.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestService_PayValidation(t *testing.T) {
	course := &models.Course{ID: 1, Title: "Go", Price: 100}

	t.Run("некорректный uid покупателя отклоняется до списания", func(t *testing.T) {
		repo := new(RepoMock)
		allocator := new(AllocatorMock)
		publisher := new(PublisherMock)
		svc := New(repo, allocator, publisher, newNoopLogger())

		repo.On("ReadCourse", mock.Anything, 1).Return(course, nil).Once()
		repo.On("SubscriptionExists", mock.Anything, "not-a-uuid", 1).Return(false, nil).Once()
		repo.On("GetOrCreateBalance", mock.Anything, "not-a-uuid").
			Return(&models.Balance{UserUID: "not-a-uuid", Bonuses: 150}, nil).Once()

		res, err := svc.Pay(context.Background(), "not-a-uuid", 1)
		assert.Nil(t, res)
		assert.Error(t, err)

		repo.AssertExpectations(t)
		allocator.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})
}

func TestService_PayMetrics(t *testing.T) {
	notFoundCounter := metrics.PurchaseFailuresTotal.WithLabelValues("course_not_found")

	t.Run("сбой хранилища при чтении курса не считается отсутствием курса", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(AllocatorMock), new(PublisherMock), newNoopLogger())

		repo.On("ReadCourse", mock.Anything, 1).Return(nil, errors.New("connection refused")).Once()

		before := testutil.ToFloat64(notFoundCounter)
		res, err := svc.Pay(context.Background(), userUID, 1)
		assert.Nil(t, res)
		assert.Error(t, err)
		assert.Equal(t, before, testutil.ToFloat64(notFoundCounter))

		repo.AssertExpectations(t)
	})

	t.Run("отсутствующий курс увеличивает счётчик", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(AllocatorMock), new(PublisherMock), newNoopLogger())

		repo.On("ReadCourse", mock.Anything, 404).Return(nil, models.ErrCourseNotFound).Once()

		before := testutil.ToFloat64(notFoundCounter)
		res, err := svc.Pay(context.Background(), userUID, 404)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, models.ErrCourseNotFound)
		assert.Equal(t, before+1, testutil.ToFloat64(notFoundCounter))

		repo.AssertExpectations(t)
	})
}
