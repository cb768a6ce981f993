// Package purchase содержит бизнес-логику покупки курса: проверку предусловий,
// атомарное списание бонусов вместе с созданием подписки и запуск распределения
// покупателя по группам после коммита транзакции.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/arinakozh/course-sales/internal/lib/sl"
	"github.com/arinakozh/course-sales/internal/metrics"
	"github.com/arinakozh/course-sales/internal/models"
)

// Маршрутные ключи событий, публикуемых после успешной покупки.
const (
	ReceiptRoutingKey           = "purchase.receipt"
	AllocationFailureRoutingKey = "allocation.failed"
)

// Repository определяет методы хранилища, необходимые для покупки курса.
type Repository interface {
	// ReadCourse возвращает курс по ID или models.ErrCourseNotFound.
	ReadCourse(ctx context.Context, id int) (*models.Course, error)
	// SubscriptionExists проверяет наличие подписки пользователя на курс.
	SubscriptionExists(ctx context.Context, userUID string, courseID int) (bool, error)
	// GetOrCreateBalance возвращает баланс пользователя, создавая нулевую запись при отсутствии.
	GetOrCreateBalance(ctx context.Context, userUID string) (*models.Balance, error)
	// CreateSubscriptionWithDebit атомарно списывает бонусы и создаёт подписку.
	CreateSubscriptionWithDebit(ctx context.Context, userUID string, courseID, price int) (*models.PurchaseReceipt, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ListSubscriptions возвращает подписки пользователя с пагинацией.
	ListSubscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error)
}

// Allocator распределяет покупателя по группам курса после покупки.
type Allocator interface {
	Allocate(ctx context.Context, course *models.Course, userUID string) error
}

// EventPublisher публикует события покупки в очередь уведомлений.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует покупку курса.
type Service struct {
	repo      Repository
	allocator Allocator
	events    EventPublisher
	validate  *validator.Validate
	log       *slog.Logger
}

// New создает новый Service покупки.
func New(repo Repository, allocator Allocator, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		events:    events,
		validate:  validator.New(),
		log:       log,
	}
}

// Pay выполняет покупку курса пользователем. Предусловия проверяются по порядку,
// первая неудача прерывает покупку до каких-либо изменений: существование курса,
// отсутствие подписки, достаточность бонусов, валидность создаваемой подписки.
// Списание и запись подписки выполняются одной транзакцией; конкурентный дубль
// подписки на коммите превращается в models.ErrAlreadySubscribed, а не в сбой.
// Распределение по группам запускается строго после коммита и при неудаче
// не отменяет покупку.
func (s *Service) Pay(ctx context.Context, userUID string, courseID int) (*models.PurchaseResult, error) {
	course, err := s.repo.ReadCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, models.ErrCourseNotFound) {
			metrics.PurchaseFailuresTotal.WithLabelValues("course_not_found").Inc()
		}
		return nil, err
	}

	exists, err := s.repo.SubscriptionExists(ctx, userUID, courseID)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.PurchaseFailuresTotal.WithLabelValues("conflict").Inc()
		return nil, models.ErrAlreadySubscribed
	}

	balance, err := s.repo.GetOrCreateBalance(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if balance.Bonuses < course.Price {
		metrics.PurchaseFailuresTotal.WithLabelValues("insufficient_funds").Inc()
		return nil, &models.InsufficientFundsError{
			CurrentBalance: balance.Bonuses,
			Required:       course.Price,
			Deficit:        course.Price - balance.Bonuses,
		}
	}

	candidate := models.DummySubscription{
		UserUID:  userUID,
		CourseID: courseID,
	}
	if err := s.validate.Struct(candidate); err != nil {
		metrics.PurchaseFailuresTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("invalid subscription payload: %w", err)
	}

	receipt, err := s.repo.CreateSubscriptionWithDebit(ctx, userUID, courseID, course.Price)
	if err != nil {
		// Гонка двух покупок одного пользователя решается уникальностью
		// пары (user_uid, course_id): проигравшая получает Conflict.
		metrics.PurchaseFailuresTotal.WithLabelValues("commit").Inc()
		return nil, err
	}
	metrics.PurchasesTotal.Inc()
	s.log.Info("course purchased",
		slog.Int("course_id", courseID),
		slog.String("user_uid", userUID),
		slog.Int("subscription_id", receipt.SubscriptionID),
		slog.Int("remaining_balance", receipt.RemainingBalance))

	if err := s.allocator.Allocate(ctx, course, userUID); err != nil {
		// Покупка уже закоммичена и не откатывается: фиксируем сбой для выверки.
		metrics.AllocationFailuresTotal.Inc()
		s.log.Error("group allocation failed after purchase", sl.Err(err),
			slog.Int("course_id", courseID),
			slog.String("user_uid", userUID))
		s.publish(AllocationFailureRoutingKey, models.AllocationFailureEvent{
			CourseID: courseID,
			UserUID:  userUID,
			Reason:   err.Error(),
		})
	}

	s.publishReceipt(ctx, userUID, course, receipt)

	return &models.PurchaseResult{
		Message: "Курс успешно оплачен",
		Subscription: models.Subscription{
			ID:        receipt.SubscriptionID,
			UserUID:   userUID,
			CourseID:  courseID,
			CreatedAt: receipt.CreatedAt,
		},
		PaymentDetails: models.PaymentDetails{
			Amount:           course.Price,
			PreviousBalance:  receipt.PreviousBalance,
			RemainingBalance: receipt.RemainingBalance,
		},
	}, nil
}

// Balance возвращает текущий баланс пользователя, создавая нулевую запись при отсутствии.
func (s *Service) Balance(ctx context.Context, userUID string) (*models.Balance, error) {
	return s.repo.GetOrCreateBalance(ctx, userUID)
}

// Subscriptions возвращает подписки пользователя с пагинацией.
func (s *Service) Subscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx, userUID, limit, offset)
}

func (s *Service) publishReceipt(ctx context.Context, userUID string, course *models.Course, receipt *models.PurchaseReceipt) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load user for receipt event", sl.Err(err),
			slog.String("user_uid", userUID))
		return
	}
	s.publish(ReceiptRoutingKey, models.ReceiptEvent{
		Email:            user.Email,
		Username:         user.Username,
		CourseTitle:      course.Title,
		Amount:           course.Price,
		RemainingBalance: receipt.RemainingBalance,
	})
}

// publish отправляет событие в очередь, ошибки только логируются:
// доставка уведомлений не влияет на исход покупки.
func (s *Service) publish(routingKey string, message any) {
	if err := s.events.Publish(routingKey, message); err != nil {
		s.log.Warn("failed to publish event", sl.Err(err),
			slog.String("routing_key", routingKey))
	}
}
