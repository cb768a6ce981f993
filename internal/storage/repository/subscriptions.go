package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arinakozh/course-sales/internal/models"
)

// Код ошибки PostgreSQL для нарушения уникальности.
const uniqueViolationCode = "23505"

// SubscriptionExists проверяет наличие подписки пользователя на курс.
func (s *Storage) SubscriptionExists(ctx context.Context, userUID string, courseID int) (bool, error) {
	const op = "storage.SubscriptionExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM subscriptions WHERE user_uid = $1 AND course_id = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateSubscriptionWithDebit списывает цену курса с баланса пользователя и
// создаёт подписку в одной транзакции: либо происходит и то и другое, либо ничего.
// Строка баланса блокируется через SELECT ... FOR UPDATE, поэтому конкурентные
// покупки одного пользователя сериализуются. Нарушение уникальности пары
// (user_uid, course_id) на коммите транслируется в models.ErrAlreadySubscribed,
// нехватка бонусов — в *models.InsufficientFundsError.
func (s *Storage) CreateSubscriptionWithDebit(ctx context.Context, userUID string, courseID, price int) (*models.PurchaseReceipt, error) {
	const op = "storage.CreateSubscriptionWithDebit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var bonuses int
	query := `SELECT bonuses FROM balances WHERE user_uid = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, userUID).Scan(&bonuses); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if bonuses < price {
		return nil, fmt.Errorf("%s: %w", op, &models.InsufficientFundsError{
			CurrentBalance: bonuses,
			Required:       price,
			Deficit:        price - bonuses,
		})
	}

	query = `UPDATE balances SET bonuses = bonuses - $1 WHERE user_uid = $2`
	if _, err := tx.ExecContext(ctx, query, price, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	receipt := &models.PurchaseReceipt{
		PreviousBalance:  bonuses,
		RemainingBalance: bonuses - price,
	}
	query = `INSERT INTO subscriptions (user_uid, course_id)
			  VALUES ($1, $2)
			  RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, query, userUID, courseID).
		Scan(&receipt.SubscriptionID, &receipt.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return receipt, nil
}

// ListSubscriptions возвращает подписки пользователя с пагинацией.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, course_id, created_at
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.UserUID, &item.CourseID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
