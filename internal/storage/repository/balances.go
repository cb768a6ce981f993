package repository

import (
	"context"
	"fmt"

	"github.com/arinakozh/course-sales/internal/models"
)

// GetOrCreateBalance возвращает баланс пользователя, создавая нулевую запись,
// если её ещё нет. Для существующего пользователя операция не завершается
// ошибкой «не найдено».
func (s *Storage) GetOrCreateBalance(ctx context.Context, userUID string) (*models.Balance, error) {
	const op = "storage.GetOrCreateBalance"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO balances (user_uid, bonuses)
			  VALUES ($1, 0)
			  ON CONFLICT (user_uid) DO UPDATE SET user_uid = EXCLUDED.user_uid
			  RETURNING user_uid, bonuses`
	b := &models.Balance{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&b.UserUID, &b.Bonuses); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}
