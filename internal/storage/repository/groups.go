package repository

import (
	"context"
	"fmt"

	"github.com/arinakozh/course-sales/internal/models"
)

// CountGroups возвращает количество групп курса.
func (s *Storage) CountGroups(ctx context.Context, courseID int) (int, error) {
	const op = "storage.CountGroups"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM groups WHERE course_id = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CreateGroup создаёт группу курса с указанным названием.
// Повторное создание группы с тем же названием — no-op: уникальность пары
// (course_id, title) делает ленивое создание групп идемпотентным при
// конкурентных первых покупках одного курса.
func (s *Storage) CreateGroup(ctx context.Context, courseID int, title string) error {
	const op = "storage.CreateGroup"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO groups (course_id, title)
			  VALUES ($1, $2)
			  ON CONFLICT (course_id, title) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, courseID, title); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindLeastLoadedGroup возвращает группу курса с наименьшим числом студентов.
// При равенстве выигрывает группа с наименьшим ID.
func (s *Storage) FindLeastLoadedGroup(ctx context.Context, courseID int) (*models.Group, error) {
	const op = "storage.FindLeastLoadedGroup"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT g.id, g.course_id, g.title, COUNT(gs.user_uid) AS students_count
			  FROM groups g
			  LEFT JOIN group_students gs ON gs.group_id = g.id
			  WHERE g.course_id = $1
			  GROUP BY g.id, g.course_id, g.title
			  ORDER BY students_count ASC, g.id ASC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, courseID)

	var result models.Group
	if err := row.Scan(&result.ID, &result.CourseID, &result.Title,
		&result.StudentsCount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// AddStudentToGroup добавляет пользователя в группу. Повторное добавление
// уже состоящего в группе пользователя — no-op (семантика множества).
func (s *Storage) AddStudentToGroup(ctx context.Context, groupID int, userUID string) error {
	const op = "storage.AddStudentToGroup"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO group_students (group_id, user_uid)
			  VALUES ($1, $2)
			  ON CONFLICT (group_id, user_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, groupID, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListGroups возвращает группы курса с количеством студентов в каждой.
func (s *Storage) ListGroups(ctx context.Context, courseID int) ([]*models.Group, error) {
	const op = "storage.ListGroups"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT g.id, g.course_id, g.title, COUNT(gs.user_uid) AS students_count
			  FROM groups g
			  LEFT JOIN group_students gs ON gs.group_id = g.id
			  WHERE g.course_id = $1
			  GROUP BY g.id, g.course_id, g.title
			  ORDER BY g.id`
	rows, err := s.DB.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Group
	for rows.Next() {
		var item models.Group
		if err := rows.Scan(&item.ID, &item.CourseID, &item.Title,
			&item.StudentsCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
