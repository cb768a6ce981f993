// Package enrollment содержит бизнес-логику распределения покупателей курса
// по учебным группам. На курс лениво создаётся не более десяти групп,
// новый покупатель попадает в наименее заполненную из них.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arinakozh/course-sales/internal/models"
)

// MaxGroupsPerCourse — фиксированный размер пула групп на курс.
const MaxGroupsPerCourse = 10

// GroupRepository определяет методы для работы с группами в хранилище.
type GroupRepository interface {
	// CountGroups возвращает количество групп курса.
	CountGroups(ctx context.Context, courseID int) (int, error)
	// CreateGroup создаёт группу курса; повторное создание с тем же названием — no-op.
	CreateGroup(ctx context.Context, courseID int, title string) error
	// FindLeastLoadedGroup возвращает группу с наименьшим числом студентов,
	// при равенстве — с наименьшим ID.
	FindLeastLoadedGroup(ctx context.Context, courseID int) (*models.Group, error)
	// AddStudentToGroup добавляет пользователя в группу с семантикой множества.
	AddStudentToGroup(ctx context.Context, groupID int, userUID string) error
}

// AllocationService реализует правило распределения по группам.
type AllocationService struct {
	repo GroupRepository
	log  *slog.Logger
}

// NewAllocationService создает новый экземпляр AllocationService.
func NewAllocationService(repo GroupRepository, log *slog.Logger) *AllocationService {
	return &AllocationService{
		repo: repo,
		log:  log,
	}
}

// GroupTitle возвращает детерминированное название группы с номером n.
func GroupTitle(n int, courseTitle string) string {
	return fmt.Sprintf("Группа %d курса \"%s\"", n, courseTitle)
}

// Allocate доводит число групп курса до десяти и добавляет пользователя
// в наименее заполненную. Вызывается после успешного создания подписки;
// при десяти существующих группах шаг создания — no-op, повторный вызов
// для того же пользователя не меняет состав групп.
func (s *AllocationService) Allocate(ctx context.Context, course *models.Course, userUID string) error {
	count, err := s.repo.CountGroups(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("count groups: %w", err)
	}

	// Номера недостающих групп фиксированы (count+1 .. 10), поэтому названия
	// не зависят от порядка конкурентных вызовов.
	for n := count + 1; n <= MaxGroupsPerCourse; n++ {
		if err := s.repo.CreateGroup(ctx, course.ID, GroupTitle(n, course.Title)); err != nil {
			return fmt.Errorf("create group %d: %w", n, err)
		}
	}
	if count < MaxGroupsPerCourse {
		s.log.Info("provisioned course groups",
			slog.Int("course_id", course.ID),
			slog.Int("created", MaxGroupsPerCourse-count))
	}

	group, err := s.repo.FindLeastLoadedGroup(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("find least loaded group: %w", err)
	}
	if err := s.repo.AddStudentToGroup(ctx, group.ID, userUID); err != nil {
		return fmt.Errorf("add student to group %d: %w", group.ID, err)
	}

	s.log.Info("student assigned to group",
		slog.Int("course_id", course.ID),
		slog.Int("group_id", group.ID),
		slog.String("user_uid", userUID))
	return nil
}
