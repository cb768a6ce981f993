// Package catalog содержит бизнес-логику каталога курсов: управление курсами,
// уроками и просмотр групп, включая кеширование карточек курсов.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arinakozh/course-sales/internal/models"
)

// Repository определяет методы для работы с каталогом в хранилище.
type Repository interface {
	// CreateCourse добавляет новый курс и возвращает его ID.
	CreateCourse(ctx context.Context, course models.Course) (int, error)
	// ReadCourse возвращает курс по ID или models.ErrCourseNotFound.
	ReadCourse(ctx context.Context, id int) (*models.Course, error)
	// UpdateCourse обновляет данные курса по ID.
	UpdateCourse(ctx context.Context, course models.Course, id int) (int, error)
	// RemoveCourse удаляет курс по ID и возвращает количество удалённых записей.
	RemoveCourse(ctx context.Context, id int) (int, error)
	// ListCourses возвращает список курсов с пагинацией.
	ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error)
	// CreateLesson добавляет урок курса и возвращает его ID.
	CreateLesson(ctx context.Context, lesson models.Lesson) (int, error)
	// ListLessons возвращает уроки курса.
	ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error)
	// RemoveLesson удаляет урок по ID.
	RemoveLesson(ctx context.Context, id int) (int, error)
	// ListGroups возвращает группы курса с количеством студентов.
	ListGroups(ctx context.Context, courseID int) ([]*models.Group, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// CatalogService реализует бизнес-логику каталога, включая кеширование курсов.
type CatalogService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo Repository, cache Cache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CreateCourse создает новый курс и возвращает его ID.
func (s *CatalogService) CreateCourse(ctx context.Context, req models.DummyCourse) (int, error) {
	startDate, err := time.Parse("02-01-2006", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}

	course := models.Course{
		Title:     req.Title,
		Author:    req.Author,
		Price:     req.Price,
		StartDate: startDate,
	}
	id, err := s.repo.CreateCourse(ctx, course)
	if err != nil {
		return 0, err
	}
	s.log.Info("created new course", slog.Int("id", id))
	return id, nil
}

// ReadCourse возвращает курс по ID, используя кеш или репозиторий.
func (s *CatalogService) ReadCourse(ctx context.Context, id int) (*models.Course, error) {
	var result *models.Course
	cacheKey := fmt.Sprintf("course:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache course", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// UpdateCourse обновляет курс и инвалидирует кеш.
func (s *CatalogService) UpdateCourse(ctx context.Context, req models.DummyCourse, id int) (int, error) {
	startDate, err := time.Parse("02-01-2006", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}

	course := models.Course{
		Title:     req.Title,
		Author:    req.Author,
		Price:     req.Price,
		StartDate: startDate,
	}
	res, err := s.repo.UpdateCourse(ctx, course, id)
	if err != nil {
		return 0, err
	}

	cacheKey := fmt.Sprintf("course:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate course cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	s.log.Info("updated course", slog.Int("id", id))
	return res, nil
}

// RemoveCourse удаляет курс и инвалидирует кеш.
func (s *CatalogService) RemoveCourse(ctx context.Context, id int) (int, error) {
	cacheKey := fmt.Sprintf("course:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate course cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	count, err := s.repo.RemoveCourse(ctx, id)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListCourses возвращает список курсов с пагинацией.
func (s *CatalogService) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	return s.repo.ListCourses(ctx, limit, offset)
}

// CreateLesson создает урок курса и возвращает его ID.
func (s *CatalogService) CreateLesson(ctx context.Context, courseID int, req models.DummyLesson) (int, error) {
	// Урок можно создать только у существующего курса.
	if _, err := s.repo.ReadCourse(ctx, courseID); err != nil {
		return 0, err
	}

	lesson := models.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Link:     req.Link,
	}
	id, err := s.repo.CreateLesson(ctx, lesson)
	if err != nil {
		return 0, err
	}
	s.log.Info("created new lesson", slog.Int("id", id), slog.Int("course_id", courseID))
	return id, nil
}

// ListLessons возвращает уроки курса.
func (s *CatalogService) ListLessons(ctx context.Context, courseID int) ([]*models.Lesson, error) {
	return s.repo.ListLessons(ctx, courseID)
}

// RemoveLesson удаляет урок по ID.
func (s *CatalogService) RemoveLesson(ctx context.Context, id int) (int, error) {
	return s.repo.RemoveLesson(ctx, id)
}

// ListGroups возвращает группы курса с количеством студентов.
func (s *CatalogService) ListGroups(ctx context.Context, courseID int) ([]*models.Group, error) {
	return s.repo.ListGroups(ctx, courseID)
}
