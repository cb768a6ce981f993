// Package coursesales предоставляет маршруты для основного приложения.
package coursesales

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/arinakozh/course-sales/internal/http/handlers/auth/login"
	"github.com/arinakozh/course-sales/internal/http/handlers/auth/register"
	balanceread "github.com/arinakozh/course-sales/internal/http/handlers/balance/read"
	coursecreate "github.com/arinakozh/course-sales/internal/http/handlers/course/create"
	courselist "github.com/arinakozh/course-sales/internal/http/handlers/course/list"
	coursepay "github.com/arinakozh/course-sales/internal/http/handlers/course/pay"
	courseread "github.com/arinakozh/course-sales/internal/http/handlers/course/read"
	courseremove "github.com/arinakozh/course-sales/internal/http/handlers/course/remove"
	courseupdate "github.com/arinakozh/course-sales/internal/http/handlers/course/update"
	grouplist "github.com/arinakozh/course-sales/internal/http/handlers/group/list"
	lessoncreate "github.com/arinakozh/course-sales/internal/http/handlers/lesson/create"
	lessonlist "github.com/arinakozh/course-sales/internal/http/handlers/lesson/list"
	lessonremove "github.com/arinakozh/course-sales/internal/http/handlers/lesson/remove"
	subscriptionlist "github.com/arinakozh/course-sales/internal/http/handlers/subscription/list"
	"github.com/arinakozh/course-sales/internal/http/middlewarectx"
	authservice "github.com/arinakozh/course-sales/internal/services/auth"
	catalogservice "github.com/arinakozh/course-sales/internal/services/catalog"
	purchaseservice "github.com/arinakozh/course-sales/internal/services/purchase"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.AuthService, catalogService *catalogservice.CatalogService, purchaseService *purchaseservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/courses", courselist.New(logger, catalogService).ServeHTTP)
		r.Get("/courses/{id}", courseread.New(logger, catalogService).ServeHTTP)
		r.Get("/courses/{id}/lessons", lessonlist.New(logger, catalogService).ServeHTTP)
		r.Get("/courses/{id}/groups", grouplist.New(logger, catalogService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/courses/{id}/pay", coursepay.New(logger, purchaseService).ServeHTTP)
			r.Get("/balance", balanceread.New(logger, purchaseService).ServeHTTP)
			r.Get("/subscriptions", subscriptionlist.New(logger, purchaseService).ServeHTTP)

			// Операции каталога доступны только администратору
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdminMiddleware(logger))
				r.Post("/courses", coursecreate.New(logger, catalogService).ServeHTTP)
				r.Put("/courses/{id}", courseupdate.New(logger, catalogService).ServeHTTP)
				r.Delete("/courses/{id}", courseremove.New(logger, catalogService).ServeHTTP)
				r.Post("/courses/{id}/lessons", lessoncreate.New(logger, catalogService).ServeHTTP)
				r.Delete("/courses/{id}/lessons/{lesson_id}", lessonremove.New(logger, catalogService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
