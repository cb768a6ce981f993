// Package read реализует HTTP-обработчик для получения баланса текущего пользователя.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arinakozh/course-sales/internal/http/middlewarectx"
	"github.com/arinakozh/course-sales/internal/http/response"
	"github.com/arinakozh/course-sales/internal/lib/sl"
	"github.com/arinakozh/course-sales/internal/models"
)

// Handler обрабатывает запросы на получение баланса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики баланса.
type Service interface {
	Balance(ctx context.Context, userUID string) (*models.Balance, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Баланс бонусов
// @Description Возвращает текущий баланс бонусов авторизованного пользователя.
// @Tags Balance
// @Produce  json
// @Success 200 {object} response.Response "Баланс пользователя"
// @Failure 401 {object} response.ErrorResponse "Требуется авторизация"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /balance [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.balance.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authorization required"))
		return
	}

	balance, err := h.service.Balance(r.Context(), userUID)
	if err != nil {
		log.Error("failed to read balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read balance"))
		return
	}

	log.Info("balance read", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(balance))
}
