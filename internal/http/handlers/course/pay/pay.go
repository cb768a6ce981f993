// Package pay реализует HTTP-обработчик покупки курса за бонусы.
//
// Handler извлекает ID курса из URL и UID покупателя из контекста,
// вызывает бизнес-логику покупки и возвращает созданную подписку
// вместе с деталями списания. Ошибки покупки транслируются в статусы:
// курс не найден — 404, повторная подписка — 409, нехватка бонусов — 400
// с текущим балансом и недостачей.
package pay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/arinakozh/course-sales/internal/http/middlewarectx"
	"github.com/arinakozh/course-sales/internal/http/response"
	"github.com/arinakozh/course-sales/internal/lib/sl"
	"github.com/arinakozh/course-sales/internal/models"
)

// Handler обрабатывает запросы на покупку курса.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики покупки
}

// Service описывает интерфейс бизнес-логики покупки курса.
type Service interface {
	Pay(ctx context.Context, userUID string, courseID int) (*models.PurchaseResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Купить доступ к курсу
// @Description Списывает цену курса с бонусного баланса, создает подписку и распределяет покупателя в наименее заполненную группу курса.
// @Tags Courses
// @Accept  json
// @Produce  json
// @Param id path int true "ID курса"
// @Success 201 {object} response.Response "Курс успешно оплачен"
// @Failure 400 {object} response.InsufficientFundsResponse "Недостаточно бонусов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при покупке"
// @Security BearerAuth
// @Router /courses/{id}/pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.pay"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Pay(r.Context(), userUID, courseID)
	if err != nil {
		h.renderPurchaseError(w, r, log, err)
		return
	}

	log.Info("course purchased",
		slog.Int("course_id", courseID),
		slog.Int("subscription_id", result.Subscription.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(result))
}

func (h *Handler) renderPurchaseError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var insufficientFunds *models.InsufficientFundsError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, models.ErrCourseNotFound):
		log.Error("course not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("Курс не найден"))
	case errors.Is(err, models.ErrAlreadySubscribed):
		log.Error("already subscribed", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("Вы уже подписаны на этот курс"))
	case errors.As(err, &insufficientFunds):
		log.Error("insufficient funds", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.InsufficientFunds(
			insufficientFunds.CurrentBalance,
			insufficientFunds.Required,
			insufficientFunds.Deficit,
		))
	case errors.As(err, &validationErrs):
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(validationErrs))
	default:
		log.Error("failed to pay for course", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not pay for course"))
	}
}
