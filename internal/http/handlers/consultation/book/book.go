// Package book реализует HTTP-обработчик бронирования консультации.
//
// Handler принимает дату, время, тип звонка и тему, проверяет поля
// и создаёт консультацию. Стоимость определяется тарифом по типу
// звонка; консультация, покрытая разовой подпиской, создаётся
// оплаченной с нулевой суммой.
package book

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/consultation"
)

// Request — структура входных данных для бронирования.
type Request struct {
	CallType string `json:"call_type" validate:"required,oneof=video audio"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
	Topic    string `json:"topic" validate:"required,min=3,max=500"`
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Book(ctx context.Context, userUID string, req consultation.BookRequest) (*models.Consultation, float64, error)
}

// Handler обрабатывает HTTP-запросы бронирования консультаций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Забронировать консультацию
// @Description Создает консультацию и возвращает её id, статус и стоимость. Покрытая разовой подпиской консультация создаётся оплаченной.
// @Tags Consultations
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные бронирования"
// @Success 200 {object} map[string]any "Успешное бронирование"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата в прошлом"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /consultations [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.consultation.book"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	result, price, err := h.service.Book(r.Context(), principal.UserUID, consultation.BookRequest{
		CallType: req.CallType,
		Date:     date,
		Time:     req.Time,
		Topic:    req.Topic,
	})
	if err != nil {
		log.Error("failed to book consultation", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("consultation booked", slog.String("id", result.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":     result.ID,
		"amount": price,
		"status": result.Status,
	}))
}
