// Package updatestatus реализует HTTP-обработчик смены статуса заявки.
//
// Статус перезаписывается напрямую, без проверки перехода. После
// успешного обновления владельцу заявки отправляется уведомление.
package updatestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
)

// Request — структура входных данных для смены статуса.
type Request struct {
	Status string `json:"status" validate:"required,oneof=submitted in_review in_progress completed rejected"`
}

// Service описывает интерфейс бизнес-логики смены статуса.
type Service interface {
	UpdateStatus(ctx context.Context, referenceNumber, status string) (int, error)
}

// Handler обрабатывает HTTP-запросы смены статуса заявки.
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
// @Summary Сменить статус заявки
// @Description Перезаписывает статус заявки и уведомляет владельца. Доступно администраторам.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param reference path string true "Референс-номер заявки"
// @Param request body Request true "Новый статус"
// @Success 200 {object} map[string]any "Статус обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/requests/{reference}/status [patch]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servicerequest.updatestatus"
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

	referenceNumber := chi.URLParam(r, "reference")
	affected, err := h.service.UpdateStatus(r.Context(), referenceNumber, req.Status)
	if err != nil {
		log.Error("failed to update request status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update request status"))
		return
	}
	if affected == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("request not found"))
		return
	}

	log.Info("request status updated",
		slog.String("reference_number", referenceNumber),
		slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"reference_number": referenceNumber,
		"status":           req.Status,
	}))
}
