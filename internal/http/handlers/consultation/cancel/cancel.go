// Package cancel реализует HTTP-обработчик отмены консультации.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики отмены консультации.
type Service interface {
	Cancel(ctx context.Context, id, userUID string) (int, error)
}

// Handler обрабатывает HTTP-запросы отмены консультаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить консультацию
// @Description Отменяет консультацию текущего пользователя в статусе pending или paid.
// @Tags Consultations
// @Produce  json
// @Param id path string true "ID консультации"
// @Success 200 {object} map[string]any "Консультация отменена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Консультация не найдена или уже завершена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /consultations/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.consultation.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	affected, err := h.service.Cancel(r.Context(), id, principal.UserUID)
	if err != nil {
		log.Error("failed to cancel consultation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to cancel consultation"))
		return
	}
	if affected == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("consultation not found"))
		return
	}

	log.Info("consultation cancelled", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":     id,
		"status": "cancelled",
	}))
}
