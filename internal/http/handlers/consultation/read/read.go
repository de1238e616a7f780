// Package read реализует HTTP-обработчик чтения одной консультации.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// Service описывает интерфейс бизнес-логики чтения консультации.
type Service interface {
	Read(ctx context.Context, id string) (*models.Consultation, error)
}

// Handler обрабатывает HTTP-запросы чтения консультации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать консультацию
// @Description Возвращает консультацию по id. Чужая консультация недоступна обычному пользователю.
// @Tags Consultations
// @Produce  json
// @Param id path string true "ID консультации"
// @Success 200 {object} map[string]any "Консультация"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Консультация не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /consultations/{id} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.consultation.read"
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

	res, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("consultation not found"))
			return
		}
		log.Error("failed to read consultation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read consultation"))
		return
	}

	// Чужая запись для обычного пользователя неотличима от несуществующей.
	if res.UserUID != principal.UserUID && !principal.Role.CanManageRequests() {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("consultation not found"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"consultation": res,
	}))
}
