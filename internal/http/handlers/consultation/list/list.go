// Package list реализует HTTP-обработчик списка консультаций пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики списка консультаций.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.Consultation, error)
}

// Handler обрабатывает HTTP-запросы списка консультаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список консультаций пользователя
// @Description Возвращает консультации текущего пользователя с пагинацией.
// @Tags Consultations
// @Produce  json
// @Param limit query int false "Размер страницы" default(10)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список консультаций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /consultations [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.consultation.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.List(r.Context(), principal.UserUID, limit, offset)
	if err != nil {
		log.Error("failed to list consultations", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list consultations"))
		return
	}

	log.Info("listed consultations", slog.Int("count", len(res)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count":    len(res),
		"consultations": res,
	}))
}
