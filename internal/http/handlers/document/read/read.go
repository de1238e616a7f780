// Package read реализует HTTP-обработчик чтения сохранённого анализа.
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

// Service описывает интерфейс бизнес-логики чтения анализа.
type Service interface {
	Read(ctx context.Context, id, userUID string) (*models.DocumentAnalysis, error)
}

// Handler обрабатывает HTTP-запросы чтения анализа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать сохранённый анализ
// @Description Возвращает анализ документа по id. Доступен только владельцу.
// @Tags Documents
// @Produce  json
// @Param id path string true "ID анализа"
// @Success 200 {object} map[string]any "Анализ"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Анализ не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /documents/{id} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.read"
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

	res, err := h.service.Read(r.Context(), id, principal.UserUID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("analysis not found"))
			return
		}
		log.Error("failed to read analysis", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read analysis"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"analysis": res,
	}))
}
