// Package list реализует HTTP-обработчик списка заявок пользователя.
package list

import (
	"context"
	"encoding/json"
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

// Service описывает интерфейс бизнес-логики списка заявок.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.ServiceRequest, error)
}

// Handler обрабатывает HTTP-запросы списка заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// item — заявка в ответе списка: детали разворачиваются из JSON.
type item struct {
	*models.ServiceRequest
	Details json.RawMessage `json:"details,omitempty"`
}

// ServeHTTP godoc
// @Summary Список заявок пользователя
// @Description Возвращает заявки текущего пользователя с пагинацией.
// @Tags Requests
// @Produce  json
// @Param limit query int false "Размер страницы" default(10)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список заявок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /requests [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servicerequest.list"
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
		log.Error("failed to list requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list requests"))
		return
	}

	items := make([]item, 0, len(res))
	for _, req := range res {
		items = append(items, item{ServiceRequest: req, Details: req.Details})
	}

	log.Info("listed requests", slog.Int("count", len(res)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count": len(items),
		"requests":   items,
	}))
}
