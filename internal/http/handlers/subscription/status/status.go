// Package status реализует HTTP-обработчик статуса подписки пользователя.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/subscription"
)

// Service описывает интерфейс бизнес-логики статуса подписки.
type Service interface {
	Status(ctx context.Context, userUID string) (*models.UserSubscription, error)
}

// Handler обрабатывает HTTP-запросы статуса подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает текущую подписку пользователя. Истёкшая отдаётся со статусом expired.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Подписка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Действующей подписки нет"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/status [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sub, err := h.service.Status(r.Context(), principal.UserUID)
	if err != nil {
		if errors.Is(err, subscription.ErrNoActiveSubscription) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no active subscription"))
			return
		}
		log.Error("failed to read subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read subscription status"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
	}))
}
