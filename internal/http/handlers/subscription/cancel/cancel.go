// Package cancel реализует HTTP-обработчик отмены подписки.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string) (int, error)
}

// Handler обрабатывает HTTP-запросы отмены подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Отменяет действующую подписку текущего пользователя.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Подписка отменена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Действующей подписки нет"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
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

	affected, err := h.service.Cancel(r.Context(), principal.UserUID)
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to cancel subscription"))
		return
	}
	if affected == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no active subscription"))
		return
	}

	log.Info("subscription cancelled", slog.String("user_uid", principal.UserUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": models.SubscriptionCancelled,
	}))
}
