// Package plans реализует HTTP-обработчик списка тарифных планов.
package plans

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики тарифов.
type Service interface {
	Plans(ctx context.Context) ([]*models.SubscriptionPlan, error)
}

// Handler обрабатывает HTTP-запросы списка тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тарифных планов
// @Description Возвращает доступные тарифы подписки. Доступно без авторизации.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Список тарифов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.plans"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Plans(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list plans"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": res,
	}))
}
