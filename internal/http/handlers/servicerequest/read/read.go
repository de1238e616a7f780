// Package read реализует HTTP-обработчик чтения заявки по референс-номеру.
package read

import (
	"context"
	"encoding/json"
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
	"github.com/lexserve/lexserve-backend/internal/services/servicerequest"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// Service описывает интерфейс бизнес-логики чтения заявки.
type Service interface {
	Read(ctx context.Context, referenceNumber, userUID string, asManager bool) (*models.ServiceRequest, error)
}

// Handler обрабатывает HTTP-запросы чтения заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать заявку
// @Description Возвращает заявку по референс-номеру вместе с заметками и метаданными вложений.
// @Tags Requests
// @Produce  json
// @Param reference path string true "Референс-номер заявки"
// @Success 200 {object} map[string]any "Заявка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /requests/{reference} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servicerequest.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	referenceNumber := chi.URLParam(r, "reference")
	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	req, err := h.service.Read(r.Context(), referenceNumber, principal.UserUID, principal.Role.CanManageRequests())
	if err != nil {
		// Чужая заявка неотличима от несуществующей.
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, servicerequest.ErrAccessDenied) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
			return
		}
		log.Error("failed to read request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read request"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"request": struct {
			*models.ServiceRequest
			Details json.RawMessage `json:"details,omitempty"`
		}{ServiceRequest: req, Details: req.Details},
	}))
}
