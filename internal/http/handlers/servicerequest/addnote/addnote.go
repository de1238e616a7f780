// Package addnote реализует HTTP-обработчик добавления заметки к заявке.
package addnote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// Request — структура входных данных для заметки.
type Request struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// Service описывает интерфейс бизнес-логики заметок.
type Service interface {
	AddNote(ctx context.Context, referenceNumber, author, text string) (int64, error)
}

// Handler обрабатывает HTTP-запросы добавления заметок.
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
// @Summary Добавить заметку к заявке
// @Description Добавляет внутреннюю заметку сотрудника к заявке. Доступно администраторам.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param reference path string true "Референс-номер заявки"
// @Param request body Request true "Текст заметки"
// @Success 200 {object} map[string]any "Заметка добавлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/requests/{reference}/notes [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servicerequest.addnote"
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

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	referenceNumber := chi.URLParam(r, "reference")
	noteID, err := h.service.AddNote(r.Context(), referenceNumber, principal.Username, req.Text)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
			return
		}
		log.Error("failed to add note", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to add note"))
		return
	}

	log.Info("note added", slog.String("reference_number", referenceNumber), slog.Int64("note_id", noteID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"note_id": noteID,
	}))
}
