// Package ask реализует HTTP-обработчик вопроса юридическому ассистенту.
package ask

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
)

// Request — структура входных данных для вопроса ассистенту.
type Request struct {
	Question string `json:"question" validate:"required,min=3,max=4000"`
	ChatID   string `json:"chat_id" validate:"omitempty,uuid"`
}

// Service описывает интерфейс бизнес-логики ассистента.
type Service interface {
	Ask(ctx context.Context, userUID, chatID, question string) (string, string, error)
}

// Handler обрабатывает HTTP-запросы к ассистенту.
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
// @Summary Задать вопрос ассистенту
// @Description Отправляет вопрос юридическому ассистенту. Пустой chat_id начинает новый диалог.
// @Tags Chat
// @Accept  json
// @Produce  json
// @Param request body Request true "Вопрос и необязательный chat_id"
// @Success 200 {object} map[string]any "Ответ ассистента"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка модели или сервера"
// @Router /chat [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.ask"
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

	answer, chatID, err := h.service.Ask(r.Context(), principal.UserUID, req.ChatID, req.Question)
	if err != nil {
		log.Error("failed to ask assistant", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("assistant is unavailable"))
		return
	}

	log.Info("assistant answered", slog.String("chat_id", chatID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"chat_id": chatID,
		"answer":  answer,
	}))
}
