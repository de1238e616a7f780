// Package improve реализует HTTP-обработчик улучшения текста документа.
package improve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/services/document"
)

// Request — структура входных данных для улучшения документа.
type Request struct {
	Text            string `json:"text" validate:"required,min=10"`
	ImprovementType string `json:"improvement_type" validate:"required,oneof=clarity formal_tone simplify risk_mitigation"`
}

// Service описывает интерфейс бизнес-логики улучшения документов.
type Service interface {
	Improve(ctx context.Context, text, improvementType string) (string, error)
}

// Handler обрабатывает HTTP-запросы улучшения документов.
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
// @Summary Улучшить текст документа
// @Description Переписывает текст документа в запрошенном стиле. Результат не сохраняется.
// @Tags Documents
// @Accept  json
// @Produce  json
// @Param request body Request true "Текст и вид улучшения"
// @Success 200 {object} map[string]any "Улучшенный текст"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка модели или сервера"
// @Router /documents/improve [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.improve"
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

	improved, err := h.service.Improve(r.Context(), req.Text, req.ImprovementType)
	if err != nil {
		if errors.Is(err, document.ErrTextTooShort) || errors.Is(err, document.ErrUnknownImprovement) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to improve document", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to improve document"))
		return
	}

	log.Info("document improved", slog.String("improvement_type", req.ImprovementType))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"improvement_type": req.ImprovementType,
		"improved_text":    improved,
	}))
}
