// Package check реализует HTTP-обработчик проверки компании в реестре.
//
// Handler принимает RC-номер или название компании и запрашивает
// сведения о ней во внешнем реестре. Доступ ограничен ролями staff
// и администраторов через middleware маршрутизации.
package check

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/cac"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
)

// Request — структура входных данных для проверки компании.
// Достаточно одного из полей; оба пустых — ошибка валидации.
type Request struct {
	RCNumber    string `json:"rc_number" validate:"omitempty,max=50"`
	CompanyName string `json:"company_name" validate:"omitempty,max=200"`
}

// Registry описывает интерфейс клиента реестра компаний.
type Registry interface {
	CheckCompliance(ctx context.Context, rcNumber, companyName string) (*cac.ComplianceResult, error)
}

// Handler обрабатывает HTTP-запросы проверки компаний.
type Handler struct {
	log      *slog.Logger
	registry Registry
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и клиентом реестра.
func New(log *slog.Logger, registry Registry) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Проверить компанию в реестре
// @Description Запрашивает сведения о компании по RC-номеру или названию. Доступно сотрудникам и администраторам.
// @Tags Registry
// @Accept  json
// @Produce  json
// @Param request body Request true "RC-номер или название компании"
// @Success 200 {object} map[string]any "Сведения о компании"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Компания не найдена"
// @Failure 422 {object} response.ErrorResponse "Не указан ни номер, ни название"
// @Failure 502 {object} response.ErrorResponse "Ошибка реестра"
// @Router /registry/check [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registry.check"
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
	if req.RCNumber == "" && req.CompanyName == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("either rc_number or company_name is required"))
		return
	}

	result, err := h.registry.CheckCompliance(r.Context(), req.RCNumber, req.CompanyName)
	if err != nil {
		if errors.Is(err, cac.ErrCompanyNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("company not found"))
			return
		}
		log.Error("registry check failed", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("registry is unavailable"))
		return
	}

	log.Info("registry check done", slog.String("rc_number", req.RCNumber))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"result": result,
	}))
}
