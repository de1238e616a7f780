// Package submit реализует HTTP-обработчик подачи заявки на услугу.
//
// Заявка приходит как multipart/form-data: поле type, поле details
// с JSON-деталями и произвольное число файлов в поле documents.
// Детали валидируются типизированно в зависимости от типа заявки,
// файлы сохраняются вместе с записью.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/servicerequest"
)

// Предел суммарного размера multipart-формы.
const maxFormSize = 32 << 20 // 32 MiB

// Service описывает интерфейс бизнес-логики подачи заявки.
type Service interface {
	Submit(ctx context.Context, userUID, requestType string, details any, attachments []servicerequest.Attachment) (string, error)
}

// Handler обрабатывает HTTP-запросы подачи заявок.
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
// @Summary Подать заявку на услугу
// @Description Создает заявку: регистрация бизнеса, due diligence или защита ИС. Принимает multipart-форму с деталями и вложениями.
// @Tags Requests
// @Accept  multipart/form-data
// @Produce  json
// @Param type formData string true "Тип заявки" Enums(business_registration, due_diligence, ip_protection)
// @Param details formData string true "JSON с деталями заявки"
// @Param documents formData file false "Вложения"
// @Success 200 {object} map[string]any "Заявка создана"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма или детали"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 413 {object} response.ErrorResponse "Вложение слишком большое"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации деталей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /requests [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servicerequest.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	requestType := r.FormValue("type")
	details, err := h.decodeDetails(requestType, []byte(r.FormValue("details")))
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Error("details validation failed", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validationErrs))
			return
		}
		log.Error("failed to decode details", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var attachments []servicerequest.Attachment
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["documents"] {
			file, err := fh.Open()
			if err != nil {
				log.Error("failed to open attachment", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid attachment"))
				return
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				log.Error("failed to read attachment", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid attachment"))
				return
			}
			attachments = append(attachments, servicerequest.Attachment{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	referenceNumber, err := h.service.Submit(r.Context(), principal.UserUID, requestType, details, attachments)
	if err != nil {
		if errors.Is(err, servicerequest.ErrDocumentTooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("document is too large"))
			return
		}
		log.Error("failed to submit request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not submit request"))
		return
	}

	log.Info("service request submitted",
		slog.String("reference_number", referenceNumber),
		slog.String("type", requestType))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"reference_number": referenceNumber,
		"status":           models.RequestSubmitted,
	}))
}

// decodeDetails разбирает и валидирует детали заявки по её типу.
func (h *Handler) decodeDetails(requestType string, raw []byte) (any, error) {
	switch requestType {
	case models.RequestBusinessRegistration:
		var details models.BusinessRegistrationDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, errors.New("invalid details json")
		}
		if err := h.validate.Struct(details); err != nil {
			return nil, err
		}
		return details, nil
	case models.RequestDueDiligence:
		var details models.DueDiligenceDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, errors.New("invalid details json")
		}
		if err := h.validate.Struct(details); err != nil {
			return nil, err
		}
		return details, nil
	case models.RequestIPProtection:
		var details models.IPProtectionDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, errors.New("invalid details json")
		}
		if err := h.validate.Struct(details); err != nil {
			return nil, err
		}
		return details, nil
	default:
		return nil, errors.New("unknown request type")
	}
}
