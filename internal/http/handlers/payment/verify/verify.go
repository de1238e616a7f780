// Package verify реализует HTTP-обработчик верификации платежа.
//
// Handler принимает референс транзакции и назначение платежа, проверяет
// платёж у шлюза через сервис и возвращает сохранённую квитанцию.
// Несовпадение суммы — ошибка клиента, но квитанция остаётся в базе.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/payment"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// Request — структура входных данных для верификации платежа.
type Request struct {
	TransactionRef string `json:"transaction_ref" validate:"required"`
	Reason         string `json:"reason" validate:"required,oneof=subscription consultation"`
	ConsultationID string `json:"consultation_id" validate:"omitempty,uuid"`
}

// Service описывает интерфейс бизнес-логики верификации платежей.
type Service interface {
	Verify(ctx context.Context, principalUID string, req payment.VerifyRequest) (*models.Transaction, error)
}

// Handler обрабатывает HTTP-запросы верификации платежей.
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
// @Summary Верифицировать платёж
// @Description Проверяет платёж у платёжного шлюза и сохраняет квитанцию. Для консультаций сверяет сумму с тарифом.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Референс транзакции и назначение платежа"
// @Success 200 {object} map[string]any "Платёж подтверждён"
// @Failure 400 {object} response.ErrorResponse "Платёж не завершён или сумма не совпала"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Транзакция уже была верифицирована"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка шлюза или сервера"
// @Router /payments/verify [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"
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

	if req.Reason == models.PaymentReasonConsultation && req.ConsultationID == "" {
		log.Error("consultation_id is required for consultation payments")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field ConsultationID is a required field"))
		return
	}

	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		log.Error("principal not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	transaction, err := h.service.Verify(r.Context(), principal.UserUID, payment.VerifyRequest{
		TransactionRef: req.TransactionRef,
		Reason:         req.Reason,
		ConsultationID: req.ConsultationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPaymentNotCompleted):
			log.Error("payment not completed", slog.String("transaction_ref", req.TransactionRef))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment not completed"))
		case errors.Is(err, payment.ErrIncorrectAmount):
			log.Error("incorrect payment amount", slog.String("transaction_ref", req.TransactionRef))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("incorrect payment amount"))
		case errors.Is(err, storage.ErrTransactionExists):
			log.Error("transaction already verified", slog.String("transaction_ref", req.TransactionRef))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("transaction already verified"))
		case errors.Is(err, storage.ErrNotFound):
			log.Error("consultation not found", slog.String("consultation_id", req.ConsultationID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("consultation not found"))
		default:
			log.Error("failed to verify payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to verify payment"))
		}
		return
	}

	log.Info("payment verified",
		slog.String("transaction_ref", req.TransactionRef),
		slog.String("reason", req.Reason))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"transaction": transaction,
	}))
}
