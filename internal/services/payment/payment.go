// Package payment реализует верификацию платежей через платёжный шлюз.
//
// Поток строго последовательный: вход мерчанта, запрос транзакции,
// сохранение квитанции, затем обновление связанной консультации или
// подписки. Квитанция сохраняется сразу после подтверждения оплаты
// шлюзом; последующая проверка суммы её не откатывает.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexserve/lexserve-backend/internal/lib/rabbitmq"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/obs"
	"github.com/lexserve/lexserve-backend/internal/services/subscription"
	"github.com/lexserve/lexserve-backend/internal/storage"
	"github.com/lexserve/lexserve-backend/internal/vpay"
)

// Ошибки верификации. Обработчик переводит их в HTTP-статусы.
var (
	// ErrPaymentNotCompleted — шлюз сообщил статус, отличный от paid.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrIncorrectAmount — сумма шлюза не совпала с тарифом консультации.
	// Квитанция к этому моменту уже сохранена.
	ErrIncorrectAmount = errors.New("incorrect payment amount")
)

// Gateway описывает двухшаговый протокол платёжного шлюза.
type Gateway interface {
	Login(ctx context.Context) (string, error)
	VerifyTransaction(ctx context.Context, token, transactionRef string) (*vpay.VerifyData, error)
}

// Repository определяет методы хранилища, используемые при верификации.
type Repository interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error)
	ReadConsultation(ctx context.Context, id string) (*models.Consultation, error)
	MarkConsultationPaid(ctx context.Context, id string, transactionID int64) (int, error)
	GetLatestPendingSubscription(ctx context.Context, userUID string) (*models.UserSubscription, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	ActivateSubscription(ctx context.Context, id string, endDate time.Time) (int, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// Publisher публикует события уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Cache инвалидирует кешированный статус подписки после активации.
type Cache interface {
	Invalidate(key string) error
}

// ReceiptNotice — событие для письма-квитанции.
type ReceiptNotice struct {
	Email          string  `json:"email"`
	Username       string  `json:"username"`
	TransactionRef string  `json:"transaction_ref"`
	Amount         float64 `json:"amount"`
	Reason         string  `json:"reason"`
}

// Service реализует верификацию платежей.
type Service struct {
	gateway   Gateway
	repo      Repository
	publisher Publisher
	cache     Cache
	log       *slog.Logger
}

// New создает новый Service.
func New(gateway Gateway, repo Repository, publisher Publisher, cache Cache, log *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		log:       log,
	}
}

// VerifyRequest — параметры верификации платежа.
type VerifyRequest struct {
	TransactionRef string
	Reason         string // subscription или consultation
	ConsultationID string // обязателен при reason = consultation
}

// Verify подтверждает платёж у шлюза и сохраняет квитанцию.
//
// На каждый вызов выполняется отдельный вход мерчанта: сессионный токен
// не кешируется. Повторная верификация того же transaction_ref упирается
// в уникальный индекс и возвращает storage.ErrTransactionExists.
func (s *Service) Verify(ctx context.Context, principalUID string, req VerifyRequest) (*models.Transaction, error) {
	const op = "services.payment.Verify"

	token, err := s.gateway.Login(ctx)
	if err != nil {
		obs.PaymentsVerifiedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := s.gateway.VerifyTransaction(ctx, token, req.TransactionRef)
	if err != nil {
		obs.PaymentsVerifiedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !data.Paid() {
		s.log.Info("gateway reported unpaid transaction",
			slog.String("transaction_ref", req.TransactionRef),
			slog.String("gateway_status", data.PaymentStatus))
		obs.PaymentsVerifiedTotal.WithLabelValues("not_paid").Inc()
		return nil, ErrPaymentNotCompleted
	}

	transaction := models.Transaction{
		UserUID:        principalUID,
		TransactionRef: req.TransactionRef,
		Amount:         data.OrderAmount,
		Status:         data.PaymentStatus,
		PaymentMethod:  data.PaymentMethod,
		Reversed:       data.Reversed,
		Reason:         req.Reason,
	}
	transactionID, err := s.repo.CreateTransaction(ctx, transaction)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionExists) {
			obs.PaymentsVerifiedTotal.WithLabelValues("duplicate").Inc()
		} else {
			obs.PaymentsVerifiedTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	transaction.ID = transactionID
	transaction.CreatedAt = time.Now()

	switch req.Reason {
	case models.PaymentReasonConsultation:
		if err := s.settleConsultation(ctx, req.ConsultationID, transactionID, data.OrderAmount); err != nil {
			return nil, err
		}
	case models.PaymentReasonSubscription:
		s.activateSubscription(ctx, principalUID)
	}

	obs.PaymentsVerifiedTotal.WithLabelValues("confirmed").Inc()
	s.publishReceipt(ctx, principalUID, transaction)

	return &transaction, nil
}

// settleConsultation сверяет сумму с тарифом и помечает консультацию оплаченной.
// Несовпадение суммы возвращает ErrIncorrectAmount; сохранённая квитанция
// при этом остаётся в базе.
func (s *Service) settleConsultation(ctx context.Context, consultationID string, transactionID int64, paidAmount float64) error {
	const op = "services.payment.settleConsultation"

	consultation, err := s.repo.ReadConsultation(ctx, consultationID)
	if err != nil {
		obs.PaymentsVerifiedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	expected, err := models.ConsultationPrice(consultation.CallType)
	if err != nil {
		obs.PaymentsVerifiedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if paidAmount != expected {
		s.log.Error("payment amount mismatch, transaction kept",
			slog.String("consultation_id", consultationID),
			slog.Int64("transaction_id", transactionID),
			slog.Float64("expected", expected),
			slog.Float64("paid", paidAmount))
		obs.PaymentsVerifiedTotal.WithLabelValues("amount_mismatch").Inc()
		return ErrIncorrectAmount
	}

	if _, err := s.repo.MarkConsultationPaid(ctx, consultationID, transactionID); err != nil {
		// Квитанция уже сохранена: ошибку связывания не возвращаем клиенту.
		s.log.Error("failed to mark consultation paid", sl.Err(err),
			slog.String("consultation_id", consultationID),
			slog.Int64("transaction_id", transactionID))
	}
	return nil
}

// activateSubscription переводит последнюю ожидающую подписку в active.
// Ошибки логируются: платёж уже подтверждён и записан.
func (s *Service) activateSubscription(ctx context.Context, userUID string) {
	sub, err := s.repo.GetLatestPendingSubscription(ctx, userUID)
	if err != nil {
		s.log.Error("no pending subscription to activate", sl.Err(err),
			slog.String("user_uid", userUID))
		return
	}
	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		s.log.Error("failed to read plan", sl.Err(err), slog.String("plan_id", sub.PlanID))
		return
	}
	duration := plan.DurationDays
	if duration <= 0 {
		duration = 30
	}
	endDate := time.Now().AddDate(0, 0, duration)
	if _, err := s.repo.ActivateSubscription(ctx, sub.ID, endDate); err != nil {
		s.log.Error("failed to activate subscription", sl.Err(err), slog.String("subscription_id", sub.ID))
		return
	}
	if s.cache != nil {
		key := subscription.StatusCacheKey(userUID)
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
		}
	}
}

// publishReceipt отправляет событие для письма-квитанции. Сбой не влияет
// на результат верификации.
func (s *Service) publishReceipt(ctx context.Context, userUID string, t models.Transaction) {
	if s.publisher == nil {
		return
	}
	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to read user for receipt", sl.Err(err))
		return
	}
	notice := ReceiptNotice{
		Email:          user.Email,
		Username:       user.Username,
		TransactionRef: t.TransactionRef,
		Amount:         t.Amount,
		Reason:         t.Reason,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyReceipt, notice); err != nil {
		s.log.Warn("failed to publish receipt notice", sl.Err(err))
	}
}

// ListTransactions возвращает платежи пользователя.
func (s *Service) ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	return s.repo.ListTransactions(ctx, userUID, limit, offset)
}
