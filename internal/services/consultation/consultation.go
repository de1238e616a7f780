// Package consultation содержит бизнес-логику бронирования консультаций.
//
// Если у пользователя есть разовая подписка с неизрасходованными
// консультациями, бронирование списывает одну из них и создаётся уже
// оплаченным. Иначе консультация создаётся в статусе pending и
// оплачивается отдельно по тарифу.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/services/subscription"
)

// Repository определяет методы для работы с консультациями в хранилище.
type Repository interface {
	CreateConsultation(ctx context.Context, c models.Consultation) (string, error)
	ReadConsultation(ctx context.Context, id string) (*models.Consultation, error)
	ListConsultations(ctx context.Context, userUID string, limit, offset int) ([]*models.Consultation, error)
	ListAllConsultations(ctx context.Context, limit, offset int) ([]*models.Consultation, error)
	CancelConsultation(ctx context.Context, id, userUID string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Subscriptions списывает консультации с разовых планов.
type Subscriptions interface {
	ConsumeConsultation(ctx context.Context, userUID string) error
}

// Service реализует бизнес-логику консультаций с кешированием чтения.
type Service struct {
	repo          Repository
	cache         Cache
	subscriptions Subscriptions
	log           *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, subscriptions Subscriptions, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, subscriptions: subscriptions, log: log}
}

// BookRequest — параметры бронирования.
type BookRequest struct {
	CallType string
	Date     time.Time
	Time     string
	Topic    string
}

// Book создаёт консультацию и возвращает её вместе со стоимостью.
// Покрытая подпиской консультация создаётся оплаченной с нулевой суммой;
// иначе создаётся запись в статусе pending со стоимостью по тарифу.
func (s *Service) Book(ctx context.Context, userUID string, req BookRequest) (*models.Consultation, float64, error) {
	price, err := models.ConsultationPrice(req.CallType)
	if err != nil {
		return nil, 0, err
	}
	today := time.Now().Truncate(24 * time.Hour)
	if req.Date.Before(today) {
		return nil, 0, fmt.Errorf("consultation date must not be earlier than today")
	}

	// Списание выполняется до создания записи: неудача списания
	// переводит бронирование в обычный платный поток.
	covered := false
	if err := s.subscriptions.ConsumeConsultation(ctx, userUID); err == nil {
		covered = true
	} else if !errors.Is(err, subscription.ErrNoActiveSubscription) {
		s.log.Warn("failed to consume subscription consultation", slog.Any("err", err))
	}

	c := models.Consultation{
		UserUID:       userUID,
		CallType:      req.CallType,
		Date:          req.Date,
		Time:          req.Time,
		Topic:         req.Topic,
		Status:        models.ConsultationPending,
		PaymentStatus: "unpaid",
	}
	if covered {
		c.Status = models.ConsultationPaid
		c.PaymentStatus = models.ConsultationPaid
		price = 0
	}

	id, err := s.repo.CreateConsultation(ctx, c)
	if err != nil {
		if covered {
			s.log.Error("consultation covered by subscription was not created",
				slog.String("user_uid", userUID), slog.Any("err", err))
		}
		return nil, 0, err
	}
	c.ID = id
	s.log.Info("booked new consultation",
		slog.String("id", id),
		slog.String("call_type", req.CallType),
		slog.Bool("covered", covered))
	return &c, price, nil
}

// Read возвращает консультацию по id, используя кеш или репозиторий.
func (s *Service) Read(ctx context.Context, id string) (*models.Consultation, error) {
	var result *models.Consultation
	cacheKey := fmt.Sprintf("consultation:%s", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// List возвращает консультации пользователя с пагинацией.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Consultation, error) {
	return s.repo.ListConsultations(ctx, userUID, limit, offset)
}

// ListAll возвращает все консультации (для администратора).
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.Consultation, error) {
	return s.repo.ListAllConsultations(ctx, limit, offset)
}

// Cancel отменяет консультацию пользователя и инвалидирует кеш.
// Возвращает количество изменённых строк: 0 — записи нет или она чужая.
func (s *Service) Cancel(ctx context.Context, id, userUID string) (int, error) {
	cacheKey := fmt.Sprintf("consultation:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return s.repo.CancelConsultation(ctx, id, userUID)
}
