// Package subscription содержит логику жизненного цикла подписок.
//
// Подписка создаётся в статусе pending и активируется платёжным сервисом
// после подтверждения оплаты. Истечение срока определяется при чтении:
// активная запись с end_date в прошлом наружу отдаётся как expired.
// Статус кешируется в Redis и инвалидируется при отмене, списании
// консультации и активации.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/storage"
)

// ErrNoActiveSubscription возвращается, когда у пользователя нет действующей подписки.
var ErrNoActiveSubscription = errors.New("no active subscription")

// Repository определяет методы хранилища для подписок и тарифов.
type Repository interface {
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	CreateSubscription(ctx context.Context, sub models.UserSubscription) (string, error)
	GetActiveSubscription(ctx context.Context, userUID string) (*models.UserSubscription, error)
	CancelSubscription(ctx context.Context, userUID string) (int, error)
	ConsumeConsultationUsage(ctx context.Context, subscriptionID string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// StatusCacheKey возвращает ключ кеша статуса подписки пользователя.
// Платёжный сервис инвалидирует его после активации.
func StatusCacheKey(userUID string) string {
	return fmt.Sprintf("subscription:active:%s", userUID)
}

// Service реализует операции над подписками пользователя.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Plans возвращает список доступных тарифов.
func (s *Service) Plans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx)
}

// Create создаёт подписку в статусе pending и возвращает её id и тариф.
// Для разовых тарифов фиксируется счётчик консультаций.
func (s *Service) Create(ctx context.Context, userUID, planID string) (string, *models.SubscriptionPlan, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return "", nil, err
	}

	duration := plan.DurationDays
	if duration <= 0 {
		duration = 30
	}
	now := time.Now()
	sub := models.UserSubscription{
		UserUID:   userUID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionPending,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, duration),
	}
	if plan.Kind == models.PlanOneTime {
		sub.Usage = &models.OneTimeUsage{ConsultationsUsed: 0, ConsultationsTotal: plan.Consultations}
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return "", nil, err
	}
	s.log.Info("created pending subscription",
		slog.String("subscription_id", id),
		slog.String("plan_id", plan.ID))
	return id, plan, nil
}

// Status возвращает текущую подписку пользователя, используя кеш или
// репозиторий. Активная запись с истёкшим сроком помечается статусом
// expired без записи в базу; кешируется исходная запись, поэтому
// сопоставление работает и для кешированного значения.
func (s *Service) Status(ctx context.Context, userUID string) (*models.UserSubscription, error) {
	var sub *models.UserSubscription
	cacheKey := StatusCacheKey(userUID)
	found, err := s.cache.Get(cacheKey, &sub)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if !found || sub == nil {
		sub, err = s.repo.GetActiveSubscription(ctx, userUID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrNoActiveSubscription
			}
			return nil, err
		}
		if err := s.cache.Set(cacheKey, sub, time.Hour); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
		}
	}
	if sub.Status == models.SubscriptionActive && sub.EndDate.Before(time.Now()) {
		expired := *sub
		expired.Status = models.SubscriptionExpired
		return &expired, nil
	}
	return sub, nil
}

// Cancel отменяет действующую подписку пользователя и инвалидирует кеш.
// Возвращает количество изменённых строк.
func (s *Service) Cancel(ctx context.Context, userUID string) (int, error) {
	cacheKey := StatusCacheKey(userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return s.repo.CancelSubscription(ctx, userUID)
}

// ConsumeConsultation списывает одну консультацию с разовой подписки.
// Возвращает ErrNoActiveSubscription, если подписки нет, срок истёк
// или лимит исчерпан.
func (s *Service) ConsumeConsultation(ctx context.Context, userUID string) error {
	sub, err := s.Status(ctx, userUID)
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionExpired {
		return ErrNoActiveSubscription
	}
	if sub.Usage == nil {
		// Периодическая подписка, консультации не лимитируются.
		return nil
	}
	affected, err := s.repo.ConsumeConsultationUsage(ctx, sub.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoActiveSubscription
	}
	cacheKey := StatusCacheKey(userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return nil
}
