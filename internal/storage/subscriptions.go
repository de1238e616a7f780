package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// ListPlans возвращает все тарифные планы.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, kind, price, duration_days, consultations, description
			  FROM subscription_plans
			  ORDER BY price`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		var item models.SubscriptionPlan
		if err := rows.Scan(&item.ID, &item.Name, &item.Kind, &item.Price,
			&item.DurationDays, &item.Consultations, &item.Description); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlan возвращает тарифный план по id.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, kind, price, duration_days, consultations, description
			  FROM subscription_plans WHERE id = $1`
	var item models.SubscriptionPlan
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&item.ID, &item.Name, &item.Kind, &item.Price,
		&item.DurationDays, &item.Consultations, &item.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &item, nil
}

// CreateSubscription создаёт подписку в статусе pending и возвращает её id.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.UserSubscription) (string, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var used, total *int
	if sub.Usage != nil {
		used, total = &sub.Usage.ConsultationsUsed, &sub.Usage.ConsultationsTotal
	}
	query := `INSERT INTO user_subscriptions (user_uid, plan_id, status, start_date, end_date,
			      consultations_used, consultations_total)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, used, total).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// scanSubscription читает строку user_subscriptions в модель.
func scanSubscription(row interface{ Scan(...any) error }) (*models.UserSubscription, error) {
	var item models.UserSubscription
	var used, total sql.NullInt64
	if err := row.Scan(&item.ID, &item.UserUID, &item.PlanID, &item.Status,
		&item.StartDate, &item.EndDate, &used, &total, &item.CreatedAt); err != nil {
		return nil, err
	}
	if used.Valid && total.Valid {
		item.Usage = &models.OneTimeUsage{
			ConsultationsUsed:  int(used.Int64),
			ConsultationsTotal: int(total.Int64),
		}
	}
	return &item, nil
}

// GetActiveSubscription возвращает последнюю подписку пользователя в
// статусе active. Запись с end_date в прошлом тоже возвращается:
// истечение интерпретирует сервис при чтении.
func (s *Storage) GetActiveSubscription(ctx context.Context, userUID string) (*models.UserSubscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, status, start_date, end_date,
			      consultations_used, consultations_total, created_at
			  FROM user_subscriptions
			  WHERE user_uid = $1 AND status = 'active'
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetLatestPendingSubscription возвращает последнюю неоплаченную подписку пользователя.
func (s *Storage) GetLatestPendingSubscription(ctx context.Context, userUID string) (*models.UserSubscription, error) {
	const op = "storage.GetLatestPendingSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, status, start_date, end_date,
			      consultations_used, consultations_total, created_at
			  FROM user_subscriptions
			  WHERE user_uid = $1 AND status = 'pending'
			  ORDER BY created_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ActivateSubscription переводит подписку в статус active и сдвигает срок действия.
func (s *Storage) ActivateSubscription(ctx context.Context, id string, endDate time.Time) (int, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions
			  SET status = 'active', start_date = now(), end_date = $1
			  WHERE id = $2 AND status = 'pending'`
	result, err := s.DB.ExecContext(ctx, query, endDate, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CancelSubscription переводит текущую подписку пользователя в статус cancelled.
func (s *Storage) CancelSubscription(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions
			  SET status = 'cancelled'
			  WHERE user_uid = $1 AND status IN ('pending', 'active')`
	result, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ConsumeConsultationUsage увеличивает счётчик использованных консультаций
// разового плана. Возвращает 0 строк, если лимит уже исчерпан.
func (s *Storage) ConsumeConsultationUsage(ctx context.Context, id string) (int, error) {
	const op = "storage.ConsumeConsultationUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_subscriptions
			  SET consultations_used = consultations_used + 1
			  WHERE id = $1 AND consultations_used < consultations_total`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
