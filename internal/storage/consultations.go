package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// CreateConsultation вставляет новую запись о консультации и возвращает её id.
func (s *Storage) CreateConsultation(ctx context.Context, c models.Consultation) (string, error) {
	const op = "storage.CreateConsultation"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO consultations (user_uid, call_type, date, time_slot, topic, status, payment_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		c.UserUID, c.CallType, c.Date, c.Time, c.Topic, c.Status, c.PaymentStatus).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadConsultation возвращает консультацию по id.
func (s *Storage) ReadConsultation(ctx context.Context, id string) (*models.Consultation, error) {
	const op = "storage.ReadConsultation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, call_type, date, time_slot, topic, status,
			      payment_status, transaction_id, created_at, cancelled_at
			  FROM consultations WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Consultation
	if err := row.Scan(&result.ID, &result.UserUID, &result.CallType, &result.Date,
		&result.Time, &result.Topic, &result.Status, &result.PaymentStatus,
		&result.TransactionID, &result.CreatedAt, &result.CancelledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListConsultations возвращает консультации пользователя с пагинацией.
func (s *Storage) ListConsultations(ctx context.Context, userUID string, limit, offset int) ([]*models.Consultation, error) {
	const op = "storage.ListConsultations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, call_type, date, time_slot, topic, status,
			      payment_status, transaction_id, created_at, cancelled_at
			  FROM consultations
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Consultation
	for rows.Next() {
		var item models.Consultation
		if err := rows.Scan(&item.ID, &item.UserUID, &item.CallType, &item.Date,
			&item.Time, &item.Topic, &item.Status, &item.PaymentStatus,
			&item.TransactionID, &item.CreatedAt, &item.CancelledAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllConsultations возвращает все консультации с пагинацией (для администратора).
func (s *Storage) ListAllConsultations(ctx context.Context, limit, offset int) ([]*models.Consultation, error) {
	const op = "storage.ListAllConsultations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, call_type, date, time_slot, topic, status,
			      payment_status, transaction_id, created_at, cancelled_at
			  FROM consultations
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Consultation
	for rows.Next() {
		var item models.Consultation
		if err := rows.Scan(&item.ID, &item.UserUID, &item.CallType, &item.Date,
			&item.Time, &item.Topic, &item.Status, &item.PaymentStatus,
			&item.TransactionID, &item.CreatedAt, &item.CancelledAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkConsultationPaid выставляет статус оплаты и связывает консультацию с платежом.
func (s *Storage) MarkConsultationPaid(ctx context.Context, id string, transactionID int64) (int, error) {
	const op = "storage.MarkConsultationPaid"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE consultations
			  SET status = 'paid', payment_status = 'paid', transaction_id = $1
			  WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, transactionID, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CancelConsultation помечает консультацию пользователя отменённой.
// Возвращает количество изменённых строк: 0 означает, что записи нет
// или она принадлежит другому пользователю.
func (s *Storage) CancelConsultation(ctx context.Context, id, userUID string) (int, error) {
	const op = "storage.CancelConsultation"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE consultations
			  SET status = 'cancelled', cancelled_at = now()
			  WHERE id = $1 AND user_uid = $2 AND status IN ('pending', 'paid')`
	result, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
