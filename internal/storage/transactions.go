package storage

import (
	"context"
	"fmt"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// CreateTransaction сохраняет квитанцию о платеже и возвращает её id.
// Повторный transaction_ref отклоняется уникальным индексом и
// возвращается как ErrTransactionExists.
func (s *Storage) CreateTransaction(ctx context.Context, t models.Transaction) (int64, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO transactions (user_uid, transaction_ref, amount, status,
			      payment_method, reversed, reason)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		t.UserUID, t.TransactionRef, t.Amount, t.Status,
		t.PaymentMethod, t.Reversed, t.Reason).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrTransactionExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListTransactions возвращает платежи пользователя с пагинацией.
func (s *Storage) ListTransactions(ctx context.Context, userUID string, limit, offset int) ([]*models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, transaction_ref, amount, status, payment_method,
			      reversed, reason, created_at
			  FROM transactions
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

	var result []*models.Transaction
	for rows.Next() {
		var item models.Transaction
		if err := rows.Scan(&item.ID, &item.UserUID, &item.TransactionRef, &item.Amount,
			&item.Status, &item.PaymentMethod, &item.Reversed, &item.Reason, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
