package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// CreateServiceRequest сохраняет заявку вместе с вложениями в одной
// транзакции и возвращает её id.
func (s *Storage) CreateServiceRequest(ctx context.Context, req models.ServiceRequest) (string, error) {
	const op = "storage.CreateServiceRequest"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO service_requests (reference_number, user_uid, type, status, payment_status, details)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	if err := tx.QueryRowContext(ctx, query,
		req.ReferenceNumber, req.UserUID, req.Type, req.Status, req.PaymentStatus, req.Details).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, doc := range req.Documents {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO request_documents (request_id, file_name, content_type, data)
			 VALUES ($1, $2, $3, $4)`,
			newID, doc.FileName, doc.ContentType, doc.Data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadServiceRequest возвращает заявку по номеру вместе с заметками
// и метаданными вложений (без содержимого файлов).
func (s *Storage) ReadServiceRequest(ctx context.Context, referenceNumber string) (*models.ServiceRequest, error) {
	const op = "storage.ReadServiceRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference_number, user_uid, type, status, payment_status, details,
			      created_at, updated_at
			  FROM service_requests WHERE reference_number = $1`
	var result models.ServiceRequest
	row := s.DB.QueryRowContext(ctx, query, referenceNumber)
	if err := row.Scan(&result.ID, &result.ReferenceNumber, &result.UserUID, &result.Type,
		&result.Status, &result.PaymentStatus, &result.Details,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	docs, err := s.DB.QueryContext(ctx,
		`SELECT id, request_id, file_name, content_type, uploaded_at
		 FROM request_documents WHERE request_id = $1 ORDER BY id`, result.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = docs.Close()
	}()
	for docs.Next() {
		var d models.RequestDocument
		if err := docs.Scan(&d.ID, &d.RequestID, &d.FileName, &d.ContentType, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Documents = append(result.Documents, d)
	}
	if err := docs.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	notes, err := s.DB.QueryContext(ctx,
		`SELECT id, request_id, author, text, created_at
		 FROM request_notes WHERE request_id = $1 ORDER BY id`, result.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = notes.Close()
	}()
	for notes.Next() {
		var n models.RequestNote
		if err := notes.Scan(&n.ID, &n.RequestID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Notes = append(result.Notes, n)
	}
	if err := notes.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &result, nil
}

// ListServiceRequests возвращает заявки пользователя с пагинацией.
// Пустой userUID означает выборку по всем пользователям (для администратора).
func (s *Storage) ListServiceRequests(ctx context.Context, userUID string, limit, offset int) ([]*models.ServiceRequest, error) {
	const op = "storage.ListServiceRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference_number, user_uid, type, status, payment_status, details,
			      created_at, updated_at
			  FROM service_requests
			  WHERE ($1 = '' OR user_uid::text = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ServiceRequest
	for rows.Next() {
		var item models.ServiceRequest
		if err := rows.Scan(&item.ID, &item.ReferenceNumber, &item.UserUID, &item.Type,
			&item.Status, &item.PaymentStatus, &item.Details,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateServiceRequestStatus перезаписывает статус заявки.
// Допустимость перехода не проверяется: любой статус можно сменить на любой.
func (s *Storage) UpdateServiceRequestStatus(ctx context.Context, referenceNumber, status string) (int, error) {
	const op = "storage.UpdateServiceRequestStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE service_requests
			  SET status = $1, updated_at = now()
			  WHERE reference_number = $2`
	result, err := s.DB.ExecContext(ctx, query, status, referenceNumber)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// AddRequestNote добавляет заметку сотрудника к заявке.
func (s *Storage) AddRequestNote(ctx context.Context, referenceNumber, author, text string) (int64, error) {
	const op = "storage.AddRequestNote"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO request_notes (request_id, author, text)
			  SELECT id, $2, $3 FROM service_requests WHERE reference_number = $1
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, referenceNumber, author, text).Scan(&newID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
