package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// CreateDocumentAnalysis сохраняет результат анализа документа.
func (s *Storage) CreateDocumentAnalysis(ctx context.Context, a models.DocumentAnalysis) error {
	const op = "storage.CreateDocumentAnalysis"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	analysisJSON, err := json.Marshal(a.Analysis)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO document_analyses (id, user_uid, file_name, doc_text, analysis, degraded)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		a.ID, a.UserUID, a.FileName, a.Text, analysisJSON, a.Degraded); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadDocumentAnalysis возвращает сохранённый анализ по id и владельцу.
func (s *Storage) ReadDocumentAnalysis(ctx context.Context, id, userUID string) (*models.DocumentAnalysis, error) {
	const op = "storage.ReadDocumentAnalysis"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, file_name, doc_text, analysis, degraded, created_at
			  FROM document_analyses
			  WHERE id = $1 AND user_uid = $2`
	var result models.DocumentAnalysis
	var analysisJSON []byte
	row := s.DB.QueryRowContext(ctx, query, id, userUID)
	if err := row.Scan(&result.ID, &result.UserUID, &result.FileName, &result.Text,
		&analysisJSON, &result.Degraded, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(analysisJSON, &result.Analysis); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListDocumentAnalyses возвращает анализы пользователя без текста документов.
func (s *Storage) ListDocumentAnalyses(ctx context.Context, userUID string, limit, offset int) ([]*models.DocumentAnalysis, error) {
	const op = "storage.ListDocumentAnalyses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, file_name, analysis, degraded, created_at
			  FROM document_analyses
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

	var result []*models.DocumentAnalysis
	for rows.Next() {
		var item models.DocumentAnalysis
		var analysisJSON []byte
		if err := rows.Scan(&item.ID, &item.UserUID, &item.FileName,
			&analysisJSON, &item.Degraded, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(analysisJSON, &item.Analysis); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
