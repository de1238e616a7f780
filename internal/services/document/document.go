// Package document содержит логику анализа и улучшения юридических документов.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexserve/lexserve-backend/internal/lib/docparse"
	"github.com/lexserve/lexserve-backend/internal/lib/reference"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/obs"
	"github.com/lexserve/lexserve-backend/internal/openai"
)

// Ошибки входных данных. Обработчик переводит их в 400.
var (
	// ErrTextTooShort — из файла извлечено меньше minTextLength символов.
	ErrTextTooShort = errors.New("document text is too short to analyse")
	// ErrUnknownImprovement — запрошен неизвестный вид улучшения.
	ErrUnknownImprovement = errors.New("unknown improvement type")
)

const minTextLength = 10

const analysisSystemPrompt = `You are a legal document analyst. Analyse the document and respond with a single JSON object, no prose around it, with fields: score (integer 0-100), document_type (string), summary (string), strengths (array of strings), weaknesses (array of strings), recommendations (array of strings), risk_level (one of: low, medium, high).`

const chatModelMaxTokens = 2000

// Шаблоны системных промптов по видам улучшения.
var improvementPrompts = map[string]string{
	"clarity":         "You are a legal editor. Rewrite the document to improve clarity and readability while preserving its legal meaning. Return only the rewritten document.",
	"formal_tone":     "You are a legal editor. Rewrite the document in a formal legal register while preserving its meaning. Return only the rewritten document.",
	"simplify":        "You are a legal editor. Simplify the document into plain language a non-lawyer can understand while preserving its legal effect. Return only the rewritten document.",
	"risk_mitigation": "You are a legal editor. Rewrite the document to reduce legal risk for the submitting party, strengthening protective clauses where appropriate. Return only the rewritten document.",
}

// Model описывает используемую часть LLM-клиента.
type Model interface {
	ChatCompletion(ctx context.Context, model string, messages []openai.Message, maxTokens int) (string, error)
}

// Repository определяет методы хранилища для анализов документов.
type Repository interface {
	CreateDocumentAnalysis(ctx context.Context, a models.DocumentAnalysis) error
	ReadDocumentAnalysis(ctx context.Context, id, userUID string) (*models.DocumentAnalysis, error)
	ListDocumentAnalyses(ctx context.Context, userUID string, limit, offset int) ([]*models.DocumentAnalysis, error)
}

// Service реализует анализ и улучшение документов.
type Service struct {
	model Model
	repo  Repository
	log   *slog.Logger
}

// New создает новый Service.
func New(model Model, repo Repository, log *slog.Logger) *Service {
	return &Service{model: model, repo: repo, log: log}
}

// Analyze извлекает текст из файла, отправляет его модели и сохраняет
// результат. Нечитаемый ответ модели не считается ошибкой: сохраняется
// резервный результат с флагом Degraded. Слишком короткий текст —
// ошибка входных данных, ничего не сохраняется.
func (s *Service) Analyze(ctx context.Context, userUID, fileName string, data []byte) (*models.DocumentAnalysis, error) {
	const op = "services.document.Analyze"

	text, err := docparse.ExtractText(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return nil, ErrTextTooShort
	}

	analysis, degraded := s.callAnalysisModel(ctx, text)
	obs.ModelCallsTotal.WithLabelValues("analysis", fmt.Sprintf("%t", degraded)).Inc()

	result := models.DocumentAnalysis{
		ID:       reference.NewID(),
		UserUID:  userUID,
		FileName: fileName,
		Text:     text,
		Analysis: analysis,
		Degraded: degraded,
	}
	if err := s.repo.CreateDocumentAnalysis(ctx, result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// callAnalysisModel запрашивает анализ у модели. Любой сбой вызова
// или разбора JSON превращается в резервный результат.
func (s *Service) callAnalysisModel(ctx context.Context, text string) (models.AnalysisResult, bool) {
	raw, err := s.model.ChatCompletion(ctx, "", []openai.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: text},
	}, chatModelMaxTokens)
	if err != nil {
		s.log.Warn("model call failed, using fallback analysis", sl.Err(err))
		return models.FallbackAnalysis(), true
	}

	var analysis models.AnalysisResult
	if err := json.Unmarshal([]byte(openai.StripFences(raw)), &analysis); err != nil {
		s.log.Warn("unparseable model response, using fallback analysis", sl.Err(err))
		return models.FallbackAnalysis(), true
	}
	return analysis, false
}

// Improve переписывает текст документа согласно запрошенному виду
// улучшения и возвращает результат. Ничего не сохраняется.
func (s *Service) Improve(ctx context.Context, text, improvementType string) (string, error) {
	const op = "services.document.Improve"

	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return "", ErrTextTooShort
	}
	prompt, ok := improvementPrompts[improvementType]
	if !ok {
		return "", ErrUnknownImprovement
	}

	improved, err := s.model.ChatCompletion(ctx, "", []openai.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: text},
	}, chatModelMaxTokens)
	if err != nil {
		obs.ModelCallsTotal.WithLabelValues("improvement", "true").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	obs.ModelCallsTotal.WithLabelValues("improvement", "false").Inc()
	return openai.StripFences(improved), nil
}

// Read возвращает сохранённый анализ по id и владельцу.
func (s *Service) Read(ctx context.Context, id, userUID string) (*models.DocumentAnalysis, error) {
	return s.repo.ReadDocumentAnalysis(ctx, id, userUID)
}

// List возвращает анализы пользователя без текста документов.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.DocumentAnalysis, error) {
	return s.repo.ListDocumentAnalyses(ctx, userUID, limit, offset)
}
