// Package chat содержит логику юридического ассистента (вопрос-ответ).
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexserve/lexserve-backend/internal/lib/reference"
	"github.com/lexserve/lexserve-backend/internal/models"
	"github.com/lexserve/lexserve-backend/internal/obs"
	"github.com/lexserve/lexserve-backend/internal/openai"
)

const legalSystemPrompt = `You are a legal assistant for a legal services platform. Answer questions about law, legal procedures, business registration and compliance. Be concise and practical. Always remind the user that your answers are general information, not legal advice, and recommend consulting a qualified lawyer for their specific situation.`

// Глубина истории, передаваемой модели вместе с вопросом.
const historyLimit = 20

const answerMaxTokens = 1500

// Model описывает используемую часть LLM-клиента.
type Model interface {
	ChatCompletion(ctx context.Context, model string, messages []openai.Message, maxTokens int) (string, error)
}

// Repository определяет методы хранилища для истории чатов.
type Repository interface {
	AppendChatMessage(ctx context.Context, m models.ChatMessage) (int64, error)
	ListChatMessages(ctx context.Context, chatID string, limit int) ([]*models.ChatMessage, error)
}

// Service реализует диалог с юридическим ассистентом.
type Service struct {
	model Model
	repo  Repository
	log   *slog.Logger
}

// New создает новый Service.
func New(model Model, repo Repository, log *slog.Logger) *Service {
	return &Service{model: model, repo: repo, log: log}
}

// Ask отправляет вопрос модели вместе с хвостом истории чата и
// сохраняет обе реплики. Пустой chatID начинает новый диалог.
// Возвращает ответ и идентификатор чата.
func (s *Service) Ask(ctx context.Context, userUID, chatID, question string) (string, string, error) {
	const op = "services.chat.Ask"

	messages := []openai.Message{{Role: "system", Content: legalSystemPrompt}}
	if chatID == "" {
		chatID = reference.NewID()
	} else {
		history, err := s.repo.ListChatMessages(ctx, chatID, historyLimit)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		for _, m := range history {
			messages = append(messages, openai.Message{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, openai.Message{Role: models.ChatRoleUser, Content: question})

	answer, err := s.model.ChatCompletion(ctx, "", messages, answerMaxTokens)
	if err != nil {
		obs.ModelCallsTotal.WithLabelValues("chat", "true").Inc()
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	obs.ModelCallsTotal.WithLabelValues("chat", "false").Inc()

	if _, err := s.repo.AppendChatMessage(ctx, models.ChatMessage{
		ChatID:  chatID,
		UserUID: userUID,
		Role:    models.ChatRoleUser,
		Content: question,
	}); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.AppendChatMessage(ctx, models.ChatMessage{
		ChatID:  chatID,
		UserUID: userUID,
		Role:    models.ChatRoleAssistant,
		Content: answer,
	}); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	return answer, chatID, nil
}

// History возвращает последние сообщения чата в порядке добавления.
func (s *Service) History(ctx context.Context, chatID string, limit int) ([]*models.ChatMessage, error) {
	return s.repo.ListChatMessages(ctx, chatID, limit)
}
