// Package openai реализует клиент LLM-провайдера для chat completions.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexserve/lexserve-backend/internal/config"
)

// Client — клиент chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создаёт клиент по настройкам провайдера из конфига.
func NewClient(cfg config.OpenAI) *Client {
	return &Client{
		baseURL:    cfg.OpenAIBaseURL,
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Model возвращает имя модели по умолчанию.
func (c *Client) Model() string {
	return c.model
}

// ChatCompletion отправляет системный промпт и историю сообщений,
// возвращает текст первого ответа модели.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message, maxTokens int) (string, error) {
	const op = "openai.ChatCompletion"

	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%s: %s", op, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", op)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// StripFences убирает markdown-ограждения вокруг ответа модели,
// включая вариант с указанием языка (```json ... ```).
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
