// Package stream реализует SSE-канал вопросов к юридическому ассистенту.
//
// Клиент передаёт query и необязательный chat_id параметрами запроса,
// сервер держит соединение открытым и отправляет событие queryResult,
// когда ответ готов. Токен необязателен: без него вопрос обрабатывается
// от имени анонимного пользователя и история не привязывается к аккаунту.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики ассистента.
type Service interface {
	Ask(ctx context.Context, userUID, chatID, question string) (string, string, error)
}

// Handler обрабатывает SSE-запросы к ассистенту.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// queryResult — полезная нагрузка события queryResult.
type queryResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
}

// ServeHTTP godoc
// @Summary SSE-канал ассистента
// @Description Открывает text/event-stream и отправляет событие queryResult с ответом ассистента.
// @Tags Chat
// @Produce  text/event-stream
// @Param query query string true "Вопрос"
// @Param chat_id query string false "Идентификатор диалога"
// @Success 200 {string} string "Поток событий"
// @Failure 400 {object} response.ErrorResponse "Пустой вопрос"
// @Router /chat/stream [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.stream"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	question := r.URL.Query().Get("query")
	if question == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	chatID := r.URL.Query().Get("chat_id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Токен необязателен: без принципала вопрос идёт от анонима.
	principal, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		principal = middlewarectx.Anonymous()
	}

	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	answer, chatID, err := h.service.Ask(r.Context(), principal.UserUID, chatID, question)
	result := queryResult{Success: true, Response: answer, ChatID: chatID}
	if err != nil {
		log.Error("failed to ask assistant", sl.Err(err))
		result = queryResult{Success: false, Message: "assistant is unavailable"}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Error("failed to marshal event", sl.Err(err))
		return
	}
	_, _ = w.Write([]byte("event: queryResult\ndata: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()
}
