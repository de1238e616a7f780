package openai

// Message — одно сообщение диалога в формате chat completions.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest — тело запроса chat completions.
type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// chatResponse — ответ провайдера.
type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
