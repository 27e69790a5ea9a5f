package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"example.com/meal-assistant/backend/internal/config"
)

// Message — одна реплика диалога.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest — запрос к сервису планирования питания.
type ChatRequest struct {
	MessageID string    `json:"message_id"`
	Message   string    `json:"message"`
	History   []Message `json:"history,omitempty"`
}

// Action — выполненный ассистентом вызов функции.
type Action struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ChatResponse — ответ сервиса планирования. Steps и Actions — служебные
// метаданные: шаги рассуждения и выполненные вызовы функций.
type ChatResponse struct {
	MessageID           string   `json:"message_id"`
	Reply               string   `json:"reply"`
	Steps               []string `json:"steps,omitempty"`
	Actions             []Action `json:"actions,omitempty"`
	ShoppingListChanged bool     `json:"shopping_list_changed"`
}

// Client отправляет сообщения пользователя ассистенту.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// HTTPClient — клиент удаленного сервиса планирования.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPClient создает клиент ассистента из конфигурации.
func NewHTTPClient(cfg config.AssistantConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// Chat пересылает сообщение сервису планирования и возвращает его ответ.
func (c *HTTPClient) Chat(ctx context.Context, chatReq ChatRequest) (ChatResponse, error) {
	var out ChatResponse

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return out, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return out, fmt.Errorf("assistant returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode assistant response: %w", err)
	}

	return out, nil
}
