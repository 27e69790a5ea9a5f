package sharelink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"example.com/meal-assistant/backend/internal/config"
	"example.com/meal-assistant/backend/internal/models"
)

// Client публикует список покупок во внешнем сервисе обмена и
// возвращает короткую ссылку.
type Client interface {
	Share(ctx context.Context, title string, items []models.ShoppingListItem) (string, error)
}

// HTTPClient — клиент внешнего сервиса обмена списками.
type HTTPClient struct {
	httpClient *http.Client
	serviceURL string
}

// NewHTTPClient создает клиент сервиса обмена из конфигурации.
func NewHTTPClient(cfg config.ShareConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		serviceURL: cfg.ServiceURL,
	}
}

type shareRequest struct {
	Title string                    `json:"title"`
	Items []models.ShoppingListItem `json:"items"`
}

type shareResponse struct {
	URL string `json:"url"`
}

// Share отправляет список сервису обмена и возвращает ссылку на него.
func (c *HTTPClient) Share(ctx context.Context, title string, items []models.ShoppingListItem) (string, error) {
	payload, err := json.Marshal(shareRequest{Title: title, Items: items})
	if err != nil {
		return "", fmt.Errorf("failed to marshal share request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create share request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("share request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("share service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed shareResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode share response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("share service returned empty url")
	}

	return parsed.URL, nil
}
