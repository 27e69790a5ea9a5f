package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"example.com/meal-assistant/backend/internal/config"
)

// SearchClient ищет товары во внешнем каталоге.
type SearchClient interface {
	Search(ctx context.Context, query, country string, limit int) ([]Product, error)
}

// RapidAPIClient — клиент каталога Amazon через RapidAPI.
type RapidAPIClient struct {
	httpClient *http.Client
	apiKey     string
	apiHost    string
}

// NewRapidAPIClient создает клиент каталога из конфигурации.
func NewRapidAPIClient(cfg config.ProductsConfig) *RapidAPIClient {
	return &RapidAPIClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		apiHost:    cfg.APIHost,
	}
}

type searchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Products []searchProduct `json:"products"`
	} `json:"data"`
}

type searchProduct struct {
	ASIN          string  `json:"asin"`
	Title         string  `json:"product_title"`
	Price         string  `json:"product_price"`
	OriginalPrice *string `json:"product_original_price"`
	Currency      string  `json:"currency"`
	StarRating    *string `json:"product_star_rating"`
	NumRatings    *int    `json:"product_num_ratings"`
	URL           string  `json:"product_url"`
	Photo         string  `json:"product_photo"`
	IsPrime       bool    `json:"is_prime"`
}

// Search выполняет поиск и возвращает не больше limit товаров.
func (c *RapidAPIClient) Search(ctx context.Context, query, country string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 1
	}

	endpoint := url.URL{
		Scheme: "https",
		Host:   c.apiHost,
		Path:   "/search",
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("country", country)
	params.Set("page", "1")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("product search returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	raw := parsed.Data.Products
	if len(raw) > limit {
		raw = raw[:limit]
	}

	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		out = append(out, Product{
			ASIN:          p.ASIN,
			Title:         p.Title,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Currency:      p.Currency,
			Rating:        p.StarRating,
			ReviewsCount:  p.NumRatings,
			URL:           p.URL,
			PhotoURL:      p.Photo,
			IsPrime:       p.IsPrime,
		})
	}

	return out, nil
}
