package products

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/repository"
)

// cacheStore — нужная резолверу часть репозитория кэша поиска.
type cacheStore interface {
	Get(ctx context.Context, userID uuid.UUID, query, country string) (models.ProductCacheEntry, error)
	Save(ctx context.Context, userID uuid.UUID, query, country string, results json.RawMessage) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Resolver подбирает товары для позиций списка покупок: сперва кэш,
// затем внешний поиск. Каждая позиция обрабатывается независимо, отказ
// по одной не роняет остальные.
type Resolver struct {
	client  SearchClient
	cache   cacheStore
	country string
	logger  *slog.Logger
}

// NewResolver создает резолвер товаров.
func NewResolver(client SearchClient, cache cacheStore, country string, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  client,
		cache:   cache,
		country: country,
		logger:  logger,
	}
}

// ResolveOne ищет товар для одной позиции. Сначала проверяется кэш;
// промах уходит во внешний поиск, результат которого сохраняется в кэш,
// включая пустой.
func (r *Resolver) ResolveOne(ctx context.Context, userID uuid.UUID, query string) Resolution {
	res := Resolution{Query: query}

	entry, err := r.cache.Get(ctx, userID, query, r.country)
	if err == nil {
		var cached []Product
		if err := json.Unmarshal(entry.Results, &cached); err == nil {
			res.FromCache = true
			if len(cached) > 0 {
				res.Found = true
				res.Product = &cached[0]
			}
			return res
		}
		r.logger.Warn("discarding corrupt cache entry", "query", query, "error", err)
	} else if !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("product cache lookup failed", "query", query, "error", err)
	}

	found, err := r.client.Search(ctx, query, r.country, 1)
	if err != nil {
		res.Err = err
		return res
	}

	if results, err := json.Marshal(found); err == nil {
		if err := r.cache.Save(ctx, userID, query, r.country, results); err != nil {
			r.logger.Warn("failed to cache search results", "query", query, "error", err)
		}
	}

	if len(found) > 0 {
		res.Found = true
		res.Product = &found[0]
	}
	return res
}

// ResolveCached ищет товар только в кэше, без обращения к внешнему
// поиску. Промах кэша дает found=false.
func (r *Resolver) ResolveCached(ctx context.Context, userID uuid.UUID, query string) Resolution {
	res := Resolution{Query: query}

	entry, err := r.cache.Get(ctx, userID, query, r.country)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("product cache lookup failed", "query", query, "error", err)
		}
		return res
	}

	var cached []Product
	if err := json.Unmarshal(entry.Results, &cached); err != nil {
		r.logger.Warn("discarding corrupt cache entry", "query", query, "error", err)
		return res
	}

	res.FromCache = true
	if len(cached) > 0 {
		res.Found = true
		res.Product = &cached[0]
	}
	return res
}

// ResolveCachedAll ищет товары для всех позиций только в кэше.
func (r *Resolver) ResolveCachedAll(ctx context.Context, userID uuid.UUID, queries []string) []Resolution {
	results := make([]Resolution, len(queries))
	for i, query := range queries {
		results[i] = r.ResolveCached(ctx, userID, query)
	}
	return results
}

// ResolveAll ищет товары для всех позиций параллельно. Порядок
// результатов совпадает с порядком запросов; ошибка одной позиции
// остается в ее Resolution и не влияет на соседей.
func (r *Resolver) ResolveAll(ctx context.Context, userID uuid.UUID, queries []string) []Resolution {
	results := make([]Resolution, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			results[i] = r.ResolveOne(ctx, userID, query)
			if results[i].Err != nil {
				r.logger.Error("product lookup failed", "query", query, "error", results[i].Err)
			}
		}(i, query)
	}
	wg.Wait()

	return results
}

// Refetch очищает весь кэш пользователя и запрашивает товары заново.
func (r *Resolver) Refetch(ctx context.Context, userID uuid.UUID, queries []string) ([]Resolution, error) {
	if _, err := r.cache.DeleteAll(ctx, userID); err != nil {
		return nil, err
	}
	return r.ResolveAll(ctx, userID, queries), nil
}
