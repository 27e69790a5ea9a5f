package products

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/repository"
)

type stubClient struct {
	mu       sync.Mutex
	calls    []string
	products map[string][]Product
	fail     map[string]error
}

func (s *stubClient) Search(_ context.Context, query, _ string, _ int) ([]Product, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()

	if err, ok := s.fail[query]; ok {
		return nil, err
	}
	return s.products[query], nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]json.RawMessage)}
}

func (m *memoryCache) Get(_ context.Context, _ uuid.UUID, query, country string) (models.ProductCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results, ok := m.entries[query+"|"+country]
	if !ok {
		return models.ProductCacheEntry{}, repository.ErrNotFound
	}
	return models.ProductCacheEntry{Query: query, Country: country, Results: results}, nil
}

func (m *memoryCache) Save(_ context.Context, _ uuid.UUID, query, country string, results json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[query+"|"+country] = results
	return nil
}

func (m *memoryCache) DeleteAll(_ context.Context, _ uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = make(map[string]json.RawMessage)
	return n, nil
}

func newTestResolver(client SearchClient, cache cacheStore) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(client, cache, "US", logger)
}

// TestResolveOneCacheFirst проверяет, что кэш избавляет от повторного поиска.
func TestResolveOneCacheFirst(t *testing.T) {
	client := &stubClient{products: map[string][]Product{
		"milk": {{ASIN: "B01", Title: "Whole Milk", Price: "$3.50"}},
	}}
	resolver := newTestResolver(client, newMemoryCache())
	userID := uuid.New()

	first := resolver.ResolveOne(context.Background(), userID, "milk")
	if !first.Found || first.FromCache {
		t.Fatalf("expected fresh hit, got %+v", first)
	}
	if first.Product.Title != "Whole Milk" {
		t.Fatalf("unexpected product: %+v", first.Product)
	}

	second := resolver.ResolveOne(context.Background(), userID, "milk")
	if !second.Found || !second.FromCache {
		t.Fatalf("expected cached hit, got %+v", second)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(client.calls))
	}
}

// TestResolveOneCachesEmptyResult проверяет кэширование пустой выдачи.
func TestResolveOneCachesEmptyResult(t *testing.T) {
	client := &stubClient{products: map[string][]Product{}}
	resolver := newTestResolver(client, newMemoryCache())
	userID := uuid.New()

	res := resolver.ResolveOne(context.Background(), userID, "unobtainium")
	if res.Found || res.Err != nil {
		t.Fatalf("expected clean miss, got %+v", res)
	}

	res = resolver.ResolveOne(context.Background(), userID, "unobtainium")
	if res.Found || !res.FromCache {
		t.Fatalf("expected cached miss, got %+v", res)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(client.calls))
	}
}

// TestResolveAllIsolatesFailures проверяет изоляцию отказов по позициям.
func TestResolveAllIsolatesFailures(t *testing.T) {
	client := &stubClient{
		products: map[string][]Product{
			"milk": {{ASIN: "B01", Title: "Whole Milk", Price: "$3.50"}},
			"eggs": {{ASIN: "B02", Title: "Dozen Eggs", Price: "$4.25"}},
		},
		fail: map[string]error{"bread": errors.New("upstream timeout")},
	}
	resolver := newTestResolver(client, newMemoryCache())

	results := resolver.ResolveAll(context.Background(), uuid.New(), []string{"milk", "bread", "eggs"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Found || results[0].Query != "milk" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Err == nil || results[1].Found {
		t.Fatalf("expected failure for bread, got %+v", results[1])
	}
	if !results[2].Found || results[2].Query != "eggs" {
		t.Fatalf("unexpected third result: %+v", results[2])
	}
}

// TestRefetchClearsCache проверяет принудительное обновление кэша.
func TestRefetchClearsCache(t *testing.T) {
	client := &stubClient{products: map[string][]Product{
		"milk": {{ASIN: "B01", Title: "Whole Milk", Price: "$3.50"}},
	}}
	cache := newMemoryCache()
	resolver := newTestResolver(client, cache)
	userID := uuid.New()

	resolver.ResolveOne(context.Background(), userID, "milk")

	results, err := resolver.Refetch(context.Background(), userID, []string{"milk"})
	if err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if results[0].FromCache {
		t.Fatal("expected fresh result after refetch")
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", len(client.calls))
	}
}
