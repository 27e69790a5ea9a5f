package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/products"
	"example.com/meal-assistant/backend/internal/repository"
)

type ProductsHandler struct {
	resolver *products.Resolver
	cache    *repository.ProductCacheRepository
	list     *repository.ShoppingListRepository
	logger   *slog.Logger
}

// NewProductsHandler создает обработчик товарного поиска.
func NewProductsHandler(
	resolver *products.Resolver,
	cache *repository.ProductCacheRepository,
	list *repository.ShoppingListRepository,
	logger *slog.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		resolver: resolver,
		cache:    cache,
		list:     list,
		logger:   logger,
	}
}

type lookupRequest struct {
	Queries []string `json:"queries" validate:"omitempty,max=100,dive,required"`
	Refetch bool     `json:"refetch"`
}

type lookupResult struct {
	Query     string            `json:"query"`
	Found     bool              `json:"found"`
	FromCache bool              `json:"from_cache"`
	Product   *products.Product `json:"product,omitempty"`
	Error     *string           `json:"error,omitempty"`
}

// Lookup подбирает товары для переданных запросов. Без явных запросов
// используются позиции списка покупок. Refetch=true сбрасывает кэш.
func (h *ProductsHandler) Lookup(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	queries := req.Queries
	if len(queries) == 0 {
		items, err := h.list.List(c.Request().Context(), userID)
		if err != nil {
			h.logger.Error("failed to list shopping items", "error", err)
			return serverError()
		}
		for _, item := range items {
			queries = append(queries, item.Name)
		}
	}
	if len(queries) == 0 {
		return c.JSON(http.StatusOK, map[string]any{"results": []lookupResult{}})
	}

	var resolutions []products.Resolution
	if req.Refetch {
		var err error
		resolutions, err = h.resolver.Refetch(c.Request().Context(), userID, queries)
		if err != nil {
			h.logger.Error("failed to refetch products", "error", err)
			return serverError()
		}
	} else {
		resolutions = h.resolver.ResolveAll(c.Request().Context(), userID, queries)
	}

	results := make([]lookupResult, 0, len(resolutions))
	for _, res := range resolutions {
		r := lookupResult{
			Query:     res.Query,
			Found:     res.Found,
			FromCache: res.FromCache,
			Product:   res.Product,
		}
		if res.Err != nil {
			msg := "product lookup failed"
			r.Error = &msg
		}
		results = append(results, r)
	}

	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

// CacheList возвращает содержимое кэша поиска пользователя.
func (h *ProductsHandler) CacheList(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	entries, err := h.cache.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list product cache", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

// CacheDeleteByQuery удаляет записи кэша по поисковому запросу.
func (h *ProductsHandler) CacheDeleteByQuery(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	query := c.Param("query")
	if repository.NormalizeQuery(query) == "" {
		return badRequest("query is required")
	}

	removed, err := h.cache.DeleteByQuery(c.Request().Context(), userID, query)
	if err != nil {
		h.logger.Error("failed to delete cache entries", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}

// CacheDeleteAll очищает весь кэш поиска пользователя.
func (h *ProductsHandler) CacheDeleteAll(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	removed, err := h.cache.DeleteAll(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to clear product cache", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}
