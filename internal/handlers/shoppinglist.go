package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/notifications"
	"example.com/meal-assistant/backend/internal/repository"
	"example.com/meal-assistant/backend/internal/sharelink"
)

type ShoppingListHandler struct {
	repo   *repository.ShoppingListRepository
	hub    *notifications.Hub
	share  sharelink.Client
	logger *slog.Logger
}

// NewShoppingListHandler создает обработчик списка покупок.
func NewShoppingListHandler(
	repo *repository.ShoppingListRepository,
	hub *notifications.Hub,
	share sharelink.Client,
	logger *slog.Logger,
) *ShoppingListHandler {
	return &ShoppingListHandler{
		repo:   repo,
		hub:    hub,
		share:  share,
		logger: logger,
	}
}

type shoppingListItemRequest struct {
	Name     string  `json:"item" validate:"required,max=200"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit" validate:"required,max=50"`
}

type addItemsRequest struct {
	Items []shoppingListItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type updateItemRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit" validate:"required,max=50"`
}

type removeItemsRequest struct {
	Names []string `json:"items" validate:"required,min=1,max=100,dive,required"`
}

// List возвращает список покупок пользователя.
func (h *ShoppingListHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	items, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Add добавляет позиции в список со слиянием совпадающих имен.
func (h *ShoppingListHandler) Add(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req addItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	items := make([]models.ShoppingListItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.ShoppingListItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
		})
	}

	if err := h.repo.Add(c.Request().Context(), userID, items); err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest("item names must not be empty")
		}
		h.logger.Error("failed to add shopping items", "error", err)
		return serverError()
	}

	return h.respondWithList(c, userID)
}

// Update меняет количество и единицу позиции по имени.
func (h *ShoppingListHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	name := c.Param("name")
	if strings.TrimSpace(name) == "" {
		return badRequest("item name is required")
	}

	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	item, err := h.repo.UpdateItem(c.Request().Context(), userID, name, req.Quantity, req.Unit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("item not found")
		}
		h.logger.Error("failed to update shopping item", "error", err)
		return serverError()
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventShoppingListUpdated})
	return c.JSON(http.StatusOK, item)
}

// Remove удаляет позиции по именам.
func (h *ShoppingListHandler) Remove(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req removeItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	removed, err := h.repo.Remove(c.Request().Context(), userID, req.Names)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest("item names must not be empty")
		}
		h.logger.Error("failed to remove shopping items", "error", err)
		return serverError()
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventShoppingListUpdated})
	return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}

// Replace заменяет весь список целиком.
func (h *ShoppingListHandler) Replace(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req addItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	items := make([]models.ShoppingListItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.ShoppingListItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
		})
	}

	if err := h.repo.Replace(c.Request().Context(), userID, items); err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest("item names must not be empty")
		}
		h.logger.Error("failed to replace shopping list", "error", err)
		return serverError()
	}

	return h.respondWithList(c, userID)
}

// Export отдает список покупок текстовым файлом.
func (h *ShoppingListHandler) Export(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	items, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		return serverError()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="shopping-list.txt"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(FormatShoppingList(items)))
}

type shareRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// Share публикует список во внешнем сервисе и возвращает ссылку.
func (h *ShoppingListHandler) Share(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}
	if req.Title == "" {
		req.Title = "Shopping list"
	}

	items, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		return serverError()
	}
	if len(items) == 0 {
		return badRequest("shopping list is empty")
	}

	url, err := h.share.Share(c.Request().Context(), req.Title, items)
	if err != nil {
		h.logger.Error("failed to share shopping list", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "share service unavailable")
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *ShoppingListHandler) respondWithList(c echo.Context, userID uuid.UUID) error {
	items, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		return serverError()
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventShoppingListUpdated})
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FormatShoppingList выводит список в текстовом виде, по строке на
// позицию: "<имя>: <количество> <единица>".
func FormatShoppingList(items []models.ShoppingListItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		line := item.Name + ": " + strconv.FormatFloat(item.Quantity, 'f', -1, 64)
		if item.Unit != "" {
			line += " " + item.Unit
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
