package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/repository"
)

type InventoryHandler struct {
	repo   *repository.InventoryRepository
	logger *slog.Logger
}

// NewInventoryHandler создает обработчик домашних запасов.
func NewInventoryHandler(repo *repository.InventoryRepository, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{repo: repo, logger: logger}
}

type inventoryItemRequest struct {
	ItemName   string     `json:"item_name" validate:"required,max=200"`
	Category   string     `json:"category" validate:"required,max=100"`
	Quantity   float64    `json:"quantity" validate:"required,gt=0"`
	Unit       string     `json:"unit" validate:"required,max=50"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Location   *string    `json:"location" validate:"omitempty,max=100"`
	Notes      *string    `json:"notes" validate:"omitempty,max=500"`
}

// List возвращает запасы пользователя.
func (h *InventoryHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	items, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list inventory", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Upsert создает или обновляет запись запаса по имени позиции.
func (h *InventoryHandler) Upsert(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req inventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	item, err := h.repo.Upsert(c.Request().Context(), userID, models.InventoryItem{
		ItemName:   req.ItemName,
		Category:   req.Category,
		Quantity:   req.Quantity,
		Unit:       req.Unit,
		ExpiryDate: req.ExpiryDate,
		Location:   req.Location,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest("item name must not be empty")
		}
		h.logger.Error("failed to upsert inventory item", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, item)
}

// Get возвращает запись запаса по имени.
func (h *InventoryHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	item, err := h.repo.Get(c.Request().Context(), userID, c.Param("name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("inventory item not found")
		}
		h.logger.Error("failed to load inventory item", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, item)
}

// Delete удаляет запись запаса по имени.
func (h *InventoryHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	if err := h.repo.Delete(c.Request().Context(), userID, c.Param("name")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("inventory item not found")
		}
		h.logger.Error("failed to delete inventory item", "error", err)
		return serverError()
	}

	return c.NoContent(http.StatusNoContent)
}
