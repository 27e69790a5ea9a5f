package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/repository"
)

type LeftoversHandler struct {
	repo   *repository.LeftoverRepository
	logger *slog.Logger
}

// NewLeftoversHandler создает обработчик остатков еды.
func NewLeftoversHandler(repo *repository.LeftoverRepository, logger *slog.Logger) *LeftoversHandler {
	return &LeftoversHandler{repo: repo, logger: logger}
}

type leftoverRequest struct {
	MealName string  `json:"meal_name" validate:"required,max=200"`
	Servings float64 `json:"servings" validate:"required,gt=0"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

type servingsRequest struct {
	Servings float64 `json:"servings" validate:"required,gt=0"`
}

// List возвращает остатки пользователя.
func (h *LeftoversHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	leftovers, err := h.repo.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list leftovers", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"leftovers": leftovers})
}

// Create добавляет остаток.
func (h *LeftoversHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req leftoverRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	leftover, err := h.repo.Create(c.Request().Context(), userID, req.MealName, req.Servings, req.Notes)
	if err != nil {
		h.logger.Error("failed to create leftover", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusCreated, leftover)
}

// Update изменяет остаток.
func (h *LeftoversHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid leftover id")
	}

	var req leftoverRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	leftover, err := h.repo.Update(c.Request().Context(), userID, id, req.MealName, req.Servings, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("leftover not found")
		}
		h.logger.Error("failed to update leftover", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, leftover)
}

// AdjustServings меняет число порций остатка.
func (h *LeftoversHandler) AdjustServings(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid leftover id")
	}

	var req servingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	leftover, err := h.repo.AdjustServings(c.Request().Context(), userID, id, req.Servings)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("leftover not found")
		}
		h.logger.Error("failed to adjust servings", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, leftover)
}

// Delete удаляет остаток.
func (h *LeftoversHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid leftover id")
	}

	if err := h.repo.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("leftover not found")
		}
		h.logger.Error("failed to delete leftover", "error", err)
		return serverError()
	}

	return c.NoContent(http.StatusNoContent)
}
