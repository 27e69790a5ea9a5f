package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/notifications"
	"example.com/meal-assistant/backend/internal/products"
	"example.com/meal-assistant/backend/internal/purchase"
	"example.com/meal-assistant/backend/internal/repository"
)

type PurchaseHandler struct {
	store    *purchase.Store
	list     *repository.ShoppingListRepository
	resolver *products.Resolver
	hub      *notifications.Hub
	logger   *slog.Logger
}

// NewPurchaseHandler создает обработчик оформления покупок.
func NewPurchaseHandler(
	store *purchase.Store,
	list *repository.ShoppingListRepository,
	resolver *products.Resolver,
	hub *notifications.Hub,
	logger *slog.Logger,
) *PurchaseHandler {
	return &PurchaseHandler{
		store:    store,
		list:     list,
		resolver: resolver,
		hub:      hub,
		logger:   logger,
	}
}

type startPurchaseRequest struct {
	TriggerMessageID string   `json:"trigger_message_id" validate:"omitempty,max=100"`
	Items            []string `json:"items" validate:"omitempty,max=100,dive,required"`
}

type quantityRequest struct {
	Name     string  `json:"item" validate:"required,max=200"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

type paymentRequest struct {
	CardNumber     string `json:"card_number" validate:"required"`
	ExpiryDate     string `json:"expiry_date" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardHolder     string `json:"card_holder" validate:"required,max=100"`
	BillingAddress string `json:"billing_address" validate:"required,max=300"`
}

type purchaseStateResponse struct {
	Stage     purchase.Stage  `json:"stage"`
	PanelOpen bool            `json:"panel_open"`
	Items     []purchase.Item `json:"items"`
	Total     float64         `json:"total"`
	Unpriced  []string        `json:"unpriced"`
}

func stateResponse(snap purchase.Snapshot) purchaseStateResponse {
	return purchaseStateResponse{
		Stage:     snap.Stage,
		PanelOpen: snap.PanelOpen,
		Items:     snap.Items,
		Total:     snap.Total,
		Unpriced:  snap.Unpriced,
	}
}

// Start снимает рабочий набор со списка покупок и начинает оформление.
// Позиции получают товары из кэша и внешнего поиска; отказ поиска по
// позиции оставляет ее без цены.
func (h *PurchaseHandler) Start(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req startPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	snap, err := h.startFlow(c.Request().Context(), userID, req.TriggerMessageID, req.Items, false)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrDuplicateTrigger):
			return conflict("purchase already started by this message")
		case errors.Is(err, purchase.ErrNoItems):
			return badRequest("no matching items on the shopping list")
		}
		h.logger.Error("failed to start purchase", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusCreated, stateResponse(snap))
}

// startFlow снимает рабочий набор со списка покупок, подбирает товары
// и начинает оформление, заменяя прежний набор. Пустой requestedNames
// означает весь список; иначе берется подмножество без учета регистра.
// cacheOnly ограничивает подбор товаров кэшем. Используется эндпоинтом
// покупки и чатом.
func (h *PurchaseHandler) startFlow(ctx context.Context, userID uuid.UUID, triggerMessageID string, requestedNames []string, cacheOnly bool) (purchase.Snapshot, error) {
	listItems, err := h.list.List(ctx, userID)
	if err != nil {
		return purchase.Snapshot{}, err
	}

	if len(requestedNames) > 0 {
		wanted := make(map[string]struct{}, len(requestedNames))
		for _, name := range requestedNames {
			wanted[repository.NormalizeItemName(name)] = struct{}{}
		}

		filtered := listItems[:0]
		for _, item := range listItems {
			if _, ok := wanted[repository.NormalizeItemName(item.Name)]; ok {
				filtered = append(filtered, item)
			}
		}
		listItems = filtered
	}
	if len(listItems) == 0 {
		return purchase.Snapshot{}, purchase.ErrNoItems
	}

	queries := make([]string, 0, len(listItems))
	for _, item := range listItems {
		queries = append(queries, item.Name)
	}

	var resolutions []products.Resolution
	if cacheOnly {
		resolutions = h.resolver.ResolveCachedAll(ctx, userID, queries)
	} else {
		resolutions = h.resolver.ResolveAll(ctx, userID, queries)
	}

	items := make([]purchase.Item, 0, len(listItems))
	for i, listItem := range listItems {
		item := purchase.Item{
			Name:     listItem.Name,
			Quantity: listItem.Quantity,
			Unit:     listItem.Unit,
		}
		if res := resolutions[i]; res.Found {
			item.ProductTitle = res.Product.Title
			item.ProductPrice = res.Product.Price
			item.ProductURL = res.Product.URL
			item.PhotoURL = res.Product.PhotoURL
		}
		items = append(items, item)
	}

	snap, err := h.store.Start(userID, triggerMessageID, items)
	if err != nil {
		return purchase.Snapshot{}, err
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventPurchaseStarted})
	return snap, nil
}

// State возвращает текущее состояние оформления.
func (h *PurchaseHandler) State(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	snap, err := h.store.Get(userID)
	if err != nil {
		if errors.Is(err, purchase.ErrNotActive) {
			return c.JSON(http.StatusOK, purchaseStateResponse{
				Stage:    purchase.StageIdle,
				Items:    []purchase.Item{},
				Unpriced: []string{},
			})
		}
		h.logger.Error("failed to load purchase state", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, stateResponse(snap))
}

// UpdateQuantity меняет количество позиции рабочего набора. Нулевое
// количество убирает позицию из набора, не трогая список покупок.
func (h *PurchaseHandler) UpdateQuantity(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		return f.UpdateQuantity(req.Name, req.Quantity)
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventPurchaseUpdated})
	return c.JSON(http.StatusOK, stateResponse(snap))
}

// TogglePanel открывает или закрывает панель обзора.
func (h *PurchaseHandler) TogglePanel(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		return f.TogglePanel()
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	return c.JSON(http.StatusOK, stateResponse(snap))
}

// OpenPayment переводит оформление на этап оплаты.
func (h *PurchaseHandler) OpenPayment(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		return f.OpenPayment()
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventPurchaseUpdated})
	return c.JSON(http.StatusOK, stateResponse(snap))
}

// ClosePayment возвращает оформление к выбору позиций.
func (h *PurchaseHandler) ClosePayment(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		return f.ClosePayment()
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	return c.JSON(http.StatusOK, stateResponse(snap))
}

// Complete проверяет платежные данные и завершает покупку.
func (h *PurchaseHandler) Complete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}
	if fieldErrors := validatePayment(req); len(fieldErrors) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{"fields": fieldErrors})
	}

	var total float64
	var purchased []string
	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		total, _ = f.Total()
		for _, item := range f.Items() {
			purchased = append(purchased, item.Name)
		}
		return f.Complete()
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	// купленные позиции уходят из списка покупок
	if len(purchased) > 0 {
		if _, err := h.list.Remove(c.Request().Context(), userID, purchased); err != nil {
			h.logger.Error("failed to remove purchased items", "error", err)
		} else {
			h.hub.Publish(userID, notifications.Event{Type: notifications.EventShoppingListUpdated})
		}
	}

	h.hub.Publish(userID, notifications.Event{
		Type:    notifications.EventPurchaseCompleted,
		Payload: map[string]any{"total": total, "items": purchased},
	})
	return c.JSON(http.StatusOK, stateResponse(snap))
}

// Cancel прерывает оформление.
func (h *PurchaseHandler) Cancel(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	snap, err := h.store.Update(userID, func(f *purchase.Flow) error {
		return f.Cancel()
	})
	if err != nil {
		return h.translateFlowError(err)
	}

	h.hub.Publish(userID, notifications.Event{Type: notifications.EventPurchaseCancelled})
	return c.JSON(http.StatusOK, stateResponse(snap))
}

func (h *PurchaseHandler) translateFlowError(err error) error {
	switch {
	case errors.Is(err, purchase.ErrNotActive):
		return notFound("no active purchase")
	case errors.Is(err, purchase.ErrWrongStage):
		return conflict("operation not allowed in current stage")
	case errors.Is(err, purchase.ErrItemNotFound):
		return notFound("item not found in purchase")
	case errors.Is(err, purchase.ErrNoItems):
		return badRequest("purchase has no items")
	}
	h.logger.Error("purchase operation failed", "error", err)
	return serverError()
}

var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// validatePayment возвращает ошибки по каждому некорректному полю.
func validatePayment(req paymentRequest) map[string]string {
	fieldErrors := make(map[string]string)

	digits := strings.ReplaceAll(strings.ReplaceAll(req.CardNumber, " ", ""), "-", "")
	if !cardNumberRe.MatchString(digits) {
		fieldErrors["card_number"] = "card number must contain 13 to 19 digits"
	}

	if !expiryRe.MatchString(req.ExpiryDate) {
		fieldErrors["expiry_date"] = "expiry date must be in MM/YY format"
	} else if expired(req.ExpiryDate) {
		fieldErrors["expiry_date"] = "card is expired"
	}

	if !cvvRe.MatchString(req.CVV) {
		fieldErrors["cvv"] = "cvv must contain 3 or 4 digits"
	}

	if strings.TrimSpace(req.CardHolder) == "" {
		fieldErrors["card_holder"] = "card holder name is required"
	}

	if strings.TrimSpace(req.BillingAddress) == "" {
		fieldErrors["billing_address"] = "billing address is required"
	}

	return fieldErrors
}

func expired(expiry string) bool {
	parsed, err := time.Parse("01/06", expiry)
	if err != nil {
		return true
	}
	endOfMonth := parsed.AddDate(0, 1, 0)
	return !time.Now().Before(endOfMonth)
}
