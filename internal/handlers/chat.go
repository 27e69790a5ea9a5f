package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/assistant"
	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/models"
	"example.com/meal-assistant/backend/internal/notifications"
	"example.com/meal-assistant/backend/internal/purchase"
	"example.com/meal-assistant/backend/internal/repository"
)

type ChatHandler struct {
	client       assistant.Client
	chatLog      *repository.ChatLogRepository
	detector     purchase.IntentDetector
	purchases    *PurchaseHandler
	hub          *notifications.Hub
	historyLimit int
	logger       *slog.Logger
}

// NewChatHandler создает обработчик чата с ассистентом.
func NewChatHandler(
	client assistant.Client,
	chatLog *repository.ChatLogRepository,
	detector purchase.IntentDetector,
	purchases *PurchaseHandler,
	hub *notifications.Hub,
	historyLimit int,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		client:       client,
		chatLog:      chatLog,
		detector:     detector,
		purchases:    purchases,
		hub:          hub,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

type chatMessageRequest struct {
	MessageID string              `json:"message_id" validate:"required,uuid4"`
	Message   string              `json:"message" validate:"required,max=4000"`
	History   []assistant.Message `json:"history" validate:"omitempty,max=100,dive"`
}

type chatMessageResponse struct {
	MessageID           string             `json:"message_id"`
	Reply               string             `json:"reply"`
	Steps               []string           `json:"steps,omitempty"`
	Actions             []assistant.Action `json:"actions,omitempty"`
	ShoppingListChanged bool               `json:"shopping_list_changed"`
	PurchaseStarted     bool               `json:"purchase_started"`
}

// Send пересылает сообщение ассистенту. Ответ журналируется; если
// реплика ассистента выражает намерение покупки, оформление начинается
// автоматически тем же сообщением в роли триггера.
func (h *ChatHandler) Send(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	var req chatMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		return badRequest("message_id must be a uuid")
	}

	history := req.History
	if len(history) > h.historyLimit {
		history = history[len(history)-h.historyLimit:]
	}

	chatReq := assistant.ChatRequest{
		MessageID: req.MessageID,
		Message:   req.Message,
		History:   history,
	}

	resp, err := h.client.Chat(c.Request().Context(), chatReq)
	h.logRequest(c, userID, messageID, chatReq, resp, err)
	if err != nil {
		h.logger.Error("assistant request failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "assistant unavailable")
	}

	if resp.ShoppingListChanged {
		h.hub.Publish(userID, notifications.Event{Type: notifications.EventShoppingListUpdated})
	}

	out := chatMessageResponse{
		MessageID:           resp.MessageID,
		Reply:               resp.Reply,
		Steps:               resp.Steps,
		Actions:             resp.Actions,
		ShoppingListChanged: resp.ShoppingListChanged,
	}

	if started := h.maybeStartPurchase(c, userID, req.MessageID, req.Message, resp.Reply); started {
		out.PurchaseStarted = true
	}

	return c.JSON(http.StatusOK, out)
}

// maybeStartPurchase запускает оформление, если реплика ассистента
// выражает намерение покупки. Товары берутся только из кэша, чтобы не
// задерживать ответ чата внешним поиском.
func (h *ChatHandler) maybeStartPurchase(c echo.Context, userID uuid.UUID, messageID, userText, assistantText string) bool {
	items, err := h.purchases.list.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		return false
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}

	requested, ok := h.detector.Detect(assistantText, userText, names)
	if !ok {
		return false
	}

	_, err = h.purchases.startFlow(c.Request().Context(), userID, messageID, requested, true)
	switch {
	case err == nil:
		return true
	case errors.Is(err, purchase.ErrDuplicateTrigger):
		// повторное срабатывание не начинает вторую покупку
	case errors.Is(err, purchase.ErrNoItems):
		h.logger.Info("purchase intent with empty shopping list", "user_id", userID)
	default:
		h.logger.Error("failed to start purchase from chat", "error", err)
	}

	return false
}

// History возвращает последние записи журнала запросов пользователя.
func (h *ChatHandler) History(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	entries, err := h.chatLog.Recent(c.Request().Context(), userID, h.historyLimit)
	if err != nil {
		h.logger.Error("failed to load chat history", "error", err)
		return serverError()
	}

	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (h *ChatHandler) logRequest(c echo.Context, userID, messageID uuid.UUID, req assistant.ChatRequest, resp assistant.ChatResponse, chatErr error) {
	entry := models.ChatRequestLog{
		UserID:    userID,
		MessageID: messageID,
		Success:   chatErr == nil,
	}

	if payload, err := json.Marshal(req); err == nil {
		entry.RequestPayload = payload
	}
	if chatErr != nil {
		msg := chatErr.Error()
		entry.ErrorMessage = &msg
	} else if payload, err := json.Marshal(resp); err == nil {
		entry.ResponsePayload = payload
	}

	if err := h.chatLog.Log(c.Request().Context(), entry); err != nil {
		h.logger.Error("failed to log chat request", "error", err)
	}
}
