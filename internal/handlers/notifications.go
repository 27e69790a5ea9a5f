package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/meal-assistant/backend/internal/auth"
	"example.com/meal-assistant/backend/internal/notifications"
)

type NotificationsHandler struct {
	hub    *notifications.Hub
	logger *slog.Logger
}

// NewNotificationsHandler создает обработчик SSE-подписки.
func NewNotificationsHandler(hub *notifications.Hub, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{hub: hub, logger: logger}
}

// Stream держит SSE-соединение и транслирует события пользователя.
func (h *NotificationsHandler) Stream(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized("not authenticated")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, ch)

	if _, err := fmt.Fprintf(w, "event: connected\ndata: {\"user_id\":%q}\n\n", userID.String()); err != nil {
		return nil
	}
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}

			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
