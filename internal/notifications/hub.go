package notifications

import (
	"sync"

	"github.com/google/uuid"
)

// Типы событий, доставляемых подписчикам.
const (
	EventShoppingListUpdated = "shopping_list_updated"
	EventPurchaseStarted     = "purchase_started"
	EventPurchaseUpdated     = "purchase_updated"
	EventPurchaseCompleted   = "purchase_completed"
	EventPurchaseCancelled   = "purchase_cancelled"
)

// Event — событие для доставки клиенту по SSE.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub рассылает события подписчикам пользователя. Медленный подписчик
// теряет события, а не блокирует отправителя.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает пустой хаб уведомлений.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe регистрирует подписку пользователя и возвращает канал событий.
func (h *Hub) Subscribe(userID uuid.UUID) chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	return ch
}

// Unsubscribe снимает подписку и закрывает канал.
func (h *Hub) Unsubscribe(userID uuid.UUID, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[userID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}

	delete(subs, ch)
	if len(subs) == 0 {
		delete(h.subscribers, userID)
	}
	close(ch)
}

// Publish доставляет событие всем подписчикам пользователя.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}
