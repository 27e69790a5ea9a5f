package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishReachesSubscriber проверяет доставку события подписчику.
func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch := hub.Subscribe(userID)
	defer hub.Unsubscribe(userID, ch)

	hub.Publish(userID, Event{Type: EventShoppingListUpdated})

	select {
	case event := <-ch:
		if event.Type != EventShoppingListUpdated {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// TestHubIsolatesUsers проверяет, что события не утекают чужим подписчикам.
func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()

	aliceCh := hub.Subscribe(alice)
	bobCh := hub.Subscribe(bob)
	defer hub.Unsubscribe(alice, aliceCh)
	defer hub.Unsubscribe(bob, bobCh)

	hub.Publish(alice, Event{Type: EventPurchaseStarted})

	select {
	case <-bobCh:
		t.Fatal("event leaked to another user")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case <-aliceCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// TestHubUnsubscribeClosesChannel проверяет закрытие канала при отписке.
func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch := hub.Subscribe(userID)
	hub.Unsubscribe(userID, ch)

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// повторная отписка не должна паниковать
	hub.Unsubscribe(userID, ch)
}

// TestHubSlowSubscriberDoesNotBlock проверяет сброс событий при полном буфере.
func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch := hub.Subscribe(userID)
	defer hub.Unsubscribe(userID, ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(userID, Event{Type: EventPurchaseUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
