package purchase

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestFlowLifecycle проверяет полный проход покупки от старта до оплаты.
func TestFlowLifecycle(t *testing.T) {
	items := []Item{
		{Name: "milk", Quantity: 1, Unit: "l", ProductPrice: "$3.50"},
		{Name: "eggs", Quantity: 1, Unit: "dozen", ProductPrice: "see options"},
	}

	flow, err := NewFlow(items)
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	if flow.Stage() != StageSelecting {
		t.Fatalf("expected stage %q, got %q", StageSelecting, flow.Stage())
	}
	if !flow.PanelOpen() {
		t.Fatal("expected panel open after start")
	}

	total, unpriced := flow.Total()
	if !almostEqual(total, 3.50) {
		t.Fatalf("expected total 3.50, got %v", total)
	}
	if len(unpriced) != 1 || unpriced[0] != "eggs" {
		t.Fatalf("expected eggs unpriced, got %v", unpriced)
	}

	if err := flow.UpdateQuantity("milk", 2); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	total, _ = flow.Total()
	if !almostEqual(total, 7.00) {
		t.Fatalf("expected total 7.00 after quantity change, got %v", total)
	}

	if err := flow.OpenPayment(); err != nil {
		t.Fatalf("OpenPayment: %v", err)
	}
	if flow.Stage() != StagePaying {
		t.Fatalf("expected stage %q, got %q", StagePaying, flow.Stage())
	}

	if err := flow.UpdateQuantity("milk", 3); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("expected ErrWrongStage during payment, got %v", err)
	}

	if err := flow.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if flow.Stage() != StageIdle {
		t.Fatalf("expected idle after completion, got %q", flow.Stage())
	}
	if len(flow.Items()) != 0 {
		t.Fatalf("expected empty working set after completion, got %v", flow.Items())
	}
}

// TestFlowZeroQuantityRemovesItem проверяет удаление позиции нулевым
// количеством и сохранение дробных количеств.
func TestFlowZeroQuantityRemovesItem(t *testing.T) {
	flow, err := NewFlow([]Item{
		{Name: "milk", Quantity: 1, ProductPrice: "$3.50"},
		{Name: "bread", Quantity: 1, ProductPrice: "$2.00"},
	})
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}

	// дробное количество остается позицией, а не удаляет ее
	if err := flow.UpdateQuantity("milk", 0.5); err != nil {
		t.Fatalf("UpdateQuantity fractional: %v", err)
	}
	if total, _ := flow.Total(); !almostEqual(total, 3.75) {
		t.Fatalf("expected total 3.75 for half quantity, got %v", total)
	}

	if err := flow.UpdateQuantity("bread", 0); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}

	if len(flow.Items()) != 1 {
		t.Fatalf("expected 1 item after removal, got %d", len(flow.Items()))
	}

	if err := flow.UpdateQuantity("bread", 2); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

// TestFlowCancel проверяет отмену с обоих активных этапов.
func TestFlowCancel(t *testing.T) {
	flow, err := NewFlow([]Item{{Name: "milk", Quantity: 1}})
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	if err := flow.Cancel(); err != nil {
		t.Fatalf("Cancel from selecting: %v", err)
	}
	if err := flow.Cancel(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	flow, _ = NewFlow([]Item{{Name: "milk", Quantity: 1}})
	if err := flow.OpenPayment(); err != nil {
		t.Fatalf("OpenPayment: %v", err)
	}
	if err := flow.Cancel(); err != nil {
		t.Fatalf("Cancel from paying: %v", err)
	}
	if flow.Stage() != StageIdle {
		t.Fatalf("expected idle after cancel, got %q", flow.Stage())
	}
}

// TestFlowClosePayment проверяет возврат к выбору позиций.
func TestFlowClosePayment(t *testing.T) {
	flow, _ := NewFlow([]Item{{Name: "milk", Quantity: 1}})

	if err := flow.ClosePayment(); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("expected ErrWrongStage before payment, got %v", err)
	}

	if err := flow.OpenPayment(); err != nil {
		t.Fatalf("OpenPayment: %v", err)
	}
	if err := flow.ClosePayment(); err != nil {
		t.Fatalf("ClosePayment: %v", err)
	}
	if flow.Stage() != StageSelecting {
		t.Fatalf("expected selecting after closing payment, got %q", flow.Stage())
	}
}

// TestStoreSingleFlowPerUser проверяет, что у пользователя одна покупка.
func TestStoreSingleFlowPerUser(t *testing.T) {
	store := NewStore()
	userID := uuid.New()
	items := []Item{{Name: "milk", Quantity: 1}}

	if _, err := store.Start(userID, "msg-1", items); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := store.Start(userID, "msg-1", items); !errors.Is(err, ErrDuplicateTrigger) {
		t.Fatalf("expected ErrDuplicateTrigger, got %v", err)
	}

	// новый триггер заменяет прежний рабочий набор
	snap, err := store.Start(userID, "msg-2", []Item{{Name: "eggs", Quantity: 2}})
	if err != nil {
		t.Fatalf("restart with new trigger: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Name != "eggs" {
		t.Fatalf("expected replaced working set, got %v", snap.Items)
	}

	otherID := uuid.New()
	if _, err := store.Start(otherID, "msg-1", items); err != nil {
		t.Fatalf("Start for another user: %v", err)
	}
}

// TestStoreUpdateRemovesIdleFlow проверяет очистку завершенных покупок.
func TestStoreUpdateRemovesIdleFlow(t *testing.T) {
	store := NewStore()
	userID := uuid.New()

	if _, err := store.Start(userID, "msg-1", []Item{{Name: "milk", Quantity: 1}}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := store.Update(userID, func(f *Flow) error { return f.Cancel() }); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := store.Get(userID); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after cancel, got %v", err)
	}

	// после завершения можно начать заново тем же сообщением
	if _, err := store.Start(userID, "msg-1", []Item{{Name: "milk", Quantity: 1}}); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

// TestStoreSnapshotDetachedFromFlow проверяет, что снимки состояния не
// делят изменяемые данные с активным оформлением: конкурентные чтения
// видят согласованную пару количество-сумма, а ранний снимок не меняется
// после последующих обновлений.
func TestStoreSnapshotDetachedFromFlow(t *testing.T) {
	store := NewStore()
	userID := uuid.New()

	first, err := store.Start(userID, "msg-1", []Item{{Name: "milk", Quantity: 1, ProductPrice: "$3.50"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			if _, err := store.Update(userID, func(f *Flow) error {
				return f.UpdateQuantity("milk", float64(i))
			}); err != nil {
				t.Errorf("Update: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		snap, err := store.Get(userID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(snap.Items) != 1 {
			t.Fatalf("expected 1 item in snapshot, got %d", len(snap.Items))
		}
		if !almostEqual(snap.Total, snap.Items[0].Quantity*3.50) {
			t.Fatalf("snapshot total %v does not match quantity %v", snap.Total, snap.Items[0].Quantity)
		}
	}
	wg.Wait()

	if first.Items[0].Quantity != 1 {
		t.Fatalf("start snapshot changed after updates: %v", first.Items[0].Quantity)
	}
}
