package handlers

import (
	"testing"

	"example.com/meal-assistant/backend/internal/models"
)

// TestFormatShoppingList проверяет текстовый экспорт списка.
func TestFormatShoppingList(t *testing.T) {
	items := []models.ShoppingListItem{
		{Name: "milk", Quantity: 2, Unit: "l"},
		{Name: "eggs", Quantity: 1.5, Unit: "dozen"},
		{Name: "salt", Quantity: 1, Unit: ""},
	}

	got := FormatShoppingList(items)
	want := "milk: 2 l\neggs: 1.5 dozen\nsalt: 1"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestFormatShoppingListEmpty проверяет экспорт пустого списка.
func TestFormatShoppingListEmpty(t *testing.T) {
	if got := FormatShoppingList(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
