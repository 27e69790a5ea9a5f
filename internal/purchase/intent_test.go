package purchase

import "testing"

// TestKeywordDetector проверяет распознавание намерения покупки.
func TestKeywordDetector(t *testing.T) {
	d := NewKeywordDetector()

	cases := []struct {
		assistant string
		want      bool
	}{
		{"Here is your shopping list, open the panel to review it", true},
		{"Let's review your shopping list before checkout", true},
		{"Yes, go ahead and buy everything on the list", true},
		{"Proceed with the purchase", true},
		{"Sounds good, purchase the items", true},
		{"I added milk to your shopping list", false},
		{"You could buy seasonal vegetables to save money", false},
		{"Here is a recipe for dinner", false},
		{"", false},
	}

	for _, tc := range cases {
		if _, got := d.Detect(tc.assistant, "", nil); got != tc.want {
			t.Fatalf("Detect(%q): expected %v, got %v", tc.assistant, tc.want, got)
		}
	}
}

// TestKeywordDetectorSubset проверяет извлечение подмножества позиций
// из реплики пользователя.
func TestKeywordDetectorSubset(t *testing.T) {
	d := NewKeywordDetector()
	assistant := "Opening the shopping list panel for you"
	items := []string{"Milk", "Eggs", "Bread"}

	requested, ok := d.Detect(assistant, "I only want the milk and bread", items)
	if !ok {
		t.Fatal("expected intent to fire")
	}
	if len(requested) != 2 || requested[0] != "Milk" || requested[1] != "Bread" {
		t.Fatalf("expected [Milk Bread], got %v", requested)
	}

	requested, ok = d.Detect(assistant, "let's buy everything", items)
	if !ok {
		t.Fatal("expected intent to fire")
	}
	if len(requested) != 0 {
		t.Fatalf("expected whole list (no subset), got %v", requested)
	}
}
