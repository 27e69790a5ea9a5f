package repository

import "testing"

// TestNormalizeItemName проверяет приведение имени к ключу.
func TestNormalizeItemName(t *testing.T) {
	cases := map[string]string{
		"  Whole Milk ": "whole milk",
		"EGGS":          "eggs",
		"":              "",
		"  ":            "",
	}

	for input, want := range cases {
		if got := NormalizeItemName(input); got != want {
			t.Fatalf("NormalizeItemName(%q): expected %q, got %q", input, want, got)
		}
	}
}
