package purchase

import "testing"

// TestParsePrice проверяет разбор строковых цен.
func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		found bool
	}{
		{"$3.50", 3.50, true},
		{"USD 12", 12, true},
		{"1,299.99", 1299.99, true},
		{"€7.25", 7.25, true},
		{"free", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"$0.00", 0, true},
	}

	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		if ok != tc.found {
			t.Fatalf("ParsePrice(%q): expected found=%v, got %v", tc.raw, tc.found, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParsePrice(%q): expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}
