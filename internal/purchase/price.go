package purchase

import (
	"strconv"
	"strings"
)

// ParsePrice извлекает числовое значение из строки цены вида "$3.50"
// или "USD 12". Возвращает false, если цена отсутствует или не содержит
// пригодного числа.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}
