package purchase

import "strings"

// IntentDetector распознает намерение начать покупку. Возвращает имена
// запрошенных позиций (пустой срез означает весь список) и признак
// срабатывания.
type IntentDetector interface {
	Detect(assistantText, userText string, itemNames []string) ([]string, bool)
}

// KeywordDetector — детектор намерения по ключевым словам. Срабатывает,
// когда ответ ассистента упоминает обзор списка покупок или содержит
// слово покупки вместе с фразой подтверждения. Упомянутые пользователем
// позиции становятся запрошенным подмножеством.
type KeywordDetector struct{}

// NewKeywordDetector создает детектор намерения.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

var confirmationPhrases = []string{
	"yes",
	"go ahead",
	"let's do it",
	"proceed",
	"confirm",
	"sounds good",
}

// Detect возвращает запрошенные позиции и true, если текст выражает
// намерение начать покупку.
func (d *KeywordDetector) Detect(assistantText, userText string, itemNames []string) ([]string, bool) {
	text := strings.ToLower(assistantText)

	intent := strings.Contains(text, "shopping list") &&
		(strings.Contains(text, "panel") || strings.Contains(text, "review"))

	if !intent && (strings.Contains(text, "buy") || strings.Contains(text, "purchase")) {
		for _, phrase := range confirmationPhrases {
			if strings.Contains(text, phrase) {
				intent = true
				break
			}
		}
	}

	if !intent {
		return nil, false
	}

	return matchRequestedItems(userText, itemNames), true
}

// matchRequestedItems извлекает из реплики пользователя упомянутые
// позиции списка. Ни одного совпадения — покупается весь список.
func matchRequestedItems(userText string, itemNames []string) []string {
	text := strings.ToLower(userText)

	var requested []string
	for _, name := range itemNames {
		key := strings.ToLower(strings.TrimSpace(name))
		if key != "" && strings.Contains(text, key) {
			requested = append(requested, name)
		}
	}

	return requested
}
