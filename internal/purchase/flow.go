package purchase

import (
	"errors"
	"strings"
	"time"
)

// Stage описывает этап оформления покупки.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageSelecting Stage = "selecting"
	StagePaying    Stage = "paying"
)

var (
	// ErrNotActive возвращается для операций над не начатой покупкой.
	ErrNotActive = errors.New("purchase flow is not active")
	// ErrWrongStage возвращается при переходе, недопустимом из текущего этапа.
	ErrWrongStage = errors.New("operation not allowed in current stage")
	// ErrItemNotFound возвращается, если позиции нет в рабочем наборе.
	ErrItemNotFound = errors.New("item not found in purchase")
	// ErrNoItems возвращается при попытке начать покупку без позиций.
	ErrNoItems = errors.New("purchase requires at least one item")
)

// Item — позиция рабочего набора покупки. Набор снимается со списка
// покупок в момент старта и дальше живет независимо от него.
type Item struct {
	Name         string  `json:"item"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	ProductTitle string  `json:"product_title,omitempty"`
	ProductPrice string  `json:"product_price,omitempty"`
	ProductURL   string  `json:"product_url,omitempty"`
	PhotoURL     string  `json:"photo_url,omitempty"`

	unitPrice float64
	priced    bool
}

// Flow — состояние одного оформления покупки.
type Flow struct {
	stage     Stage
	panelOpen bool
	items     []Item
	startedAt time.Time
}

// NewFlow начинает оформление с копией переданных позиций.
func NewFlow(items []Item) (*Flow, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	working := make([]Item, len(items))
	copy(working, items)
	for i := range working {
		working[i].unitPrice, working[i].priced = ParsePrice(working[i].ProductPrice)
		if working[i].Quantity <= 0 {
			working[i].Quantity = 1
		}
	}

	return &Flow{
		stage:     StageSelecting,
		panelOpen: true,
		items:     working,
		startedAt: time.Now(),
	}, nil
}

// Stage возвращает текущий этап.
func (f *Flow) Stage() Stage {
	return f.stage
}

// PanelOpen сообщает, раскрыта ли панель обзора.
func (f *Flow) PanelOpen() bool {
	return f.panelOpen
}

// StartedAt возвращает время начала оформления.
func (f *Flow) StartedAt() time.Time {
	return f.startedAt
}

// Items возвращает копию рабочего набора.
func (f *Flow) Items() []Item {
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

// UpdateQuantity меняет количество позиции. Нулевое количество удаляет
// позицию из набора; дробные значения сохраняются.
func (f *Flow) UpdateQuantity(name string, quantity float64) error {
	if f.stage != StageSelecting {
		return ErrWrongStage
	}

	key := normalizeName(name)
	for i := range f.items {
		if normalizeName(f.items[i].Name) != key {
			continue
		}
		if quantity <= 0 {
			f.items = append(f.items[:i], f.items[i+1:]...)
		} else {
			f.items[i].Quantity = quantity
		}
		return nil
	}

	return ErrItemNotFound
}

// TogglePanel открывает или закрывает панель обзора.
func (f *Flow) TogglePanel() error {
	if f.stage == StageIdle {
		return ErrNotActive
	}
	f.panelOpen = !f.panelOpen
	return nil
}

// OpenPayment переводит оформление на этап оплаты.
func (f *Flow) OpenPayment() error {
	if f.stage != StageSelecting {
		return ErrWrongStage
	}
	if len(f.items) == 0 {
		return ErrNoItems
	}
	f.stage = StagePaying
	return nil
}

// ClosePayment возвращает оформление к выбору позиций.
func (f *Flow) ClosePayment() error {
	if f.stage != StagePaying {
		return ErrWrongStage
	}
	f.stage = StageSelecting
	return nil
}

// Complete завершает оплату и закрывает оформление. Рабочий набор
// очищается; снять его состояние нужно до вызова.
func (f *Flow) Complete() error {
	if f.stage != StagePaying {
		return ErrWrongStage
	}
	f.stage = StageIdle
	f.panelOpen = false
	f.items = nil
	return nil
}

// Cancel прерывает оформление с любого активного этапа. Рабочий набор
// отбрасывается, список покупок не меняется.
func (f *Flow) Cancel() error {
	if f.stage == StageIdle {
		return ErrNotActive
	}
	f.stage = StageIdle
	f.panelOpen = false
	f.items = nil
	return nil
}

// Total возвращает сумму покупки и имена позиций без распознанной цены.
// Позиции без цены входят в набор, но не увеличивают сумму.
func (f *Flow) Total() (float64, []string) {
	var total float64
	unpriced := make([]string, 0)

	for _, item := range f.items {
		if !item.priced {
			unpriced = append(unpriced, item.Name)
			continue
		}
		total += item.unitPrice * item.Quantity
	}

	return total, unpriced
}

// Snapshot — неизменяемая копия состояния оформления. Хранилище отдает
// наружу только снимки; живой Flow не покидает его блокировку.
type Snapshot struct {
	Stage     Stage
	PanelOpen bool
	Items     []Item
	Total     float64
	Unpriced  []string
	StartedAt time.Time
}

// Snapshot снимает копию состояния. Вызывается под блокировкой Store.
func (f *Flow) Snapshot() Snapshot {
	total, unpriced := f.Total()
	return Snapshot{
		Stage:     f.stage,
		PanelOpen: f.panelOpen,
		Items:     f.Items(),
		Total:     total,
		Unpriced:  unpriced,
		StartedAt: f.startedAt,
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
