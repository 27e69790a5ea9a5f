package purchase

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrDuplicateTrigger возвращается при повторном срабатывании того же сообщения.
var ErrDuplicateTrigger = errors.New("purchase already started by this message")

// Store хранит активные оформления покупок, не больше одного на
// пользователя. Все методы безопасны для конкурентного вызова.
type Store struct {
	mu       sync.Mutex
	flows    map[uuid.UUID]*Flow
	triggers map[uuid.UUID]string
}

// NewStore создает пустое хранилище покупок.
func NewStore() *Store {
	return &Store{
		flows:    make(map[uuid.UUID]*Flow),
		triggers: make(map[uuid.UUID]string),
	}
}

// Start начинает оформление для пользователя, заменяя прежний рабочий
// набор. Повторный вызов с тем же идентификатором сообщения-триггера
// не начинает вторую покупку. Наружу уходит снимок, а не живой Flow.
func (s *Store) Start(userID uuid.UUID, triggerMessageID string, items []Item) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flows[userID]; ok {
		if triggerMessageID != "" && s.triggers[userID] == triggerMessageID {
			return Snapshot{}, ErrDuplicateTrigger
		}
	}

	flow, err := NewFlow(items)
	if err != nil {
		return Snapshot{}, err
	}

	s.flows[userID] = flow
	s.triggers[userID] = triggerMessageID
	return flow.Snapshot(), nil
}

// Get возвращает снимок активного оформления пользователя.
func (s *Store) Get(userID uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[userID]
	if !ok {
		return Snapshot{}, ErrNotActive
	}
	return flow.Snapshot(), nil
}

// Update выполняет fn над активным оформлением под блокировкой и
// возвращает снимок состояния после fn. Если fn переводит оформление
// в idle, запись удаляется.
func (s *Store) Update(userID uuid.UUID, fn func(*Flow) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[userID]
	if !ok {
		return Snapshot{}, ErrNotActive
	}

	if err := fn(flow); err != nil {
		return Snapshot{}, err
	}

	snap := flow.Snapshot()
	if snap.Stage == StageIdle {
		delete(s.flows, userID)
		delete(s.triggers, userID)
	}

	return snap, nil
}
