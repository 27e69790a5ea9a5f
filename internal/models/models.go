package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ShoppingListItem — позиция списка покупок. Ключ уникальности —
// lower(name): добавление того же имени с другой единицей заменяет
// количество и единицу, с той же единицей суммирует количество.
type ShoppingListItem struct {
	Name      string    `json:"item"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Leftover struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	MealName  string    `json:"meal_name"`
	Servings  float64   `json:"servings"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InventoryItem struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ItemName   string     `json:"item_name"`
	Category   string     `json:"category"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Location   *string    `json:"location,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ProductCacheEntry — сохраненный результат товарного поиска.
// Results хранит массив продуктов как их вернул внешний API;
// первый элемент считается лучшим совпадением.
type ProductCacheEntry struct {
	UserID    uuid.UUID       `json:"user_id"`
	Query     string          `json:"query"`
	Country   string          `json:"country"`
	Results   json.RawMessage `json:"results"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ChatRequestLog struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	MessageID       uuid.UUID `json:"message_id"`
	RequestPayload  []byte    `json:"request_payload,omitempty"`
	ResponsePayload []byte    `json:"response_payload,omitempty"`
	Success         bool      `json:"success"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
