package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/meal-assistant/backend/internal/models"
)

type InventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository создает репозиторий домашних запасов.
func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// List возвращает запасы пользователя по алфавиту.
func (r *InventoryRepository) List(ctx context.Context, userID uuid.UUID) ([]models.InventoryItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, item_name, category, quantity, unit, expiry_date, location, notes, created_at, updated_at
		 FROM inventory_items
		 WHERE user_id = $1
		 ORDER BY item_name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.InventoryItem, 0)
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ItemName, &it.Category, &it.Quantity,
			&it.Unit, &it.ExpiryDate, &it.Location, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// Upsert создает запись или обновляет существующую по имени позиции
// без учета регистра.
func (r *InventoryRepository) Upsert(ctx context.Context, userID uuid.UUID, item models.InventoryItem) (models.InventoryItem, error) {
	name := strings.TrimSpace(item.ItemName)
	if name == "" {
		return models.InventoryItem{}, ErrInvalid
	}

	var out models.InventoryItem
	err := r.db.QueryRow(ctx,
		`INSERT INTO inventory_items (id, user_id, item_name, name_key, category, quantity, unit, expiry_date, location, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id, name_key) DO UPDATE
		 SET item_name = EXCLUDED.item_name,
		     category = EXCLUDED.category,
		     quantity = EXCLUDED.quantity,
		     unit = EXCLUDED.unit,
		     expiry_date = EXCLUDED.expiry_date,
		     location = EXCLUDED.location,
		     notes = EXCLUDED.notes,
		     updated_at = NOW()
		 RETURNING id, user_id, item_name, category, quantity, unit, expiry_date, location, notes, created_at, updated_at`,
		uuid.New(), userID, name, NormalizeItemName(name),
		item.Category, item.Quantity, item.Unit, item.ExpiryDate, item.Location, item.Notes,
	).Scan(
		&out.ID, &out.UserID, &out.ItemName, &out.Category, &out.Quantity,
		&out.Unit, &out.ExpiryDate, &out.Location, &out.Notes, &out.CreatedAt, &out.UpdatedAt,
	)

	return out, err
}

// Get возвращает запись запаса по имени позиции.
func (r *InventoryRepository) Get(ctx context.Context, userID uuid.UUID, itemName string) (models.InventoryItem, error) {
	var it models.InventoryItem

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, item_name, category, quantity, unit, expiry_date, location, notes, created_at, updated_at
		 FROM inventory_items
		 WHERE user_id = $1 AND name_key = $2`,
		userID, NormalizeItemName(itemName),
	).Scan(
		&it.ID, &it.UserID, &it.ItemName, &it.Category, &it.Quantity,
		&it.Unit, &it.ExpiryDate, &it.Location, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return it, ErrNotFound
		}
		return it, err
	}

	return it, nil
}

// Delete удаляет запись запаса по имени позиции.
func (r *InventoryRepository) Delete(ctx context.Context, userID uuid.UUID, itemName string) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM inventory_items WHERE user_id = $1 AND name_key = $2`,
		userID, NormalizeItemName(itemName),
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
