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

type ShoppingListRepository struct {
	db *pgxpool.Pool
}

// NewShoppingListRepository создает репозиторий списка покупок.
func NewShoppingListRepository(db *pgxpool.Pool) *ShoppingListRepository {
	return &ShoppingListRepository{db: db}
}

// List возвращает все позиции списка пользователя.
func (r *ShoppingListRepository) List(ctx context.Context, userID uuid.UUID) ([]models.ShoppingListItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, quantity, unit, updated_at
		 FROM shopping_list_items
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ShoppingListItem, 0)
	for rows.Next() {
		var item models.ShoppingListItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Unit, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Add добавляет позиции со слиянием: совпадающее имя с той же единицей
// суммирует количество, с другой единицей — заменяет количество и единицу.
func (r *ShoppingListRepository) Add(ctx context.Context, userID uuid.UUID, items []models.ShoppingListItem) error {
	if len(items) == 0 {
		return ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return ErrInvalid
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO shopping_list_items (user_id, name, name_key, quantity, unit)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id, name_key) DO UPDATE
			 SET quantity = CASE
			         WHEN lower(shopping_list_items.unit) = lower(EXCLUDED.unit)
			         THEN shopping_list_items.quantity + EXCLUDED.quantity
			         ELSE EXCLUDED.quantity
			     END,
			     unit = EXCLUDED.unit,
			     updated_at = NOW()`,
			userID, name, NormalizeItemName(name), item.Quantity, item.Unit,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateItem изменяет количество и единицу позиции по имени.
func (r *ShoppingListRepository) UpdateItem(ctx context.Context, userID uuid.UUID, name string, quantity float64, unit string) (models.ShoppingListItem, error) {
	var item models.ShoppingListItem

	err := r.db.QueryRow(ctx,
		`UPDATE shopping_list_items
		 SET quantity = $3, unit = $4, updated_at = NOW()
		 WHERE user_id = $1 AND name_key = $2
		 RETURNING name, quantity, unit, updated_at`,
		userID, NormalizeItemName(name), quantity, unit,
	).Scan(&item.Name, &item.Quantity, &item.Unit, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item, ErrNotFound
		}
		return item, err
	}

	return item, nil
}

// Remove удаляет позиции по именам без учета регистра и возвращает
// число удаленных строк.
func (r *ShoppingListRepository) Remove(ctx context.Context, userID uuid.UUID, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, ErrInvalid
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		if key := NormalizeItemName(name); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return 0, ErrInvalid
	}

	cmd, err := r.db.Exec(ctx,
		`DELETE FROM shopping_list_items
		 WHERE user_id = $1 AND name_key = ANY($2)`,
		userID, keys,
	)
	if err != nil {
		return 0, err
	}

	return cmd.RowsAffected(), nil
}

// Replace заменяет весь список пользователя в одной транзакции.
func (r *ShoppingListRepository) Replace(ctx context.Context, userID uuid.UUID, items []models.ShoppingListItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx,
		`DELETE FROM shopping_list_items WHERE user_id = $1`,
		userID,
	); err != nil {
		return err
	}

	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return ErrInvalid
		}

		if _, err = tx.Exec(ctx,
			`INSERT INTO shopping_list_items (user_id, name, name_key, quantity, unit)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id, name_key) DO UPDATE
			 SET quantity = EXCLUDED.quantity,
			     unit = EXCLUDED.unit,
			     updated_at = NOW()`,
			userID, name, NormalizeItemName(name), item.Quantity, item.Unit,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// NormalizeItemName приводит имя позиции к ключу уникальности.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
