package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/meal-assistant/backend/internal/models"
)

type LeftoverRepository struct {
	db *pgxpool.Pool
}

// NewLeftoverRepository создает репозиторий остатков еды.
func NewLeftoverRepository(db *pgxpool.Pool) *LeftoverRepository {
	return &LeftoverRepository{db: db}
}

// List возвращает остатки пользователя, свежие первыми.
func (r *LeftoverRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Leftover, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, meal_name, servings, notes, created_at, updated_at
		 FROM leftovers
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leftovers := make([]models.Leftover, 0)
	for rows.Next() {
		var l models.Leftover
		if err := rows.Scan(&l.ID, &l.UserID, &l.MealName, &l.Servings, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		leftovers = append(leftovers, l)
	}

	return leftovers, rows.Err()
}

// Create добавляет остаток.
func (r *LeftoverRepository) Create(ctx context.Context, userID uuid.UUID, mealName string, servings float64, notes *string) (models.Leftover, error) {
	var l models.Leftover

	err := r.db.QueryRow(ctx,
		`INSERT INTO leftovers (id, user_id, meal_name, servings, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, meal_name, servings, notes, created_at, updated_at`,
		uuid.New(), userID, mealName, servings, notes,
	).Scan(&l.ID, &l.UserID, &l.MealName, &l.Servings, &l.Notes, &l.CreatedAt, &l.UpdatedAt)

	return l, err
}

// Update изменяет остаток пользователя.
func (r *LeftoverRepository) Update(ctx context.Context, userID, id uuid.UUID, mealName string, servings float64, notes *string) (models.Leftover, error) {
	var l models.Leftover

	err := r.db.QueryRow(ctx,
		`UPDATE leftovers
		 SET meal_name = $3, servings = $4, notes = $5, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, meal_name, servings, notes, created_at, updated_at`,
		id, userID, mealName, servings, notes,
	).Scan(&l.ID, &l.UserID, &l.MealName, &l.Servings, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l, ErrNotFound
		}
		return l, err
	}

	return l, nil
}

// AdjustServings изменяет только число порций.
func (r *LeftoverRepository) AdjustServings(ctx context.Context, userID, id uuid.UUID, servings float64) (models.Leftover, error) {
	var l models.Leftover

	err := r.db.QueryRow(ctx,
		`UPDATE leftovers
		 SET servings = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, meal_name, servings, notes, created_at, updated_at`,
		id, userID, servings,
	).Scan(&l.ID, &l.UserID, &l.MealName, &l.Servings, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l, ErrNotFound
		}
		return l, err
	}

	return l, nil
}

// Delete удаляет остаток пользователя.
func (r *LeftoverRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM leftovers WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
