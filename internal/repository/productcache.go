package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/meal-assistant/backend/internal/models"
)

type ProductCacheRepository struct {
	db *pgxpool.Pool
}

// NewProductCacheRepository создает репозиторий кэша поиска товаров.
func NewProductCacheRepository(db *pgxpool.Pool) *ProductCacheRepository {
	return &ProductCacheRepository{db: db}
}

// NormalizeQuery приводит поисковый запрос к ключу кэша.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get возвращает кэшированные результаты поиска по запросу и стране.
func (r *ProductCacheRepository) Get(ctx context.Context, userID uuid.UUID, query, country string) (models.ProductCacheEntry, error) {
	var entry models.ProductCacheEntry

	err := r.db.QueryRow(ctx,
		`SELECT user_id, query, country, results, updated_at
		 FROM product_search_cache
		 WHERE user_id = $1 AND query = $2 AND country = $3`,
		userID, NormalizeQuery(query), country,
	).Scan(&entry.UserID, &entry.Query, &entry.Country, &entry.Results, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entry, ErrNotFound
		}
		return entry, err
	}

	return entry, nil
}

// Save сохраняет результаты поиска, заменяя прежние для того же запроса.
func (r *ProductCacheRepository) Save(ctx context.Context, userID uuid.UUID, query, country string, results json.RawMessage) error {
	key := NormalizeQuery(query)
	if key == "" {
		return ErrInvalid
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO product_search_cache (user_id, query, country, results)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, query, country) DO UPDATE
		 SET results = EXCLUDED.results,
		     updated_at = NOW()`,
		userID, key, country, results,
	)
	return err
}

// List возвращает все записи кэша пользователя, свежие первыми.
func (r *ProductCacheRepository) List(ctx context.Context, userID uuid.UUID) ([]models.ProductCacheEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, query, country, results, updated_at
		 FROM product_search_cache
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ProductCacheEntry, 0)
	for rows.Next() {
		var entry models.ProductCacheEntry
		if err := rows.Scan(&entry.UserID, &entry.Query, &entry.Country, &entry.Results, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeleteByQuery удаляет записи кэша по запросу во всех странах.
func (r *ProductCacheRepository) DeleteByQuery(ctx context.Context, userID uuid.UUID, query string) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM product_search_cache
		 WHERE user_id = $1 AND query = $2`,
		userID, NormalizeQuery(query),
	)
	if err != nil {
		return 0, err
	}

	return cmd.RowsAffected(), nil
}

// DeleteAll очищает весь кэш пользователя.
func (r *ProductCacheRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM product_search_cache WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, err
	}

	return cmd.RowsAffected(), nil
}
