package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/meal-assistant/backend/internal/models"
)

type ChatLogRepository struct {
	db *pgxpool.Pool
}

// NewChatLogRepository создает репозиторий журнала запросов к ассистенту.
func NewChatLogRepository(db *pgxpool.Pool) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// Log записывает запрос и ответ ассистента.
func (r *ChatLogRepository) Log(ctx context.Context, entry models.ChatRequestLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_request_log (id, user_id, message_id, request_payload, response_payload, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), entry.UserID, entry.MessageID, entry.RequestPayload,
		entry.ResponsePayload, entry.Success, entry.ErrorMessage,
	)
	return err
}

// Recent возвращает последние записи журнала пользователя.
func (r *ChatLogRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatRequestLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, message_id, request_payload, response_payload, success, error_message, created_at
		 FROM chat_request_log
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ChatRequestLog, 0)
	for rows.Next() {
		var e models.ChatRequestLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.MessageID, &e.RequestPayload, &e.ResponsePayload, &e.Success, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
