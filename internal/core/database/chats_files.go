package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

// Implementing the db interface for chats and messages

func (c *DatabaseClient) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat == nil {
		return errors.New("nil chat")
	}
	const q = `
		INSERT INTO chats (id, user_id, title, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := c.db.ExecContext(ctx, q, chat.ID, chat.UserID, chat.Title, chat.CreatedAt)
	return err
}

func (c *DatabaseClient) GetChatByID(ctx context.Context, id string) (*models.Chat, error) {
	const q = `SELECT id, user_id, title, created_at FROM chats WHERE id = $1`
	var ch models.Chat
	err := c.db.QueryRowContext(ctx, q, id).Scan(&ch.ID, &ch.UserID, &ch.Title, &ch.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *DatabaseClient) ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	const q = `
		SELECT id, user_id, title, created_at
		FROM chats
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chat
	for rows.Next() {
		var ch models.Chat
		if err := rows.Scan(&ch.ID, &ch.UserID, &ch.Title, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteChat(ctx context.Context, id string) error {
	const q = `DELETE FROM chats WHERE id = $1`
	return c.execExpectingRow(ctx, q, "chat", id)
}

func (c *DatabaseClient) CreateMessage(ctx context.Context, message *models.Message) error {
	if message == nil {
		return errors.New("nil message")
	}
	const q = `
		INSERT INTO messages (id, chat_id, file_id, sender_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		message.ID, message.ChatID, message.FileID, message.Sender, message.Content, message.CreatedAt)
	return err
}

// ListMessagesByChat returns messages in insertion order, which is the
// display order.
func (c *DatabaseClient) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	const q = `
		SELECT id, chat_id, file_id, sender_type, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.FileID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Implementing the db interface for files

func (c *DatabaseClient) CreateFile(ctx context.Context, file *models.File) error {
	if file == nil {
		return errors.New("nil file")
	}
	const q = `
		INSERT INTO files (id, user_id, name, content_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		file.ID, file.UserID, file.Name, file.ContentURL, file.Status, file.CreatedAt)
	return err
}

func (c *DatabaseClient) GetFileByID(ctx context.Context, id string) (*models.File, error) {
	const q = `SELECT id, user_id, name, content_url, status, created_at FROM files WHERE id = $1`
	var f models.File
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.UserID, &f.Name, &f.ContentURL, &f.Status, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *DatabaseClient) ListFilesByUser(ctx context.Context, userID string) ([]models.File, error) {
	const q = `
		SELECT id, user_id, name, content_url, status, created_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.ContentURL, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteFile(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	return c.execExpectingRow(ctx, q, "file", id)
}
