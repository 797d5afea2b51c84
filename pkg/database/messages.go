package database

import (
	"context"
	"fmt"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var messageColumns = []string{
	"id", "sender_id", "recipient_id", "project_id", "content",
	"attachment_key", "attachment_url", "attachment_type", "attachment_name",
	"created_at", "is_read",
}

const messageOrder = " ORDER BY created_at, id"

// CreateMessage stores msg. CreatedAt is kept when already set so the
// composed message and the stored row agree.
func (s *SQLDatabase) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	if err := namedExec(ctx, s.db, insertQuery("messages", messageColumns), msg); err != nil {
		return translateError(err, "message", msg.ID)
	}
	return nil
}

// ListDirectMessages returns the conversation between two users in both directions.
func (s *SQLDatabase) ListDirectMessages(ctx context.Context, userA, userB string) ([]models.Message, error) {
	out := []models.Message{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(messageColumns)+` FROM messages
		WHERE project_id IS NULL
		AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))`+messageOrder,
		userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("list direct messages: %w", err)
	}
	return out, nil
}

func (s *SQLDatabase) ListProjectMessages(ctx context.Context, projectID string) ([]models.Message, error) {
	out := []models.Message{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(messageColumns)+" FROM messages WHERE project_id = ?"+messageOrder, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project messages: %w", err)
	}
	return out, nil
}

// ListUserDirectMessages returns every direct message the user sent or received.
func (s *SQLDatabase) ListUserDirectMessages(ctx context.Context, userID string) ([]models.Message, error) {
	out := []models.Message{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(messageColumns)+` FROM messages
		WHERE project_id IS NULL AND (sender_id = ? OR recipient_id = ?)`+messageOrder, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	return out, nil
}
