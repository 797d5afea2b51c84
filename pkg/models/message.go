package models

import "time"

type AttachmentType string

const (
	AttachmentImage AttachmentType = "IMAGE"
	AttachmentVideo AttachmentType = "VIDEO"
	AttachmentFile  AttachmentType = "FILE"
)

// Message is addressed to exactly one of a recipient or a project.
// IsRead is stored but nothing derives unread counts from it.
type Message struct {
	ID             string         `json:"id" db:"id"`
	SenderID       string         `json:"sender_id" db:"sender_id"`
	RecipientID    *string        `json:"recipient_id,omitempty" db:"recipient_id"`
	ProjectID      *string        `json:"project_id,omitempty" db:"project_id"`
	Content        string         `json:"content" db:"content"`
	AttachmentKey  string         `json:"-" db:"attachment_key"`
	AttachmentURL  string         `json:"attachment_url,omitempty" db:"attachment_url"`
	AttachmentType AttachmentType `json:"attachment_type,omitempty" db:"attachment_type"`
	AttachmentName string         `json:"attachment_name,omitempty" db:"attachment_name"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	IsRead         bool           `json:"is_read" db:"is_read"`
}

// IsDirect reports whether the message is addressed to a single user.
func (m *Message) IsDirect() bool {
	return m.RecipientID != nil
}

// HasAttachment reports whether a blob was stored with the message.
func (m *Message) HasAttachment() bool {
	return m.AttachmentKey != ""
}

// MessageRequest is the JSON form of a new message. Multipart requests carry
// the same fields as form values plus an "attachment" file part.
type MessageRequest struct {
	Content     string `json:"content"`
	RecipientID string `json:"recipient_id"`
	ProjectSlug string `json:"project_slug"`
}
