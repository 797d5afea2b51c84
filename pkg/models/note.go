package models

import "time"

// Tag is shared by notes and knowledge base articles. Names are unique.
type Tag struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

const DefaultTagColor = "#000000"

type TagRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor,len=7"`
}

// Note is private to its owner and may point at a project and a task.
type Note struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	ProjectID *string   `json:"project_id,omitempty" db:"project_id"`
	TaskID    *string   `json:"task_id,omitempty" db:"task_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Tags []Tag `json:"tags" db:"-"`
}

type NoteRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Content   string   `json:"content" validate:"required"`
	ProjectID *string  `json:"project_id"`
	TaskID    *string  `json:"task_id"`
	TagIDs    []string `json:"tag_ids" validate:"dive,required"`
}

// KnowledgeBase is an article readable by every authenticated user.
// AuthorID becomes nil when the author is deleted.
type KnowledgeBase struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	AuthorID  *string   `json:"author_id,omitempty" db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Tags []Tag `json:"tags" db:"-"`
}

// IsAuthoredBy reports whether userID wrote the article.
func (k *KnowledgeBase) IsAuthoredBy(userID string) bool {
	return k.AuthorID != nil && *k.AuthorID == userID
}

type ArticleRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required"`
	TagIDs  []string `json:"tag_ids" validate:"dive,required"`
}
