package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskReview     TaskStatus = "REVIEW"
	TaskDone       TaskStatus = "DONE"
)

// Task belongs to exactly one project. Status moves freely between values.
type Task struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	ProjectID      string     `json:"project_id" db:"project_id"`
	AssignedTo     *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	Priority       Priority   `json:"priority" db:"priority"`
	Status         TaskStatus `json:"status" db:"status"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`
	StartDate      *time.Time `json:"start_date,omitempty" db:"start_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty" db:"completion_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// IsOpen reports whether the task is still pending (TODO or IN_PROGRESS).
func (t *Task) IsOpen() bool {
	return t.Status == TaskTodo || t.Status == TaskInProgress
}

type TaskCreateRequest struct {
	ProjectID      string     `json:"project_id" validate:"required"`
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description"`
	AssignedTo     *string    `json:"assigned_to"`
	Priority       Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status         TaskStatus `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW DONE"`
	DueDate        *time.Time `json:"due_date"`
	StartDate      *time.Time `json:"start_date"`
	CompletionDate *time.Time `json:"completion_date"`
}

// TaskUpdateRequest replaces every editable field of a task; the project is fixed.
type TaskUpdateRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description"`
	AssignedTo     *string    `json:"assigned_to"`
	Priority       Priority   `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Status         TaskStatus `json:"status" validate:"required,oneof=TODO IN_PROGRESS REVIEW DONE"`
	DueDate        *time.Time `json:"due_date"`
	StartDate      *time.Time `json:"start_date"`
	CompletionDate *time.Time `json:"completion_date"`
}
