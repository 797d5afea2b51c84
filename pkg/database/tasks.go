package database

import (
	"context"
	"fmt"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var taskColumns = []string{
	"id", "title", "description", "project_id", "assigned_to", "priority", "status",
	"due_date", "start_date", "completion_date", "created_at", "updated_at",
}

// tasks with a due date come first, soonest first.
const taskOrder = " ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date, created_at, id"

func (s *SQLDatabase) CreateTask(ctx context.Context, task *models.Task) error {
	now := s.now()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	normalizeTaskDates(task)
	if err := namedExec(ctx, s.db, insertQuery("tasks", taskColumns), task); err != nil {
		return translateError(err, "task", task.ID)
	}
	return nil
}

func normalizeTaskDates(task *models.Task) {
	task.DueDate = utc(task.DueDate)
	task.StartDate = utc(task.StartDate)
	task.CompletionDate = utc(task.CompletionDate)
}

func (s *SQLDatabase) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := get(ctx, s.db, &t, "SELECT "+columns(taskColumns)+" FROM tasks WHERE id = ?", id); err != nil {
		return nil, translateError(err, "task", id)
	}
	return &t, nil
}

// UpdateTask rewrites the editable fields. The project of a task never changes.
func (s *SQLDatabase) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = s.now()
	normalizeTaskDates(task)
	cols := []string{
		"title", "description", "assigned_to", "priority", "status",
		"due_date", "start_date", "completion_date", "updated_at",
	}
	n, err := namedExecCount(ctx, s.db, updateQuery("tasks", cols, "id"), task)
	if err != nil {
		return translateError(err, "task", task.ID)
	}
	return affectedOrNotFound(n, "task", task.ID)
}

// DeleteTask detaches notes that point at the task, then removes it.
func (s *SQLDatabase) DeleteTask(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx txExt) error {
		if _, err := exec(ctx, tx, "UPDATE notes SET task_id = NULL WHERE task_id = ?", id); err != nil {
			return fmt.Errorf("detach notes: %w", err)
		}
		n, err := exec(ctx, tx, "DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return affectedOrNotFound(n, "task", id)
	})
}

func (s *SQLDatabase) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	out := []models.Task{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(taskColumns)+" FROM tasks WHERE project_id = ?"+taskOrder, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	return out, nil
}

func (s *SQLDatabase) ListTasksByProjects(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	out := []models.Task{}
	err := selectIn(ctx, s.db, &out, "SELECT "+columns(taskColumns)+" FROM tasks WHERE project_id IN (?)"+taskOrder, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

// ListTasksForUser returns the tasks the user may see: every task of the
// projects they own plus the tasks assigned to them.
func (s *SQLDatabase) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	out := []models.Task{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(taskColumns)+` FROM tasks
		WHERE assigned_to = ? OR project_id IN (SELECT id FROM projects WHERE owner_id = ?)`+taskOrder, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tasks: %w", err)
	}
	return out, nil
}

func (s *SQLDatabase) ListAssignedTasks(ctx context.Context, userID string) ([]models.Task, error) {
	out := []models.Task{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(taskColumns)+" FROM tasks WHERE assigned_to = ?"+taskOrder, userID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return out, nil
}
