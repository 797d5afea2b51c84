package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-hub-backend/pkg/models"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func tasksWithStatuses(statuses ...models.TaskStatus) []models.Task {
	tasks := make([]models.Task, len(statuses))
	for i, s := range statuses {
		tasks[i] = models.Task{ID: string(rune('a' + i)), ProjectID: "p1", Status: s}
	}
	return tasks
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage(nil))
	assert.Equal(t, 33, CompletionPercentage(tasksWithStatuses(models.TaskDone, models.TaskTodo, models.TaskReview)))
	assert.Equal(t, 100, CompletionPercentage(tasksWithStatuses(models.TaskDone)))
	assert.Equal(t, 67, CompletionPercentage(tasksWithStatuses(models.TaskDone, models.TaskDone, models.TaskTodo)))
	// halves round to even
	assert.Equal(t, 12, CompletionPercentage(tasksWithStatuses(
		models.TaskDone, models.TaskTodo, models.TaskTodo, models.TaskTodo,
		models.TaskTodo, models.TaskTodo, models.TaskTodo, models.TaskTodo,
	)))
}

func TestCompletionPercentageIsIdempotent(t *testing.T) {
	tasks := tasksWithStatuses(models.TaskDone, models.TaskTodo)
	tasks[1].DueDate = at(now.Add(72 * time.Hour))
	assert.Equal(t, CompletionPercentage(tasks), CompletionPercentage(tasks))
	assert.Equal(t, DaysRemaining(tasks, now), DaysRemaining(tasks, now))
}

func TestDaysRemaining(t *testing.T) {
	t.Run("no tasks", func(t *testing.T) {
		assert.Equal(t, 0, DaysRemaining(nil, now))
	})
	t.Run("no due dates", func(t *testing.T) {
		assert.Equal(t, 0, DaysRemaining(tasksWithStatuses(models.TaskTodo), now))
	})
	t.Run("past due date clamps to zero", func(t *testing.T) {
		tasks := tasksWithStatuses(models.TaskTodo)
		tasks[0].DueDate = at(now.AddDate(0, 0, -1))
		assert.Equal(t, 0, DaysRemaining(tasks, now))
	})
	t.Run("uses the latest due date in calendar days", func(t *testing.T) {
		tasks := tasksWithStatuses(models.TaskTodo, models.TaskTodo, models.TaskDone)
		tasks[0].DueDate = at(now.AddDate(0, 0, 2))
		tasks[1].DueDate = at(time.Date(2024, 6, 25, 1, 0, 0, 0, time.UTC))
		assert.Equal(t, 10, DaysRemaining(tasks, now))
	})
	t.Run("later today is zero days", func(t *testing.T) {
		tasks := tasksWithStatuses(models.TaskTodo)
		tasks[0].DueDate = at(now.Add(3 * time.Hour))
		assert.Equal(t, 0, DaysRemaining(tasks, now))
	})
}

func TestTaskDuration(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start      *time.Time
		completion *time.Time
		want       string
	}{
		{"not started", nil, nil, "Not started"},
		{"seconds are truncated", at(start), at(start.Add(90 * time.Second)), "1 minute"},
		{"zero elapsed", at(start), at(start), "Less than a minute"},
		{"plural units", at(start), at(start.Add(50*time.Hour + 2*time.Minute)), "2 days, 2 hours, 2 minutes"},
		{"singular units skip zeros", at(start), at(start.Add(25 * time.Hour)), "1 day, 1 hour"},
		{"running task measures to now", at(now.Add(-3 * time.Hour)), nil, "3 hours"},
		{"completion before start", at(start), at(start.Add(-time.Minute)), "23 hours, 59 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{StartDate: tt.start, CompletionDate: tt.completion}
			assert.Equal(t, tt.want, TaskDuration(task, now))
		})
	}
}

func TestComputeTaskRates(t *testing.T) {
	assert.Equal(t, TaskRates{}, ComputeTaskRates(nil))

	updated := now.AddDate(0, 0, -2)
	tasks := []models.Task{
		{Status: models.TaskDone, DueDate: at(now), UpdatedAt: updated},                    // on time
		{Status: models.TaskDone, DueDate: at(updated.AddDate(0, 0, -1)), UpdatedAt: updated}, // late
		{Status: models.TaskDone, UpdatedAt: updated},                                      // no due date
		{Status: models.TaskTodo, DueDate: at(now), UpdatedAt: updated},
		{Status: models.TaskInProgress, UpdatedAt: updated},
		{Status: models.TaskReview, UpdatedAt: updated},
	}
	r := ComputeTaskRates(tasks)
	assert.Equal(t, 6, r.Total)
	assert.Equal(t, 3, r.Completed)
	assert.Equal(t, 50.0, r.CompletionRate)
	assert.Equal(t, 33.3, r.OnTimeRate)

	due := updated
	exact := ComputeTaskRates([]models.Task{{Status: models.TaskDone, DueDate: &due, UpdatedAt: updated}})
	assert.Equal(t, 100.0, exact.OnTimeRate)
}

func TestRatioRoundsExactTiesToEven(t *testing.T) {
	tests := []struct {
		part, whole int
		want        float64
	}{
		{1, 80, 1.2},      // 1.25
		{3, 80, 3.8},      // 3.75
		{1, 400, 0.2},     // 0.25
		{3, 2000, 0.2},    // 0.15
		{1, 2000, 0},      // 0.05
		{1999, 2000, 100}, // 99.95
		{2, 3, 66.7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratio(tt.part, tt.whole), "%d/%d", tt.part, tt.whole)
	}
}

func TestCountTasks(t *testing.T) {
	c := CountTasks(tasksWithStatuses(models.TaskTodo, models.TaskInProgress, models.TaskReview, models.TaskDone, models.TaskDone))
	assert.Equal(t, TaskCounts{Total: 5, Open: 3, Completed: 2, InProgress: true, InReview: true}, c)
}

func TestComputeProjectStats(t *testing.T) {
	projects := []models.Project{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	tasks := []models.Task{
		{ProjectID: "p1", Status: models.TaskTodo},
		{ProjectID: "p1", Status: models.TaskDone},
		{ProjectID: "p2", Status: models.TaskReview},
	}
	assert.Equal(t, ProjectStats{Total: 3, Active: 1, Completed: 2}, ComputeProjectStats(projects, tasks))
}

func TestCountProjectStatuses(t *testing.T) {
	projects := []models.Project{
		{Status: models.ProjectActive}, {Status: models.ProjectActive},
		{Status: models.ProjectOnHold}, {Status: models.ProjectCompleted},
		{Status: models.ProjectPlanning}, {Status: models.ProjectArchived},
	}
	assert.Equal(t, StatusCounts{Active: 2, OnHold: 1, Completed: 1}, CountProjectStatuses(projects))
}

func TestComputeDashboard(t *testing.T) {
	assigned := tasksWithStatuses(models.TaskTodo, models.TaskInProgress, models.TaskReview, models.TaskDone)
	s := ComputeDashboard([]models.Project{{ID: "p1"}}, assigned)
	assert.Equal(t, DashboardStats{TotalProjects: 1, PendingTasks: 2, CompletedTasks: 1}, s)
}

func TestYearsOfExperience(t *testing.T) {
	assert.Nil(t, YearsOfExperience(nil, now))

	years := YearsOfExperience(at(time.Date(2020, 6, 16, 0, 0, 0, 0, time.UTC)), now)
	require.NotNil(t, years)
	assert.Equal(t, 3, *years)

	years = YearsOfExperience(at(time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)), now)
	require.NotNil(t, years)
	assert.Equal(t, 4, *years)
}
