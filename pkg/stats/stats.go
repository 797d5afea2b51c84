// Package stats derives display metrics from snapshots of the entity graph.
// Nothing here is cached or stored; callers pass the current time explicitly.
package stats

import (
	"fmt"
	"strings"
	"time"

	"project-hub-backend/pkg/models"
)

// CompletionPercentage is round(100*done/total), or 0 for a project with no tasks.
func CompletionPercentage(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for i := range tasks {
		if tasks[i].Status == models.TaskDone {
			done++
		}
	}
	return roundHalfEven(done*100, len(tasks))
}

func roundHalfEven(num, den int) int {
	q, rem := num/den, num%den
	if 2*rem > den || (2*rem == den && q%2 == 1) {
		q++
	}
	return q
}

// DaysRemaining counts calendar days (UTC) from now until the latest task
// due date. It is 0 when no task has a due date or the date has passed.
func DaysRemaining(tasks []models.Task, now time.Time) int {
	var latest *time.Time
	for i := range tasks {
		due := tasks[i].DueDate
		if due != nil && (latest == nil || due.After(*latest)) {
			latest = due
		}
	}
	if latest == nil {
		return 0
	}
	days := int(utcDate(*latest).Sub(utcDate(now)).Hours() / 24)
	return max(0, days)
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TaskDuration renders the time between a task's start and its completion
// (or now when still running), e.g. "2 days, 1 hour" or "1 minute".
func TaskDuration(t *models.Task, now time.Time) string {
	if t.StartDate == nil {
		return "Not started"
	}
	end := now
	if t.CompletionDate != nil {
		end = *t.CompletionDate
	}

	elapsed := end.Sub(*t.StartDate)
	secs := int64(elapsed / time.Second)
	if elapsed%time.Second < 0 {
		secs--
	}
	days := floorDiv(secs, 86400)
	rest := secs - days*86400
	hours := rest / 3600
	minutes := (rest % 3600) / 60

	var parts []string
	for _, c := range []struct {
		n    int64
		unit string
	}{{days, "day"}, {hours, "hour"}, {minutes, "minute"}} {
		if c.n > 0 {
			parts = append(parts, plural(c.n, c.unit))
		}
	}
	if len(parts) == 0 {
		return "Less than a minute"
	}
	return strings.Join(parts, ", ")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TaskRates summarises how an actor's tasks were finished.
type TaskRates struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
	OnTimeRate     float64 `json:"on_time_rate"`
}

// ComputeTaskRates expects the tasks assigned to or owned (through the
// project) by one actor. A task counts as on time when it is DONE and its
// due date is not before its last update.
func ComputeTaskRates(tasks []models.Task) TaskRates {
	r := TaskRates{Total: len(tasks)}
	onTime := 0
	for i := range tasks {
		t := &tasks[i]
		if t.Status != models.TaskDone {
			continue
		}
		r.Completed++
		if t.DueDate != nil && !t.DueDate.Before(t.UpdatedAt) {
			onTime++
		}
	}
	r.CompletionRate = ratio(r.Completed, r.Total)
	r.OnTimeRate = ratio(onTime, r.Completed)
	return r
}

// ratio is part/whole as a percentage with one decimal, rounded half to even
// on the exact fraction.
func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(roundHalfEven(part*1000, whole)) / 10
}

// TaskCounts backs the project detail view.
type TaskCounts struct {
	Total      int  `json:"total"`
	Open       int  `json:"open"`
	Completed  int  `json:"completed"`
	InProgress bool `json:"in_progress"`
	InReview   bool `json:"in_review"`
}

// CountTasks counts a project's tasks; open covers TODO, IN_PROGRESS and REVIEW.
func CountTasks(tasks []models.Task) TaskCounts {
	c := TaskCounts{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].Status {
		case models.TaskDone:
			c.Completed++
		case models.TaskInProgress:
			c.Open++
			c.InProgress = true
		case models.TaskReview:
			c.Open++
			c.InReview = true
		default:
			c.Open++
		}
	}
	return c
}

// ProjectStats counts a user's projects by task activity.
type ProjectStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// ComputeProjectStats classifies projects by their tasks: a project is active
// while any of its tasks is TODO or IN_PROGRESS, completed otherwise
// (including projects without tasks).
func ComputeProjectStats(projects []models.Project, tasks []models.Task) ProjectStats {
	active := make(map[string]bool)
	for i := range tasks {
		if tasks[i].IsOpen() {
			active[tasks[i].ProjectID] = true
		}
	}
	s := ProjectStats{Total: len(projects)}
	for i := range projects {
		if active[projects[i].ID] {
			s.Active++
		}
	}
	s.Completed = s.Total - s.Active
	return s
}

// StatusCounts tallies projects per declared status.
type StatusCounts struct {
	Active    int `json:"active"`
	OnHold    int `json:"on_hold"`
	Completed int `json:"completed"`
}

// CountProjectStatuses counts projects by their declared status.
func CountProjectStatuses(projects []models.Project) StatusCounts {
	var c StatusCounts
	for i := range projects {
		switch projects[i].Status {
		case models.ProjectActive:
			c.Active++
		case models.ProjectOnHold:
			c.OnHold++
		case models.ProjectCompleted:
			c.Completed++
		}
	}
	return c
}

// DashboardStats is the counter row of the dashboard.
type DashboardStats struct {
	TotalProjects  int `json:"total_projects"`
	PendingTasks   int `json:"pending_tasks"`
	CompletedTasks int `json:"completed_tasks"`
}

// ComputeDashboard takes the actor's projects and the tasks assigned to the actor.
func ComputeDashboard(projects []models.Project, assigned []models.Task) DashboardStats {
	s := DashboardStats{TotalProjects: len(projects)}
	for i := range assigned {
		switch {
		case assigned[i].IsOpen():
			s.PendingTasks++
		case assigned[i].Status == models.TaskDone:
			s.CompletedTasks++
		}
	}
	return s
}

// YearsOfExperience returns whole years since start, or nil without a start date.
func YearsOfExperience(start *time.Time, now time.Time) *int {
	if start == nil {
		return nil
	}
	years := now.Year() - start.Year()
	if now.Month() < start.Month() || (now.Month() == start.Month() && now.Day() < start.Day()) {
		years--
	}
	return &years
}
