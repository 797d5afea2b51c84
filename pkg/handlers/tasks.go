package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/utils"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	*Deps
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(d *Deps) *TaskHandler {
	return &TaskHandler{Deps: d}
}

// ListTasks 列出分配给当前用户或属于其项目的任务
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.DB.ListTasksForUser(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, h.taskViews(tasks), len(tasks))
}

// CreateTask 在项目中创建任务（项目成员）
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskCreateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	project, err := h.DB.GetProjectByID(ctx, req.ProjectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checked("task", access.Task(actorID(r), nil, project, access.Create)); err != nil {
		h.fail(w, r, err)
		return
	}
	assignee := optionalID(req.AssignedTo)
	if assignee != nil {
		if err := h.ensureUsersExist(ctx, []string{*assignee}); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	task := &models.Task{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		ProjectID:      project.ID,
		AssignedTo:     assignee,
		Priority:       req.Priority,
		Status:         req.Status,
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		CompletionDate: req.CompletionDate,
	}
	if err := h.DB.CreateTask(ctx, task); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, h.taskViews([]models.Task{*task})[0])
}

// load fetches the task in the URL together with its project and checks action.
func (h *TaskHandler) load(r *http.Request, action access.Action) (*models.Task, *models.Project, error) {
	ctx := r.Context()
	task, err := h.DB.GetTask(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	project, err := h.DB.GetProjectByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := checked("task", access.Task(actorID(r), task, project, action)); err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

// GetTask 任务详情（项目所有者或被分配人）
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, project, err := h.load(r, access.View)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]any{
		"task":    h.taskViews([]models.Task{*task})[0],
		"project": project,
	})
}

// UpdateTask 更新任务（项目所有者或被分配人）
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskUpdateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	task, _, err := h.load(r, access.Update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	assignee := optionalID(req.AssignedTo)
	if assignee != nil {
		if err := h.ensureUsersExist(ctx, []string{*assignee}); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.AssignedTo = assignee
	task.Priority = req.Priority
	task.Status = req.Status
	task.DueDate = req.DueDate
	task.StartDate = req.StartDate
	task.CompletionDate = req.CompletionDate
	if err := h.DB.UpdateTask(ctx, task); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, h.taskViews([]models.Task{*task})[0])
}

// DeleteTask 删除任务（仅项目所有者），关联笔记解除绑定
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, _, err := h.load(r, access.Delete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.DB.DeleteTask(r.Context(), task.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
