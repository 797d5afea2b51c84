package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/stats"
	"project-hub-backend/pkg/utils"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	*Deps
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(d *Deps) *ProjectHandler {
	return &ProjectHandler{Deps: d}
}

// taskView is a task as rendered in project and task listings.
type taskView struct {
	models.Task
	DurationDisplay string `json:"duration_display"`
}

func (d *Deps) taskViews(tasks []models.Task) []taskView {
	now := d.now()
	out := make([]taskView, len(tasks))
	for i := range tasks {
		out[i] = taskView{Task: tasks[i], DurationDisplay: stats.TaskDuration(&tasks[i], now)}
	}
	return out
}

// projectBySlug loads the project named in the URL and checks action on it.
func (d *Deps) projectBySlug(r *http.Request, action access.Action) (*models.Project, error) {
	project, err := d.DB.GetProjectBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		return nil, err
	}
	if err := checked("project", access.Project(actorID(r), project, action)); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects 列出当前用户拥有或参与的项目
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.DB.ListProjectsForUser(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]any{
		"projects": projects,
		"total":    len(projects),
		"counts":   stats.CountProjectStatuses(projects),
	})
}

// CreateProject 创建项目，当前用户为所有者
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectCreateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	if err := h.ensureUsersExist(ctx, req.CollaboratorIDs); err != nil {
		h.fail(w, r, err)
		return
	}

	project := &models.Project{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		OwnerID:         actorID(r),
		Status:          req.Status,
		GitHubRepo:      req.GitHubRepo,
		CollaboratorIDs: req.CollaboratorIDs,
	}
	if err := h.DB.CreateProject(ctx, project); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("project created", "project_id", project.ID, "slug", project.Slug, "owner_id", project.OwnerID)
	utils.WriteCreatedResponse(w, project)
}

// GetProject 项目详情：任务、文件、协作者、笔记以及进度统计
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectBySlug(r, access.View)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	uid := actorID(r)
	tasks, err := h.DB.ListTasksByProject(ctx, project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	files, err := h.DB.ListFilesByProject(ctx, project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	projectNotes, err := h.DB.ListNotesByProject(ctx, project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// 笔记只对作者可见
	notes := make([]models.Note, 0, len(projectNotes))
	for _, n := range projectNotes {
		if n.OwnerID == uid {
			notes = append(notes, n)
		}
	}
	collaborators, err := h.summaries(ctx, project.CollaboratorIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	owner, err := h.summaries(ctx, []string{project.OwnerID})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	counts := stats.CountTasks(tasks)
	detail := map[string]any{
		"project":               project,
		"collaborators":         collaborators,
		"tasks":                 h.taskViews(tasks),
		"files":                 files,
		"notes":                 notes,
		"completion_percentage": stats.CompletionPercentage(tasks),
		"days_remaining":        stats.DaysRemaining(tasks, h.now()),
		"tasks_count":           counts.Total,
		"open_tasks_count":      counts.Open,
		"completed_tasks_count": counts.Completed,
		"tasks_in_progress":     counts.InProgress,
		"tasks_in_review":       counts.InReview,
		"files_count":           len(files),
		"notes_count":           len(notes),
		"collaborators_count":   len(project.CollaboratorIDs) + 1,
		"is_owner":              access.IsProjectOwner(uid, project),
	}
	if len(owner) == 1 {
		detail["owner"] = owner[0]
	}
	utils.WriteSuccessResponse(w, detail)
}

// UpdateProject 更新项目（仅所有者）
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectUpdateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.projectBySlug(r, access.Update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	// collaborator_ids 省略时保持不变
	if req.CollaboratorIDs != nil {
		if err := h.ensureUsersExist(ctx, req.CollaboratorIDs); err != nil {
			h.fail(w, r, err)
			return
		}
		project.CollaboratorIDs = req.CollaboratorIDs
	}

	project.Title = strings.TrimSpace(req.Title)
	project.Description = req.Description
	project.Status = req.Status
	project.GitHubRepo = req.GitHubRepo
	if err := h.DB.UpdateProject(ctx, project); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, project)
}

// DeleteProject 删除项目及其所有任务、文件、笔记和消息（仅所有者）
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectBySlug(r, access.Delete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	keys, err := h.DB.DeleteProject(ctx, project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.removeBlobs(ctx, keys)
	h.Logger.Info("project deleted", "project_id", project.ID, "blobs", len(keys))
	w.WriteHeader(http.StatusNoContent)
}

// SetCollaborators 替换协作者集合（仅所有者）
func (h *ProjectHandler) SetCollaborators(w http.ResponseWriter, r *http.Request) {
	var req models.CollaboratorsRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.projectBySlug(r, access.Manage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	if err := h.ensureUsersExist(ctx, req.UserIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.DB.SetProjectCollaborators(ctx, project.ID, req.UserIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err = h.DB.GetProjectByID(ctx, project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, project)
}

// ConnectGitHub 关联 GitHub 仓库（仅所有者）
func (h *ProjectHandler) ConnectGitHub(w http.ResponseWriter, r *http.Request) {
	var req models.GitHubConnectRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.projectBySlug(r, access.ConnectGitHub)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	project.GitHubRepo = req.Repo
	project.GitHubAccessToken = req.AccessToken
	project.GitHubBranch = req.Branch
	if project.GitHubBranch == "" {
		project.GitHubBranch = "main"
	}
	project.GitHubOrganization = req.Organization
	project.GitHubProjectName = req.ProjectName
	project.IsGitHubConnected = true
	if err := h.DB.UpdateProject(r.Context(), project); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, project)
}
