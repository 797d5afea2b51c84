package database

import (
	"context"
	"fmt"
	"slices"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var projectColumns = []string{
	"id", "title", "slug", "description", "owner_id", "status",
	"github_repo", "github_branch", "github_organization", "github_project_name",
	"github_access_token", "is_github_connected", "created_at", "updated_at",
}

// CreateProject 创建项目并写入协作者
func (s *SQLDatabase) CreateProject(ctx context.Context, project *models.Project) error {
	now := s.now()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Slug == "" {
		project.Slug = models.NewSlug(project.Title)
	}
	if project.Status == "" {
		project.Status = models.ProjectPlanning
	}
	if project.GitHubBranch == "" {
		project.GitHubBranch = "main"
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	return s.withTx(ctx, func(tx txExt) error {
		if err := namedExec(ctx, tx, insertQuery("projects", projectColumns), project); err != nil {
			return translateError(err, "project", project.Slug)
		}
		return replaceCollaborators(ctx, tx, project)
	})
}

// GetProjectByID 根据ID获取项目
func (s *SQLDatabase) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return s.getProject(ctx, "id", id)
}

// GetProjectBySlug 根据 slug 获取项目
func (s *SQLDatabase) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return s.getProject(ctx, "slug", slug)
}

func (s *SQLDatabase) getProject(ctx context.Context, column, value string) (*models.Project, error) {
	var p models.Project
	err := get(ctx, s.db, &p, "SELECT "+columns(projectColumns)+" FROM projects WHERE "+column+" = ?", value)
	if err != nil {
		return nil, translateError(err, "project", value)
	}
	projects := []models.Project{p}
	if err := loadCollaborators(ctx, s.db, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// ListProjectsForUser returns projects the user owns or collaborates on, most recently updated first.
func (s *SQLDatabase) ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	out := []models.Project{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(projectColumns)+` FROM projects
		WHERE owner_id = ? OR id IN (SELECT project_id FROM project_collaborators WHERE user_id = ?)
		ORDER BY updated_at DESC, id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if err := loadCollaborators(ctx, s.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProject 更新项目字段并替换协作者集合（slug 保持不变）
func (s *SQLDatabase) UpdateProject(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = s.now()
	cols := []string{
		"title", "description", "status",
		"github_repo", "github_branch", "github_organization", "github_project_name",
		"github_access_token", "is_github_connected", "updated_at",
	}
	return s.withTx(ctx, func(tx txExt) error {
		n, err := namedExecCount(ctx, tx, updateQuery("projects", cols, "id"), project)
		if err != nil {
			return translateError(err, "project", project.Slug)
		}
		if err := affectedOrNotFound(n, "project", project.Slug); err != nil {
			return err
		}
		return replaceCollaborators(ctx, tx, project)
	})
}

// SetProjectCollaborators 替换项目的协作者集合
func (s *SQLDatabase) SetProjectCollaborators(ctx context.Context, projectID string, userIDs []string) error {
	return s.withTx(ctx, func(tx txExt) error {
		var p models.Project
		err := get(ctx, tx, &p, "SELECT "+columns(projectColumns)+" FROM projects WHERE id = ?", projectID)
		if err != nil {
			return translateError(err, "project", projectID)
		}
		p.CollaboratorIDs = userIDs
		return replaceCollaborators(ctx, tx, &p)
	})
}

// DeleteProject 删除项目及其任务、文件、笔记与消息，返回需要清理的 blob key
func (s *SQLDatabase) DeleteProject(ctx context.Context, id string) ([]string, error) {
	var keys []string
	err := s.withTx(ctx, func(tx txExt) error {
		var err error
		keys, err = deleteProjectTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func deleteProjectTx(ctx context.Context, tx txExt, id string) ([]string, error) {
	var keys []string

	steps := []string{
		"UPDATE notes SET task_id = NULL WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)",
		"DELETE FROM note_tags WHERE note_id IN (SELECT id FROM notes WHERE project_id = ?)",
		"DELETE FROM notes WHERE project_id = ?",
	}
	for _, stmt := range steps {
		if _, err := exec(ctx, tx, stmt, id); err != nil {
			return nil, fmt.Errorf("delete project notes: %w", err)
		}
	}

	var attachments []string
	if err := sel(ctx, tx, &attachments,
		"SELECT attachment_key FROM messages WHERE project_id = ? AND attachment_key <> ''", id); err != nil {
		return nil, fmt.Errorf("list project attachments: %w", err)
	}
	keys = append(keys, attachments...)
	if _, err := exec(ctx, tx, "DELETE FROM messages WHERE project_id = ?", id); err != nil {
		return nil, fmt.Errorf("delete project messages: %w", err)
	}

	var blobs []string
	if err := sel(ctx, tx, &blobs, "SELECT blob_key FROM files WHERE project_id = ?", id); err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}
	keys = append(keys, blobs...)

	steps = []string{
		"DELETE FROM files WHERE project_id = ?",
		"DELETE FROM tasks WHERE project_id = ?",
		"DELETE FROM project_collaborators WHERE project_id = ?",
	}
	for _, stmt := range steps {
		if _, err := exec(ctx, tx, stmt, id); err != nil {
			return nil, fmt.Errorf("delete project children: %w", err)
		}
	}

	n, err := exec(ctx, tx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	if err := affectedOrNotFound(n, "project", id); err != nil {
		return nil, err
	}
	return keys, nil
}

// replaceCollaborators rewrites the collaborator rows of p. The owner is never
// stored as a collaborator and duplicates collapse.
func replaceCollaborators(ctx context.Context, tx txExt, p *models.Project) error {
	if _, err := exec(ctx, tx, "DELETE FROM project_collaborators WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("clear collaborators: %w", err)
	}
	ids := make([]string, 0, len(p.CollaboratorIDs))
	for _, id := range p.CollaboratorIDs {
		if id != p.OwnerID && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, err := exec(ctx, tx,
			"INSERT INTO project_collaborators (project_id, user_id) VALUES (?, ?)", p.ID, id); err != nil {
			return translateError(err, "collaborator", id)
		}
	}
	p.CollaboratorIDs = ids
	return nil
}

type collaboratorRow struct {
	ProjectID string `db:"project_id"`
	UserID    string `db:"user_id"`
}

func loadCollaborators(ctx context.Context, q txExt, projects []models.Project) error {
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		projects[i].CollaboratorIDs = []string{}
	}
	var rows []collaboratorRow
	err := selectIn(ctx, q, &rows,
		"SELECT project_id, user_id FROM project_collaborators WHERE project_id IN (?) ORDER BY user_id", ids)
	if err != nil {
		return fmt.Errorf("load collaborators: %w", err)
	}
	byProject := make(map[string][]string, len(projects))
	for _, r := range rows {
		byProject[r.ProjectID] = append(byProject[r.ProjectID], r.UserID)
	}
	for i := range projects {
		if c, ok := byProject[projects[i].ID]; ok {
			projects[i].CollaboratorIDs = c
		}
	}
	return nil
}
