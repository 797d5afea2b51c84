package database

import (
	"context"
	"fmt"
	"strings"

	"project-hub-backend/pkg/models"
)

const searchLimit = 20

// Search matches query against the records the user can see: projects they
// own or collaborate on, tasks of owned projects or assigned to them, their
// own notes and every knowledge base article.
func (s *SQLDatabase) Search(ctx context.Context, userID, query string) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	res := &models.SearchResults{
		Query:    query,
		Projects: []models.Project{},
		Tasks:    []models.Task{},
		Notes:    []models.Note{},
		Articles: []models.KnowledgeBase{},
	}
	if query == "" {
		return res, nil
	}
	pattern := likePattern(query)
	limit := fmt.Sprintf(" LIMIT %d", searchLimit)

	err := sel(ctx, s.db, &res.Projects, "SELECT "+columns(projectColumns)+` FROM projects
		WHERE (owner_id = ? OR id IN (SELECT project_id FROM project_collaborators WHERE user_id = ?))
		AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')
		ORDER BY updated_at DESC, id`+limit, userID, userID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	if err := loadCollaborators(ctx, s.db, res.Projects); err != nil {
		return nil, err
	}

	err = sel(ctx, s.db, &res.Tasks, "SELECT "+columns(taskColumns)+` FROM tasks
		WHERE (assigned_to = ? OR project_id IN (SELECT id FROM projects WHERE owner_id = ?))
		AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')
		ORDER BY updated_at DESC, id`+limit, userID, userID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}

	err = sel(ctx, s.db, &res.Notes, "SELECT "+columns(noteColumns)+` FROM notes
		WHERE owner_id = ? AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')
		ORDER BY updated_at DESC, id`+limit, userID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	if err := s.attachNoteTags(ctx, res.Notes); err != nil {
		return nil, err
	}

	err = sel(ctx, s.db, &res.Articles, "SELECT "+columns(articleColumns)+` FROM knowledge_base
		WHERE LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC, id`+limit, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	if err := s.attachArticleTags(ctx, res.Articles); err != nil {
		return nil, err
	}
	return res, nil
}
