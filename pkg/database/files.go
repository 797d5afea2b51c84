package database

import (
	"context"
	"fmt"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var fileColumns = []string{"id", "name", "blob_key", "url", "project_id", "uploaded_by", "uploaded_at"}

func (s *SQLDatabase) CreateFile(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	file.UploadedAt = s.now()
	if err := namedExec(ctx, s.db, insertQuery("files", fileColumns), file); err != nil {
		return translateError(err, "file", file.Name)
	}
	return nil
}

func (s *SQLDatabase) GetFile(ctx context.Context, id string) (*models.File, error) {
	var f models.File
	if err := get(ctx, s.db, &f, "SELECT "+columns(fileColumns)+" FROM files WHERE id = ?", id); err != nil {
		return nil, translateError(err, "file", id)
	}
	return &f, nil
}

// ListFilesByProject 按上传时间倒序返回项目文件
func (s *SQLDatabase) ListFilesByProject(ctx context.Context, projectID string) ([]models.File, error) {
	out := []models.File{}
	err := sel(ctx, s.db, &out, "SELECT "+columns(fileColumns)+" FROM files WHERE project_id = ? ORDER BY uploaded_at DESC, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return out, nil
}

// DeleteFile removes the row only; the caller deletes the blob.
func (s *SQLDatabase) DeleteFile(ctx context.Context, id string) error {
	n, err := exec(ctx, s.db, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return affectedOrNotFound(n, "file", id)
}
