package database

import (
	"context"
	"fmt"
	"strings"
)

// schemaStatements is shared by SQLite and PostgreSQL. {{TIMESTAMP}} is
// replaced with the dialect's timestamp type. Foreign keys carry no ON DELETE
// action: cascades are performed explicitly by the Delete* methods.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		created_at    {{TIMESTAMP}} NOT NULL,
		updated_at    {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id               TEXT PRIMARY KEY REFERENCES users(id),
		employee_id           TEXT NOT NULL DEFAULT '',
		avatar_url            TEXT NOT NULL DEFAULT '',
		avatar_key            TEXT NOT NULL DEFAULT '',
		bio                   TEXT NOT NULL DEFAULT '',
		user_type             TEXT NOT NULL DEFAULT 'JUNIOR',
		employment_type       TEXT NOT NULL DEFAULT 'FULL_TIME',
		job_title             TEXT NOT NULL DEFAULT '',
		department            TEXT NOT NULL DEFAULT '',
		team                  TEXT NOT NULL DEFAULT '',
		reporting_to          TEXT REFERENCES users(id),
		start_date            {{TIMESTAMP}},
		work_email            TEXT NOT NULL DEFAULT '',
		work_phone            TEXT NOT NULL DEFAULT '',
		mobile_phone          TEXT NOT NULL DEFAULT '',
		github_username       TEXT NOT NULL DEFAULT '',
		github_profile        TEXT NOT NULL DEFAULT '',
		linkedin_profile      TEXT NOT NULL DEFAULT '',
		personal_website      TEXT NOT NULL DEFAULT '',
		primary_skills        TEXT NOT NULL DEFAULT '',
		secondary_skills      TEXT NOT NULL DEFAULT '',
		timezone              TEXT NOT NULL DEFAULT '',
		theme                 TEXT NOT NULL DEFAULT 'system',
		sidebar_collapsed     BOOLEAN NOT NULL DEFAULT FALSE,
		code_theme            TEXT NOT NULL DEFAULT 'github',
		github_access_token   TEXT NOT NULL DEFAULT '',
		gitlab_access_token   TEXT NOT NULL DEFAULT '',
		jira_access_token     TEXT NOT NULL DEFAULT '',
		email_notifications   BOOLEAN NOT NULL DEFAULT TRUE,
		desktop_notifications BOOLEAN NOT NULL DEFAULT TRUE,
		mention_notifications BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined           {{TIMESTAMP}} NOT NULL,
		last_modified         {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		slug                TEXT NOT NULL UNIQUE,
		description         TEXT NOT NULL DEFAULT '',
		owner_id            TEXT NOT NULL REFERENCES users(id),
		status              TEXT NOT NULL DEFAULT 'PLANNING',
		github_repo         TEXT NOT NULL DEFAULT '',
		github_branch       TEXT NOT NULL DEFAULT 'main',
		github_organization TEXT NOT NULL DEFAULT '',
		github_project_name TEXT NOT NULL DEFAULT '',
		github_access_token TEXT NOT NULL DEFAULT '',
		is_github_connected BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          {{TIMESTAMP}} NOT NULL,
		updated_at          {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_collaborators (
		project_id TEXT NOT NULL REFERENCES projects(id),
		user_id    TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		project_id      TEXT NOT NULL REFERENCES projects(id),
		assigned_to     TEXT REFERENCES users(id),
		priority        TEXT NOT NULL,
		status          TEXT NOT NULL,
		due_date        {{TIMESTAMP}},
		start_date      {{TIMESTAMP}},
		completion_date {{TIMESTAMP}},
		created_at      {{TIMESTAMP}} NOT NULL,
		updated_at      {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT '#000000'
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		project_id TEXT REFERENCES projects(id),
		task_id    TEXT REFERENCES tasks(id),
		created_at {{TIMESTAMP}} NOT NULL,
		updated_at {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS note_tags (
		note_id TEXT NOT NULL REFERENCES notes(id),
		tag_id  TEXT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (note_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS knowledge_base (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		author_id  TEXT REFERENCES users(id),
		created_at {{TIMESTAMP}} NOT NULL,
		updated_at {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS article_tags (
		article_id TEXT NOT NULL REFERENCES knowledge_base(id),
		tag_id     TEXT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (article_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		blob_key    TEXT NOT NULL,
		url         TEXT NOT NULL,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		uploaded_by TEXT REFERENCES users(id),
		uploaded_at {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		sender_id       TEXT NOT NULL REFERENCES users(id),
		recipient_id    TEXT REFERENCES users(id),
		project_id      TEXT REFERENCES projects(id),
		content         TEXT NOT NULL DEFAULT '',
		attachment_key  TEXT NOT NULL DEFAULT '',
		attachment_url  TEXT NOT NULL DEFAULT '',
		attachment_type TEXT NOT NULL DEFAULT '',
		attachment_name TEXT NOT NULL DEFAULT '',
		created_at      {{TIMESTAMP}} NOT NULL,
		is_read         BOOLEAN NOT NULL DEFAULT FALSE,
		CHECK ((recipient_id IS NULL) <> (project_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborators_user ON project_collaborators(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigned ON tasks(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_project ON notes(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_project ON messages(project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_direct ON messages(sender_id, recipient_id, created_at)`,
}

// Schema renders the DDL for a dialect ("postgres" or "sqlite").
func Schema(dialect string) []string {
	timestamp := "TIMESTAMP"
	if dialect == dialectPostgres {
		timestamp = "TIMESTAMPTZ"
	}
	out := make([]string, len(schemaStatements))
	for i, stmt := range schemaStatements {
		out[i] = strings.ReplaceAll(stmt, "{{TIMESTAMP}}", timestamp)
	}
	return out
}

// Migrate 创建所有表与索引（幂等）
func (s *SQLDatabase) Migrate(ctx context.Context) error {
	return s.withTx(ctx, func(tx txExt) error {
		for _, stmt := range Schema(s.dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}

// Tables lists the tables Migrate creates, parents before children.
var Tables = []string{
	"users", "profiles", "projects", "project_collaborators", "tasks", "tags",
	"notes", "note_tags", "knowledge_base", "article_tags", "files", "messages",
}

// TableCounts 返回每张表的行数，用于迁移后的检查
func (s *SQLDatabase) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := get(ctx, s.db, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
