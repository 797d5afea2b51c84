package database

import (
	"context"
	"fmt"

	"project-hub-backend/pkg/models"

	"github.com/google/uuid"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "created_at", "updated_at",
}

var profileColumns = []string{
	"user_id", "employee_id", "avatar_url", "avatar_key", "bio", "user_type", "employment_type",
	"job_title", "department", "team", "reporting_to", "start_date",
	"work_email", "work_phone", "mobile_phone",
	"github_username", "github_profile", "linkedin_profile", "personal_website",
	"primary_skills", "secondary_skills", "timezone",
	"theme", "sidebar_collapsed", "code_theme",
	"github_access_token", "gitlab_access_token", "jira_access_token",
	"email_notifications", "desktop_notifications", "mention_notifications",
	"date_joined", "last_modified",
}

// CreateUser 创建用户及其个人资料
func (s *SQLDatabase) CreateUser(ctx context.Context, user *models.User) (*models.Profile, error) {
	now := s.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	profile := models.NewProfile(user.ID, now)

	err := s.withTx(ctx, func(tx txExt) error {
		if err := namedExec(ctx, tx, insertQuery("users", userColumns), user); err != nil {
			return translateError(err, "user", user.Username)
		}
		if err := namedExec(ctx, tx, insertQuery("profiles", profileColumns), profile); err != nil {
			return translateError(err, "profile", user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetUserByID 根据ID获取用户
func (s *SQLDatabase) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := get(ctx, s.db, &u, "SELECT "+columns(userColumns)+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, translateError(err, "user", id)
	}
	return &u, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *SQLDatabase) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := get(ctx, s.db, &u, "SELECT "+columns(userColumns)+" FROM users WHERE username = ?", username)
	if err != nil {
		return nil, translateError(err, "user", username)
	}
	return &u, nil
}

// ListUsersByIDs returns the users that exist among ids, ordered by username.
func (s *SQLDatabase) ListUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	err := selectIn(ctx, s.db, &out,
		"SELECT "+columns(userColumns)+" FROM users WHERE id IN (?) ORDER BY username", ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// UpdateAccount 在同一事务中更新用户和个人资料
func (s *SQLDatabase) UpdateAccount(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.withTx(ctx, func(tx txExt) error {
		if err := s.updateUser(ctx, tx, user); err != nil {
			return err
		}
		return s.updateProfile(ctx, tx, profile)
	})
}

func (s *SQLDatabase) updateUser(ctx context.Context, q txExt, user *models.User) error {
	user.UpdatedAt = s.now()
	n, err := namedExecCount(ctx, q, updateQuery("users",
		[]string{"username", "email", "password_hash", "first_name", "last_name", "updated_at"}, "id"), user)
	if err != nil {
		return translateError(err, "user", user.Username)
	}
	return affectedOrNotFound(n, "user", user.ID)
}

// DeleteUser 删除用户及其拥有的全部数据，返回需要清理的 blob key
func (s *SQLDatabase) DeleteUser(ctx context.Context, id string) ([]string, error) {
	var keys []string
	err := s.withTx(ctx, func(tx txExt) error {
		var owned []string
		if err := sel(ctx, tx, &owned, "SELECT id FROM projects WHERE owner_id = ?", id); err != nil {
			return fmt.Errorf("list owned projects: %w", err)
		}
		for _, projectID := range owned {
			projectKeys, err := deleteProjectTx(ctx, tx, projectID)
			if err != nil {
				return err
			}
			keys = append(keys, projectKeys...)
		}

		if _, err := exec(ctx, tx,
			"DELETE FROM note_tags WHERE note_id IN (SELECT id FROM notes WHERE owner_id = ?)", id); err != nil {
			return fmt.Errorf("delete note tags: %w", err)
		}
		if _, err := exec(ctx, tx, "DELETE FROM notes WHERE owner_id = ?", id); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}

		var attachments []string
		if err := sel(ctx, tx, &attachments,
			"SELECT attachment_key FROM messages WHERE (sender_id = ? OR recipient_id = ?) AND attachment_key <> ''", id, id); err != nil {
			return fmt.Errorf("list message attachments: %w", err)
		}
		keys = append(keys, attachments...)
		if _, err := exec(ctx, tx, "DELETE FROM messages WHERE sender_id = ? OR recipient_id = ?", id, id); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}

		nulls := []string{
			"DELETE FROM project_collaborators WHERE user_id = ?",
			"UPDATE tasks SET assigned_to = NULL WHERE assigned_to = ?",
			"UPDATE knowledge_base SET author_id = NULL WHERE author_id = ?",
			"UPDATE files SET uploaded_by = NULL WHERE uploaded_by = ?",
			"UPDATE profiles SET reporting_to = NULL WHERE reporting_to = ?",
		}
		for _, stmt := range nulls {
			if _, err := exec(ctx, tx, stmt, id); err != nil {
				return fmt.Errorf("detach user: %w", err)
			}
		}

		var avatar string
		if err := get(ctx, tx, &avatar, "SELECT avatar_key FROM profiles WHERE user_id = ?", id); err == nil && avatar != "" {
			keys = append(keys, avatar)
		}
		if _, err := exec(ctx, tx, "DELETE FROM profiles WHERE user_id = ?", id); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		n, err := exec(ctx, tx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return affectedOrNotFound(n, "user", id)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// GetProfile 获取个人资料
func (s *SQLDatabase) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := get(ctx, s.db, &p, "SELECT "+columns(profileColumns)+" FROM profiles WHERE user_id = ?", userID)
	if err != nil {
		return nil, translateError(err, "profile", userID)
	}
	return &p, nil
}

// UpdateProfile 更新个人资料（date_joined 不可修改）
func (s *SQLDatabase) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return s.updateProfile(ctx, s.db, profile)
}

func (s *SQLDatabase) updateProfile(ctx context.Context, q txExt, profile *models.Profile) error {
	profile.LastModified = s.now()
	profile.StartDate = utc(profile.StartDate)
	cols := make([]string, 0, len(profileColumns))
	for _, c := range profileColumns {
		if c != "user_id" && c != "date_joined" {
			cols = append(cols, c)
		}
	}
	n, err := namedExecCount(ctx, q, updateQuery("profiles", cols, "user_id"), profile)
	if err != nil {
		return translateError(err, "profile", profile.UserID)
	}
	return affectedOrNotFound(n, "profile", profile.UserID)
}
