package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"project-hub-backend/pkg/models"
)

// DatabaseInterface 定义数据库访问接口
//
// Get* methods return an error wrapping errs.ErrNotFound when nothing
// matches; uniqueness violations come back as errs.ErrInvalidInput.
// Delete methods walk the ownership graph in one transaction and return the
// blob keys that are no longer referenced so callers can remove them.
type DatabaseInterface interface {
	// 用户管理（创建用户时同时创建个人资料）
	CreateUser(ctx context.Context, user *models.User) (*models.Profile, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) ([]string, error)

	// 个人资料与设置
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdateAccount(ctx context.Context, user *models.User, profile *models.Profile) error

	// 项目（slug 创建后不可修改）
	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	SetProjectCollaborators(ctx context.Context, projectID string, userIDs []string) error
	DeleteProject(ctx context.Context, id string) ([]string, error)

	// 任务
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	ListTasksByProjects(ctx context.Context, projectIDs []string) ([]models.Task, error)
	ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error)
	ListAssignedTasks(ctx context.Context, userID string) ([]models.Task, error)

	// 笔记
	CreateNote(ctx context.Context, note *models.Note, tagIDs []string) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note, tagIDs []string) error
	DeleteNote(ctx context.Context, id string) error
	ListNotesByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	ListNotesByProject(ctx context.Context, projectID string) ([]models.Note, error)

	// 标签
	CreateTag(ctx context.Context, tag *models.Tag) error
	ListTags(ctx context.Context) ([]models.Tag, error)

	// 知识库
	CreateArticle(ctx context.Context, article *models.KnowledgeBase, tagIDs []string) error
	GetArticle(ctx context.Context, id string) (*models.KnowledgeBase, error)
	UpdateArticle(ctx context.Context, article *models.KnowledgeBase, tagIDs []string) error
	DeleteArticle(ctx context.Context, id string) error
	ListArticles(ctx context.Context, query string) ([]models.KnowledgeBase, error)

	// 项目文件
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	ListFilesByProject(ctx context.Context, projectID string) ([]models.File, error)
	DeleteFile(ctx context.Context, id string) error

	// 消息（按创建时间升序，不分页）
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListDirectMessages(ctx context.Context, userA, userB string) ([]models.Message, error)
	ListProjectMessages(ctx context.Context, projectID string) ([]models.Message, error)
	ListUserDirectMessages(ctx context.Context, userID string) ([]models.Message, error)

	// 全局搜索（仅限用户可见的记录）
	Search(ctx context.Context, userID, query string) (*models.SearchResults, error)

	// 建表
	Migrate(ctx context.Context) error
	TableCounts(ctx context.Context) (map[string]int, error)

	// 健康检查
	HealthCheck(ctx context.Context) error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	UseLocalDB  bool
	SQLitePath  string
	PostgresDSN string
	AutoMigrate bool // 连接后执行 Migrate
}

// NewDatabase 根据配置选择数据库实现：USE_LOCAL_DB 使用 SQLite，否则使用 PostgreSQL
func NewDatabase(ctx context.Context, config DatabaseConfig) (DatabaseInterface, error) {
	if !config.UseLocalDB {
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("no valid database configuration found, set POSTGRES_DSN or USE_LOCAL_DB")
		}
		slog.Info("using PostgreSQL database")
		db, err := NewPostgresDatabase(ctx, config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return migrateIfRequested(ctx, db, config)
	}

	if IsServerlessEnvironment() {
		// 无服务器环境的文件系统是临时的，数据不会保留
		slog.Warn("using SQLite in a serverless environment, data will not persist", "path", config.SQLitePath)
	}
	slog.Info("using local SQLite database", "path", config.SQLitePath)
	db, err := NewSQLiteDatabase(ctx, config.SQLitePath)
	if err != nil {
		return nil, err
	}
	return migrateIfRequested(ctx, db, config)
}

func migrateIfRequested(ctx context.Context, db *SQLDatabase, config DatabaseConfig) (DatabaseInterface, error) {
	if config.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// IsServerlessEnvironment 检查是否运行在 Vercel / Lambda 等无服务器环境
func IsServerlessEnvironment() bool {
	return os.Getenv("VERCEL_ENV") != "" || os.Getenv("VERCEL_URL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
