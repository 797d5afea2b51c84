package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"project-hub-backend/pkg/config"
	"project-hub-backend/pkg/database"
	customMiddleware "project-hub-backend/pkg/middleware"
	"project-hub-backend/pkg/observability"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// requestTimeout 留出余量，避免超过无服务器函数的时间限制
const requestTimeout = 25 * time.Second

// NewDeps wires the services every handler shares.
func NewDeps(cfg *config.Config, db database.DatabaseInterface, store storage.BlobStore, logger *slog.Logger) *Deps {
	return &Deps{
		Config:    cfg,
		DB:        db,
		Store:     store,
		JWT:       utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Passwords: utils.NewPasswordManager(),
		Logger:    logger,
	}
}

// NewRouter 创建Chi路由器，注册全局中间件和所有API路由
func NewRouter(d *Deps) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, d)
	setupRoutes(router, d)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, d *Deps) {
	cfg := d.Config

	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(customMiddleware.RealIP(cfg.TrustedProxies))
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger(d.Logger))
	router.Use(customMiddleware.Recovery(d.Logger, cfg.IsDevelopment() || cfg.Debug))
	router.Use(customMiddleware.Metrics)

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 限流与请求格式校验
	router.Use(customMiddleware.RateLimitByIP(cfg.RateLimitPerMinute))
	router.Use(customMiddleware.RequireContentType("application/json", "multipart/form-data"))
	router.Use(customMiddleware.MaxBodySize(cfg.MaxUploadBytes))

	// 超时中间件
	router.Use(middleware.Timeout(requestTimeout))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, d *Deps) {
	authHandler := NewAuthHandler(d)
	profileHandler := NewProfileHandler(d)
	projectHandler := NewProjectHandler(d)
	taskHandler := NewTaskHandler(d)
	noteHandler := NewNoteHandler(d)
	tagHandler := NewTagHandler(d)
	knowledgeHandler := NewKnowledgeHandler(d)
	fileHandler := NewFileHandler(d)
	messageHandler := NewMessageHandler(d)
	dashboardHandler := NewDashboardHandler(d)

	// 健康检查与监控
	router.Get("/", authHandler.HealthCheck)
	router.Method(http.MethodGet, "/metrics", observability.Handler())
	// 本地存储的文件
	router.Get("/media/*", fileHandler.ServeMedia)

	// 数据库连接池状态端点（调试用）
	if d.Config.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	router.Route("/api", func(r chi.Router) {
		// 公开路由（不需要认证）
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.AuthMiddleware(d.JWT))
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// 需要认证的路由
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(d.JWT))

			r.Get("/dashboard", dashboardHandler.Dashboard)
			r.Get("/search", dashboardHandler.Search)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/", profileHandler.UpdateProfile)
				r.Delete("/", profileHandler.DeleteAccount)
				r.Post("/picture", profileHandler.UploadPicture)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", profileHandler.GetSettings)
				r.Put("/appearance", profileHandler.UpdateAppearance)
				r.Put("/notifications", profileHandler.UpdateNotifications)
				r.Put("/integrations", profileHandler.UpdateIntegrations)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.ListProjects)
				r.Post("/", projectHandler.CreateProject)
				r.Route("/{slug}", func(r chi.Router) {
					r.Get("/", projectHandler.GetProject)
					r.Put("/", projectHandler.UpdateProject)
					r.Delete("/", projectHandler.DeleteProject)
					r.Put("/collaborators", projectHandler.SetCollaborators)
					r.Post("/github", projectHandler.ConnectGitHub)
					r.Get("/files", fileHandler.ListFiles)
					r.Post("/files", fileHandler.UploadFile)
				})
			})
			r.Delete("/files/{id}", fileHandler.DeleteFile)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Get("/{id}", taskHandler.GetTask)
				r.Put("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", noteHandler.ListNotes)
				r.Post("/", noteHandler.CreateNote)
				r.Get("/{id}", noteHandler.GetNote)
				r.Put("/{id}", noteHandler.UpdateNote)
				r.Delete("/{id}", noteHandler.DeleteNote)
			})

			r.Get("/tags", tagHandler.ListTags)
			r.Post("/tags", tagHandler.CreateTag)

			r.Route("/knowledge", func(r chi.Router) {
				r.Get("/", knowledgeHandler.ListArticles)
				r.Post("/", knowledgeHandler.CreateArticle)
				r.Get("/{id}", knowledgeHandler.GetArticle)
				r.Put("/{id}", knowledgeHandler.UpdateArticle)
				r.Delete("/{id}", knowledgeHandler.DeleteArticle)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", messageHandler.ListConversations)
				r.Post("/", messageHandler.SendMessage)
				r.Get("/direct/{userID}", messageHandler.DirectConversation)
				r.Get("/project/{slug}", messageHandler.ProjectConversation)
			})
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
