package handler

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"project-hub-backend/pkg/config"
	"project-hub-backend/pkg/database"
	"project-hub-backend/pkg/handlers"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// 同一实例在热启动之间复用路由器（限流器状态保存在其中）
var (
	routerMu     sync.Mutex
	cachedRouter http.Handler
	cachedDB     database.DatabaseInterface
	blobStore    storage.BlobStore
)

// Handler 是Vercel函数的入口点
// 这个函数实现了"单体路由模式"，将所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	// 加载配置
	cfg := config.GetCached()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	router, err := routerFor(r, cfg)
	if err != nil {
		slog.Error("failed to initialise request handler", "error", err)
		utils.WriteInternalServerErrorResponse(w, "Service temporarily unavailable")
		return
	}

	// 将请求传递给Chi路由器处理
	router.ServeHTTP(w, r)
}

// routerFor 获取池化的数据库连接，连接被替换时重建路由器
func routerFor(r *http.Request, cfg *config.Config) (http.Handler, error) {
	ctx := r.Context()
	database.CleanupIdleConnections()
	db, err := database.GetDatabase(ctx, database.DatabaseConfig{
		UseLocalDB:  cfg.UseLocalDB,
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
		AutoMigrate: cfg.AutoMigrate,
	})
	if err != nil {
		return nil, err
	}

	routerMu.Lock()
	defer routerMu.Unlock()
	if cachedRouter != nil && cachedDB == db {
		return cachedRouter, nil
	}
	if blobStore == nil {
		blobStore, err = storage.NewBlobStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	logger := utils.NewLogger(os.Stdout, logLevel(cfg), cfg.IsProduction())
	cachedRouter = handlers.NewRouter(handlers.NewDeps(cfg, db, blobStore, logger))
	cachedDB = db
	return cachedRouter, nil
}

func logLevel(cfg *config.Config) string {
	if cfg.Debug {
		return "debug"
	}
	return cfg.LogLevel
}
