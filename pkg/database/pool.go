package database

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DatabasePool 数据库连接池（无服务器环境下跨调用复用连接）
type DatabasePool struct {
	instance DatabaseInterface
	config   DatabaseConfig
	mu       sync.RWMutex
	lastUsed time.Time
}

var (
	globalPool *DatabasePool
	poolMutex  sync.Mutex
)

const (
	poolMaxAge  = 30 * time.Minute
	poolMaxIdle = 10 * time.Minute
)

// GetDatabase 获取数据库连接（单例模式 + 连接池）
func GetDatabase(ctx context.Context, config DatabaseConfig) (DatabaseInterface, error) {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	// 检查是否需要创建新的连接池
	if globalPool == nil || shouldRecreateConnection(ctx, globalPool, config) {
		slog.Debug("creating new database connection pool")

		// 关闭旧连接（如果存在）
		if globalPool != nil && globalPool.instance != nil {
			_ = globalPool.instance.Close()
			globalPool = nil
		}

		instance, err := NewDatabase(ctx, config)
		if err != nil {
			return nil, err
		}
		globalPool = &DatabasePool{
			instance: instance,
			config:   config,
			lastUsed: time.Now(),
		}
	} else {
		// 更新最后使用时间
		globalPool.mu.Lock()
		globalPool.lastUsed = time.Now()
		globalPool.mu.Unlock()
	}

	return globalPool.instance, nil
}

// shouldRecreateConnection 判断是否需要重新创建连接
func shouldRecreateConnection(ctx context.Context, pool *DatabasePool, newConfig DatabaseConfig) bool {
	if pool == nil || pool.instance == nil {
		return true
	}

	// 检查配置是否发生变化
	if pool.config != newConfig {
		slog.Info("database configuration changed, recreating connection")
		return true
	}

	// 检查连接是否过期
	pool.mu.RLock()
	expired := time.Since(pool.lastUsed) > poolMaxAge
	pool.mu.RUnlock()

	if expired {
		slog.Info("database connection expired, recreating")
		return true
	}

	// 检查连接健康状态
	if err := pool.instance.HealthCheck(ctx); err != nil {
		slog.Warn("database health check failed, recreating", "error", err)
		return true
	}

	return false
}

// CleanupIdleConnections 清理空闲连接（可以在后台定期调用）
func CleanupIdleConnections() {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil {
		return
	}

	globalPool.mu.RLock()
	idle := time.Since(globalPool.lastUsed) > poolMaxIdle
	globalPool.mu.RUnlock()

	if idle {
		slog.Info("closing idle database connection")
		if globalPool.instance != nil {
			_ = globalPool.instance.Close()
		}
		globalPool = nil
	}
}

// GetConnectionStats 获取连接池统计信息
func GetConnectionStats() map[string]any {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil {
		return map[string]any{
			"status":    "no_connection",
			"last_used": nil,
		}
	}

	globalPool.mu.RLock()
	lastUsed := globalPool.lastUsed
	globalPool.mu.RUnlock()

	return map[string]any{
		"status":    "connected",
		"last_used": lastUsed.Format(time.RFC3339),
		"idle":      time.Since(lastUsed).String(),
		"config": map[string]any{
			"use_local_db": globalPool.config.UseLocalDB,
			"has_postgres": globalPool.config.PostgresDSN != "",
		},
	}
}
