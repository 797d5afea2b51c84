package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(ctx context.Context, dsn string) (*SQLDatabase, error) {
	// 尝试多种连接策略来解决无服务器环境的 IPv6 / SSL 问题
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
		dsn, // 最后尝试原始DSN
	}

	var lastErr error
	for i, strategy := range strategies {
		slog.Debug("trying postgres connection strategy", "strategy", i+1)

		db, err := sqlx.Open(dialectPostgres, strategy)
		if err != nil {
			slog.Warn("postgres strategy failed to open", "strategy", i+1, "error", err)
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			slog.Warn("postgres strategy failed to ping", "strategy", i+1, "error", err)
			_ = db.Close()
			lastErr = err
			continue
		}

		slog.Info("postgres connection established", "strategy", i+1)
		return newSQLDatabase(db, dialectPostgres), nil
	}

	return nil, fmt.Errorf("connect to postgres with all strategies: %w", lastErr)
}

// addConnectionParams 添加连接参数到DSN（仅适用于 URL 形式的 DSN）
func addConnectionParams(dsn, params string) string {
	if params == "" || !strings.Contains(dsn, "://") {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}
