package middleware

import (
	"net/http"
	"slices"

	"project-hub-backend/pkg/config"

	"github.com/go-chi/cors"
)

// CORS 创建CORS中间件
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Retry-After",
		},
		MaxAge: 300, // 5分钟
	}

	// 通配符来源不能携带凭据；开发环境允许所有来源
	if cfg.IsDevelopment() || len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		corsOptions.AllowedOrigins = []string{"*"}
	} else {
		corsOptions.AllowCredentials = true
	}

	return cors.Handler(corsOptions)
}
