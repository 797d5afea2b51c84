package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string
	LogLevel    string

	// 数据库配置
	UseLocalDB  bool
	SQLitePath  string
	PostgresDSN string
	AutoMigrate bool

	// JWT配置
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// 文件存储配置
	StorageBackend     string // "local" or "gcs"
	MediaRoot          string
	MediaBaseURL       string
	GCSBucket          string
	GCSCredentialsFile string
	MaxUploadBytes     int64

	// 限流配置
	RateLimitPerMinute int
	// 只有来自这些网段的请求才采信 X-Forwarded-For
	TrustedProxies []netip.Prefix
	proxyErr       error

	// CORS配置
	AllowedOrigins []string

	// 调试配置
	Debug bool
}

// LoadConfig 加载配置（环境变量优先，其次是 .env 文件）
func LoadConfig() *Config {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development" // 默认开发环境
	}

	// 按优先级加载环境文件；godotenv 不会覆盖已存在的环境变量
	switch env {
	case "production":
		loadEnvFile(".env.production")
	default:
		loadEnvFile(".env.local")
	}
	loadEnvFile(".env")

	config := &Config{
		Environment:        getEnvWithDefault("ENVIRONMENT", "development"),
		Port:               getEnvWithDefault("PORT", "3000"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		UseLocalDB:         getEnvBool("USE_LOCAL_DB", true),
		SQLitePath:         getEnvWithDefault("SQLITE_PATH", "data/projecthub.db"),
		AutoMigrate:        getEnvBool("AUTO_MIGRATE", true),
		JWTSecret:          getEnvWithDefault("JWT_SECRET", defaultJWTSecret),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		StorageBackend:     getEnvWithDefault("STORAGE_BACKEND", "local"),
		MediaRoot:          getEnvWithDefault("MEDIA_ROOT", "media"),
		MediaBaseURL:       getEnvWithDefault("MEDIA_BASE_URL", "/media"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 25)) << 20,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		Debug:              getEnvBool("DEBUG", false),
	}

	// Trim whitespace to avoid trailing spaces/newlines from env sources
	config.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	config.GCSBucket = strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	config.GCSCredentialsFile = strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE"))
	config.TrustedProxies, config.proxyErr = parseProxies(os.Getenv("TRUSTED_PROXIES"))

	// CORS配置
	allowedOrigins := getEnvWithDefault("ALLOWED_ORIGINS", "*")
	if allowedOrigins == "*" {
		config.AllowedOrigins = []string{"*"}
	} else {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}

	// 环境特定配置
	if config.Environment == "production" {
		// 生产环境配置了 PostgreSQL 时强制使用
		if config.PostgresDSN != "" {
			config.UseLocalDB = false
		} else {
			slog.Warn("production environment is using the local SQLite database, configure POSTGRES_DSN")
		}
		// 生产环境关闭调试
		config.Debug = false
	}

	return config
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
// On serverless (Vercel), it initializes once per cold start and
// reuses it across warm invocations, avoiding per-request parsing.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// 验证JWT密钥
	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		slog.Warn("using the default JWT secret, not suitable for production")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	// 验证数据库配置
	if !c.UseLocalDB && c.PostgresDSN == "" {
		return fmt.Errorf("database configuration incomplete: set POSTGRES_DSN or USE_LOCAL_DB=true")
	}
	if c.UseLocalDB && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when USE_LOCAL_DB is set")
	}

	// 验证存储配置
	switch c.StorageBackend {
	case "local":
		if c.MediaRoot == "" {
			return fmt.Errorf("MEDIA_ROOT is required for local storage")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.proxyErr != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", c.proxyErr)
	}
	return nil
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// 辅助函数

// getEnvWithDefault 获取环境变量，如果不存在则使用默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔类型的环境变量
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseProxies 解析逗号分隔的 CIDR 或单个 IP
func parseProxies(list string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// loadEnvFile 加载 .env 文件到环境变量，文件不存在时静默返回
func loadEnvFile(filename string) {
	if _, err := os.Stat(filename); err != nil {
		return
	}
	if err := godotenv.Load(filename); err != nil {
		slog.Warn("failed to load env file", "file", filename, "error", err)
	}
}
