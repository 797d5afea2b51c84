package middleware

import (
	"mime"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"project-hub-backend/pkg/utils"

	"golang.org/x/time/rate"
)

// RequireContentType 对带请求体的 POST/PUT/PATCH 校验 Content-Type
func RequireContentType(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasBody := r.ContentLength > 0 || r.Header.Get("Transfer-Encoding") != ""
			if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
				contentType := r.Header.Get("Content-Type")
				if contentType == "" {
					utils.WriteBadRequestResponse(w, "Content-Type header is required")
					return
				}
				// 忽略 charset / boundary 等参数
				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || !slices.Contains(allowed, mediaType) {
					utils.WriteErrorResponseWithCode(w, http.StatusUnsupportedMediaType,
						"UNSUPPORTED_MEDIA_TYPE", "Unsupported Content-Type", contentType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize 限制请求体大小
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(requestsPerMinute int) *ipLimiter {
	return &ipLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     requestsPerMinute,
		idleAfter: 3 * time.Minute,
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleAfter {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimitByIP 按客户端 IP 的令牌桶限流（内存版本，适合单实例）；requestsPerMinute <= 0 时关闭
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := newIPLimiter(requestsPerMinute)
	retryAfter := strconv.Itoa(max(1, int(time.Minute/time.Duration(requestsPerMinute)/time.Second)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(ClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				utils.WriteTooManyRequestsResponse(w, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
