package handlers

import (
	"errors"
	"net/http"
	"strings"

	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/middleware"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	*Deps
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(d *Deps) *AuthHandler {
	return &AuthHandler{Deps: d}
}

// Register 用户注册，成功后直接返回令牌对
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	hashed, err := h.Passwords.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			h.fail(w, r, &utils.ValidationError{Fields: map[string]string{"password": err.Error()}})
			return
		}
		h.fail(w, r, err)
		return
	}

	user := &models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if _, err := h.DB.CreateUser(r.Context(), user); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, resp)
}

// Login 用户登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.DB.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			utils.WriteUnauthorizedResponse(w, "Invalid username or password")
			return
		}
		h.fail(w, r, err)
		return
	}
	if err := h.Passwords.ComparePassword(user.Password, req.Password); err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid username or password")
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, resp)
}

// RefreshToken 使用刷新令牌换取新的令牌对
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	claims, err := h.JWT.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid or expired refresh token")
		return
	}
	// 账户可能已被删除
	user, err := h.DB.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			utils.WriteUnauthorizedResponse(w, "Account no longer exists")
			return
		}
		h.fail(w, r, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, resp)
}

// Logout 用户登出。令牌无状态，客户端丢弃即可
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("user logged out", "user_id", actorID(r))
	utils.WriteSuccessResponse(w, map[string]string{"message": "Logged out"})
}

// Me 返回当前用户及其个人资料
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := middleware.RequireUser(ctx)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	user, err := h.DB.GetUserByID(ctx, actor.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.DB.GetProfile(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]any{
		"user":    user,
		"profile": profile,
	})
}

// HealthCheck 健康检查
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if err := h.DB.HealthCheck(r.Context()); err != nil {
		// 细节只写日志，公开接口只返回状态
		h.Logger.Error("database health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	utils.WriteJSONResponse(w, code, map[string]any{
		"service":   "project-hub-backend",
		"version":   "1.0.0",
		"db_status": status,
		"timestamp": h.now().Unix(),
		"status":    status,
	})
}

func (h *AuthHandler) issueTokens(user *models.User) (*models.UserLoginResponse, error) {
	access, refresh, expiresIn, err := h.JWT.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &models.UserLoginResponse{
		User:         *user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	}, nil
}
