package handlers

import (
	"net/http"
	"strings"

	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/observability"
	"project-hub-backend/pkg/stats"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// ProfileHandler 个人资料与设置处理器
type ProfileHandler struct {
	*Deps
}

// NewProfileHandler 创建个人资料处理器
func NewProfileHandler(d *Deps) *ProfileHandler {
	return &ProfileHandler{Deps: d}
}

// GetProfile 返回个人资料以及项目、任务统计
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := actorID(r)

	user, err := h.DB.GetUserByID(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.DB.GetProfile(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	projects, err := h.DB.ListProjectsForUser(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	projectTasks, err := h.DB.ListTasksByProjects(ctx, ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mine, err := h.DB.ListTasksForUser(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]any{
		"user":                user,
		"profile":             profile,
		"project_stats":       stats.ComputeProjectStats(projects, projectTasks),
		"task_stats":          stats.ComputeTaskRates(mine),
		"years_of_experience": stats.YearsOfExperience(profile.StartDate, h.now()),
	})
}

// UpdateProfile 更新个人资料和用户的姓名、邮箱
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	uid := actorID(r)
	reportingTo := optionalID(req.ReportingTo)
	if reportingTo != nil {
		if *reportingTo == uid {
			h.fail(w, r, errs.Invalid("you cannot report to yourself"))
			return
		}
		if err := h.ensureUsersExist(ctx, []string{*reportingTo}); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	user, err := h.DB.GetUserByID(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.DB.GetProfile(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = email
	}
	profile.EmployeeID = req.EmployeeID
	profile.Bio = req.Bio
	if req.UserType != "" {
		profile.UserType = req.UserType
	}
	if req.EmploymentType != "" {
		profile.EmploymentType = req.EmploymentType
	}
	profile.JobTitle = req.JobTitle
	profile.Department = req.Department
	profile.Team = req.Team
	profile.ReportingTo = reportingTo
	profile.StartDate = req.StartDate
	profile.WorkEmail = req.WorkEmail
	profile.WorkPhone = req.WorkPhone
	profile.MobilePhone = req.MobilePhone
	profile.GitHubUsername = req.GitHubUsername
	profile.GitHubProfile = req.GitHubProfile
	profile.LinkedInProfile = req.LinkedInProfile
	profile.PersonalWebsite = req.PersonalWebsite
	profile.PrimarySkills = req.PrimarySkills
	profile.SecondarySkills = req.SecondarySkills
	profile.Timezone = req.Timezone
	if err := h.DB.UpdateAccount(ctx, user, profile); err != nil {
		h.fail(w, r, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]any{
		"user":    user,
		"profile": profile,
	})
}

// UploadPicture 上传头像（multipart 字段 avatar，仅限图片）
func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, multipartError(err))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.fail(w, r, errs.Invalid("avatar file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		h.fail(w, r, errs.Invalid("avatar must be an image"))
		return
	}

	ctx := r.Context()
	profile, err := h.DB.GetProfile(ctx, actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	blob, err := h.Store.Put(ctx, storage.ProfilePictures, header.Filename, contentType, file)
	observability.BlobOperation("put", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	oldKey := profile.AvatarKey
	profile.AvatarKey = blob.Key
	profile.AvatarURL = blob.URL
	if err := h.saveProfile(r, profile); err != nil {
		h.removeBlobs(ctx, []string{blob.Key})
		h.fail(w, r, err)
		return
	}
	h.removeBlobs(ctx, []string{oldKey})

	utils.WriteSuccessResponse(w, profile)
}

// DeleteAccount 删除当前账户及其拥有的全部数据
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := actorID(r)
	keys, err := h.DB.DeleteUser(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.removeBlobs(ctx, keys)
	h.Logger.Info("account deleted", "user_id", uid, "blobs", len(keys))
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings 返回外观、通知和集成设置（令牌只返回是否已连接）
func (h *ProfileHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	profile, err := h.DB.GetProfile(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, profile.Settings())
}

// UpdateAppearance 更新外观设置
func (h *ProfileHandler) UpdateAppearance(w http.ResponseWriter, r *http.Request) {
	var req models.AppearanceSettings
	h.updateSettings(w, r, &req, func(p *models.Profile) {
		p.Theme = req.Theme
		p.SidebarCollapsed = req.SidebarCollapsed
		p.CodeTheme = req.CodeTheme
	})
}

// UpdateNotifications 更新通知设置
func (h *ProfileHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationSettings
	h.updateSettings(w, r, &req, func(p *models.Profile) {
		p.EmailNotifications = req.EmailNotifications
		p.DesktopNotifications = req.DesktopNotifications
		p.MentionNotifications = req.MentionNotifications
	})
}

// UpdateIntegrations 更新第三方集成令牌，空字符串表示断开
func (h *ProfileHandler) UpdateIntegrations(w http.ResponseWriter, r *http.Request) {
	var req models.IntegrationSettings
	h.updateSettings(w, r, &req, func(p *models.Profile) {
		p.GitHubAccessToken = strings.TrimSpace(req.GitHubAccessToken)
		p.GitLabAccessToken = strings.TrimSpace(req.GitLabAccessToken)
		p.JiraAccessToken = strings.TrimSpace(req.JiraAccessToken)
	})
}

func (h *ProfileHandler) updateSettings(w http.ResponseWriter, r *http.Request, req any, apply func(*models.Profile)) {
	if err := decode(r, req); err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.DB.GetProfile(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apply(profile)
	if err := h.saveProfile(r, profile); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, profile.Settings())
}

func (h *ProfileHandler) saveProfile(r *http.Request, profile *models.Profile) error {
	profile.LastModified = h.now()
	return h.DB.UpdateProfile(r.Context(), profile)
}
