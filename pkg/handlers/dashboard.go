package handlers

import (
	"net/http"
	"sort"
	"strings"

	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/stats"
	"project-hub-backend/pkg/utils"
)

const dashboardListSize = 5

// DashboardHandler 首页概览与全局搜索
type DashboardHandler struct {
	*Deps
}

// NewDashboardHandler 创建概览处理器
func NewDashboardHandler(d *Deps) *DashboardHandler {
	return &DashboardHandler{Deps: d}
}

// Dashboard 返回统计数据、最近更新的项目、即将到期的任务和最近的笔记
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := actorID(r)

	projects, err := h.DB.ListProjectsForUser(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	assigned, err := h.DB.ListAssignedTasks(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	notes, err := h.DB.ListNotesByOwner(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recent := append([]models.Project(nil), projects...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})

	// ListAssignedTasks 已按截止日期排序，无截止日期的在后
	upcoming := make([]models.Task, 0, dashboardListSize)
	for _, t := range assigned {
		if len(upcoming) == dashboardListSize {
			break
		}
		if t.IsOpen() {
			upcoming = append(upcoming, t)
		}
	}

	utils.WriteSuccessResponse(w, map[string]any{
		"stats":           stats.ComputeDashboard(projects, assigned),
		"recent_projects": head(recent, dashboardListSize),
		"upcoming_tasks":  h.taskViews(upcoming),
		"recent_notes":    head(notes, dashboardListSize),
	})
}

// Search 在用户可见的项目、任务、笔记和文章中搜索
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(utils.GetQueryParam(r, "q", ""))
	results, err := h.DB.Search(r.Context(), actorID(r), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, results)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
