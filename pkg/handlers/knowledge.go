package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/utils"
)

// KnowledgeHandler 知识库处理器
type KnowledgeHandler struct {
	*Deps
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(d *Deps) *KnowledgeHandler {
	return &KnowledgeHandler{Deps: d}
}

// ListArticles 列出文章，?q= 按标题、内容和标签名搜索
func (h *KnowledgeHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(utils.GetQueryParam(r, "q", ""))
	articles, err := h.DB.ListArticles(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, articles, len(articles))
}

// CreateArticle 创建文章，当前用户为作者
func (h *KnowledgeHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req models.ArticleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	uid := actorID(r)
	if err := checked("article", access.Article(uid, nil, access.Create)); err != nil {
		h.fail(w, r, err)
		return
	}
	article := &models.KnowledgeBase{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		AuthorID: &uid,
	}
	if err := h.DB.CreateArticle(r.Context(), article, req.TagIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, article)
}

// GetArticle 获取文章
func (h *KnowledgeHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.load(r, access.View)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, article)
}

// UpdateArticle 更新文章（仅作者）
func (h *KnowledgeHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req models.ArticleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	article, err := h.load(r, access.Update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	article.Title = strings.TrimSpace(req.Title)
	article.Content = req.Content
	if err := h.DB.UpdateArticle(r.Context(), article, req.TagIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, article)
}

// DeleteArticle 删除文章（仅作者）
func (h *KnowledgeHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.load(r, access.Delete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.DB.DeleteArticle(r.Context(), article.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KnowledgeHandler) load(r *http.Request, action access.Action) (*models.KnowledgeBase, error) {
	article, err := h.DB.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if err := checked("article", access.Article(actorID(r), article, action)); err != nil {
		return nil, err
	}
	return article, nil
}
