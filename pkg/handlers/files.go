package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/observability"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// FileHandler 项目文件处理器
type FileHandler struct {
	*Deps
}

// NewFileHandler 创建文件处理器
func NewFileHandler(d *Deps) *FileHandler {
	return &FileHandler{Deps: d}
}

// ListFiles 列出项目文件（项目成员）
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectBySlug(r, access.View)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	files, err := h.DB.ListFilesByProject(r.Context(), project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, files, len(files))
}

// UploadFile 上传项目文件（multipart 字段 file，可选 name）
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	project, err := h.DB.GetProjectBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	uid := actorID(r)
	if err := checked("file", access.File(uid, nil, project, access.Create)); err != nil {
		h.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.fail(w, r, multipartError(err))
		return
	}
	src, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, errs.Invalid("file is required"))
		return
	}
	defer src.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	ctx := r.Context()
	blob, err := h.Store.Put(ctx, storage.ProjectFiles, header.Filename, header.Header.Get("Content-Type"), src)
	observability.BlobOperation("put", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	file := &models.File{
		Name:       name,
		BlobKey:    blob.Key,
		URL:        blob.URL,
		ProjectID:  project.ID,
		UploadedBy: &uid,
	}
	if err := h.DB.CreateFile(ctx, file); err != nil {
		h.removeBlobs(ctx, []string{blob.Key})
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("file uploaded", "file_id", file.ID, "project_id", project.ID, "bytes", blob.Size)
	utils.WriteCreatedResponse(w, file)
}

// DeleteFile 删除文件（项目所有者或上传者），同时删除存储中的对象
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, err := h.DB.GetFile(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.DB.GetProjectByID(ctx, file.ProjectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checked("file", access.File(actorID(r), file, project, access.Delete)); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.DB.DeleteFile(ctx, file.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.removeBlobs(ctx, []string{file.BlobKey})
	w.WriteHeader(http.StatusNoContent)
}

// mediaType 只内联展示被动内容；HTML、SVG、脚本等一律按附件下载
func mediaType(key string) (string, bool) {
	contentType := mime.TypeByExtension(path.Ext(key))
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream", false
	}
	switch {
	case base == "image/svg+xml":
		return "application/octet-stream", false
	case strings.HasPrefix(base, "image/"),
		strings.HasPrefix(base, "video/"),
		strings.HasPrefix(base, "audio/"),
		base == "application/pdf":
		return contentType, true
	case base == "text/plain":
		return "text/plain; charset=utf-8", true
	}
	return "application/octet-stream", false
}

// ServeMedia 提供本地存储的文件（GET /media/*）
func (h *FileHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, err := h.Store.Open(r.Context(), key)
	observability.BlobOperation("open", err)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			utils.WriteNotFoundResponse(w, "File not found")
			return
		}
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	contentType, inline := mediaType(key)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	if !inline {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
			map[string]string{"filename": path.Base(key)}))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("failed to stream media", "key", key, "error", err)
	}
}
