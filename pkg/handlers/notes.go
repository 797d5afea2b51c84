package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/utils"
)

// NoteHandler 笔记处理器，笔记仅作者可见
type NoteHandler struct {
	*Deps
}

// NewNoteHandler 创建笔记处理器
func NewNoteHandler(d *Deps) *NoteHandler {
	return &NoteHandler{Deps: d}
}

// ListNotes 列出当前用户的笔记
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.DB.ListNotesByOwner(r.Context(), actorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, notes, len(notes))
}

// CreateNote 创建笔记
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	uid := actorID(r)
	projectID, taskID, err := h.resolveLinks(ctx, uid, req.ProjectID, req.TaskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	note := &models.Note{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		OwnerID:   uid,
		ProjectID: projectID,
		TaskID:    taskID,
	}
	if err := h.DB.CreateNote(ctx, note, req.TagIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, note)
}

// GetNote 获取笔记
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, note)
}

// UpdateNote 更新笔记，标签整体替换
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	note, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	projectID, taskID, err := h.resolveLinks(ctx, note.OwnerID, req.ProjectID, req.TaskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	note.Title = strings.TrimSpace(req.Title)
	note.Content = req.Content
	note.ProjectID = projectID
	note.TaskID = taskID
	if err := h.DB.UpdateNote(ctx, note, req.TagIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, note)
}

// DeleteNote 删除笔记
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.DB.DeleteNote(r.Context(), note.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) load(r *http.Request) (*models.Note, error) {
	note, err := h.DB.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if err := checked("note", access.Note(actorID(r), note)); err != nil {
		return nil, err
	}
	return note, nil
}

// resolveLinks checks the optional project and task a note points at. The
// owner must be able to view both, and a task must belong to the given
// project; a task alone implies its project.
func (h *NoteHandler) resolveLinks(ctx context.Context, ownerID string, projectRef, taskRef *string) (*string, *string, error) {
	projectID, taskID := optionalID(projectRef), optionalID(taskRef)

	if taskID != nil {
		task, err := h.DB.GetTask(ctx, *taskID)
		if err != nil {
			return nil, nil, err
		}
		if projectID != nil && *projectID != task.ProjectID {
			return nil, nil, errs.Invalid("task does not belong to the selected project")
		}
		project, err := h.DB.GetProjectByID(ctx, task.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		if err := checked("task", access.Task(ownerID, task, project, access.View)); err != nil {
			return nil, nil, err
		}
		pid := task.ProjectID
		return &pid, taskID, nil
	}

	if projectID != nil {
		project, err := h.DB.GetProjectByID(ctx, *projectID)
		if err != nil {
			return nil, nil, err
		}
		if err := checked("project", access.Project(ownerID, project, access.View)); err != nil {
			return nil, nil, err
		}
	}
	return projectID, nil, nil
}

// TagHandler 标签处理器，标签全局共享
type TagHandler struct {
	*Deps
}

// NewTagHandler 创建标签处理器
func NewTagHandler(d *Deps) *TagHandler {
	return &TagHandler{Deps: d}
}

// ListTags 列出全部标签
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.DB.ListTags(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, tags, len(tags))
}

// CreateTag 创建标签，名称唯一
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req models.TagRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tag := &models.Tag{Name: strings.TrimSpace(req.Name), Color: req.Color}
	if err := h.DB.CreateTag(r.Context(), tag); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, tag)
}
