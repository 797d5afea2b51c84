package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"project-hub-backend/pkg/access"
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/messaging"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/observability"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// MessageHandler 消息处理器（私信与项目群聊）
type MessageHandler struct {
	*Deps
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(d *Deps) *MessageHandler {
	return &MessageHandler{Deps: d}
}

// ListConversations 列出私信会话对象，最近的在前
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := actorID(r)
	msgs, err := h.DB.ListUserDirectMessages(ctx, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	partners, err := h.summaries(ctx, messaging.Partners(uid, msgs))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteListResponse(w, partners, len(partners))
}

// DirectConversation 与某个用户的私信记录（双向，按时间升序）
func (h *MessageHandler) DirectConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	other, err := h.DB.GetUserByID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msgs, err := h.DB.ListDirectMessages(ctx, actorID(r), other.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]any{
		"partner":  other.Summary(),
		"messages": msgs,
	})
}

// ProjectConversation 项目群聊记录（项目成员）
func (h *MessageHandler) ProjectConversation(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectBySlug(r, access.Chat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msgs, err := h.DB.ListProjectMessages(r.Context(), project.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]any{
		"project":  project,
		"messages": msgs,
	})
}

// SendMessage 发送消息：recipient_id 与 project_slug 二选一，
// 支持 JSON 或带 attachment 字段的 multipart 表单
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	in, upload, err := h.readInput(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if upload != nil {
		defer upload.file.Close()
	}

	kind, err := messaging.Address(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	var aud messaging.Audience
	switch kind {
	case messaging.Direct:
		aud.Recipient, err = h.DB.GetUserByID(ctx, strings.TrimSpace(in.RecipientID))
	case messaging.Broadcast:
		aud.Project, err = h.DB.GetProjectBySlug(ctx, strings.TrimSpace(in.ProjectSlug))
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		h.fail(w, r, err)
		return
	}

	uid := actorID(r)
	msg, err := messaging.Compose(uid, in, aud, h.now())
	if err != nil {
		h.fail(w, r, checked("message", err))
		return
	}

	if upload != nil {
		blob, err := h.Store.Put(ctx, storage.ChatAttachments, upload.header.Filename, in.Attachment.MediaType, upload.file)
		observability.BlobOperation("put", err)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		msg.AttachmentKey = blob.Key
		msg.AttachmentURL = blob.URL
	}

	if err := h.DB.CreateMessage(ctx, msg); err != nil {
		h.removeBlobs(ctx, []string{msg.AttachmentKey})
		h.fail(w, r, err)
		return
	}
	observability.MessageSent(kind.String())
	h.Logger.Debug("message sent", "message_id", msg.ID, "kind", kind.String(), "sender_id", uid)
	utils.WriteCreatedResponse(w, msg)
}

type attachmentUpload struct {
	file   multipart.File
	header *multipart.FileHeader
}

// readInput decodes a JSON or multipart send request.
func (h *MessageHandler) readInput(w http.ResponseWriter, r *http.Request) (messaging.Input, *attachmentUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req models.MessageRequest
		if err := decode(r, &req); err != nil {
			return messaging.Input{}, nil, err
		}
		return messaging.Input{
			Content:     req.Content,
			RecipientID: req.RecipientID,
			ProjectSlug: req.ProjectSlug,
		}, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return messaging.Input{}, nil, multipartError(err)
	}
	in := messaging.Input{
		Content:     r.FormValue("content"),
		RecipientID: r.FormValue("recipient_id"),
		ProjectSlug: r.FormValue("project_slug"),
	}
	file, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return messaging.Input{}, nil, errs.Invalid("invalid attachment: %v", err)
	}
	in.Attachment = &messaging.Attachment{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Size:      header.Size,
	}
	return in, &attachmentUpload{file: file, header: header}, nil
}
