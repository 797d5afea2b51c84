package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"project-hub-backend/pkg/config"
	"project-hub-backend/pkg/database"
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/middleware"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/observability"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

// Deps 处理器共享的依赖
type Deps struct {
	Config    *config.Config
	DB        database.DatabaseInterface
	Store     storage.BlobStore
	JWT       *utils.JWTService
	Passwords *utils.PasswordManager
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// fail 将错误映射为 HTTP 状态码：NotFound 404、Forbidden 403、InvalidInput 400、校验失败 422
func (d *Deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *utils.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		utils.WriteValidationErrorResponse(w, "Validation failed", verr.Fields)
	case errors.As(err, &tooLarge):
		utils.WriteErrorResponseWithCode(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", "")
	case errors.Is(err, errs.ErrNotFound):
		utils.WriteNotFoundResponse(w, errs.Message(err))
	case errors.Is(err, errs.ErrForbidden):
		utils.WriteForbiddenResponse(w, errs.Message(err))
	case errors.Is(err, errs.ErrInvalidInput):
		utils.WriteBadRequestResponse(w, errs.Message(err))
	default:
		d.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
	}
}

// removeBlobs deletes blobs that no longer have a row pointing at them.
// Failures are logged; the rows are already gone.
func (d *Deps) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		err := d.Store.Delete(ctx, key)
		observability.BlobOperation("delete", err)
		if err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
			d.Logger.Warn("failed to delete blob", "key", key, "error", err)
		}
	}
}

// ensureUsersExist fails with InvalidInput when any id does not resolve.
func (d *Deps) ensureUsersExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := d.DB.ListUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return errs.Invalid("user %q does not exist", id)
		}
	}
	return nil
}

// summaries resolves user ids to public summaries, keeping the order of ids.
func (d *Deps) summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	users, err := d.DB.ListUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

// decode parses a JSON body and runs its validate tags.
func decode(r *http.Request, v any) error {
	if err := utils.ParseJSONBody(r, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errs.Invalid("invalid request body: %v", err)
	}
	return utils.ValidateStruct(v)
}

// actorID returns the authenticated user id, or "" for anonymous requests.
func actorID(r *http.Request) string {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok || user == nil {
		return ""
	}
	return user.ID
}

// checked counts access denials per resource and passes err through.
func checked(resource string, err error) error {
	if errors.Is(err, errs.ErrForbidden) {
		observability.AccessDenied(resource)
	}
	return err
}

// optionalID normalizes an optional id: nil and "" both mean unset.
func optionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return errs.Invalid("invalid multipart form: %v", err)
}
