package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"project-hub-backend/pkg/config"
	"project-hub-backend/pkg/database"
	"project-hub-backend/pkg/models"
	"project-hub-backend/pkg/storage"
	"project-hub-backend/pkg/utils"
)

type testEnv struct {
	t      *testing.T
	router http.Handler
	db     *database.SQLDatabase
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    *utils.Meta     `json:"meta"`
}

type account struct {
	ID    string
	Token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.NewSQLiteDatabase(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	store, err := storage.NewLocalStore(filepath.Join(dir, "media"), "/media")
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:     "test",
		Port:            "0",
		UseLocalDB:      true,
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		StorageBackend:  "local",
		MaxUploadBytes:  1 << 20,
		AllowedOrigins:  []string{"*"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDeps(cfg, db, store, logger)
	d.Passwords = utils.NewPasswordManager().WithCost(bcrypt.MinCost)

	return &testEnv{t: t, router: NewRouter(d), db: db}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decode asserts the status and unmarshals the envelope data into v.
func (e *testEnv) decode(rec *httptest.ResponseRecorder, status int, v any) *envelope {
	e.t.Helper()
	require.Equal(e.t, status, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &env))
	if v != nil {
		require.NoError(e.t, json.Unmarshal(env.Data, v))
	}
	return &env
}

func (e *testEnv) register(username string) account {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	var resp models.UserLoginResponse
	e.decode(rec, http.StatusCreated, &resp)
	return account{ID: resp.User.ID, Token: resp.AccessToken}
}

func (e *testEnv) createProject(owner account, title string, collaborators ...string) models.Project {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/projects", owner.Token, map[string]any{
		"title":            title,
		"description":      "desc",
		"collaborator_ids": collaborators,
	})
	var p models.Project
	e.decode(rec, http.StatusCreated, &p)
	return p
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	var health map[string]any
	env.decode(env.do(http.MethodGet, "/", "", nil), http.StatusOK, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "healthy", health["db_status"])
	assert.NotContains(t, health, "pool")

	require.NoError(t, env.db.Close())
	rec := env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db_status":"unhealthy"`)
	assert.NotContains(t, rec.Body.String(), "closed")
}

func TestRegisterLoginRefresh(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")

	var me map[string]json.RawMessage
	env.decode(env.do(http.MethodGet, "/api/auth/me", alice.Token, nil), http.StatusOK, &me)
	assert.Contains(t, string(me["user"]), `"username":"alice"`)
	assert.NotContains(t, string(me["user"]), "password")

	rec := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "nobody", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var login models.UserLoginResponse
	env.decode(env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "password123"}), http.StatusOK, &login)
	require.NotEmpty(t, login.RefreshToken)

	var refreshed models.UserLoginResponse
	env.decode(env.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login.RefreshToken}), http.StatusOK, &refreshed)
	assert.Equal(t, alice.ID, refreshed.User.ID)

	// access tokens cannot be used to refresh
	rec = env.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": login.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/me", "", nil).Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "password": "password123"})
	resp := env.decode(rec, http.StatusUnprocessableEntity, nil)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Fields, "email")

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "email": "bob@example.com", "password": "abcdefgh"})
	resp = env.decode(rec, http.StatusUnprocessableEntity, nil)
	assert.Contains(t, resp.Error.Fields, "password")

	env.register("bob")
	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "email": "other@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, env.send(req, "").Code)
}

func TestProjectAccessScenario(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("collab")
	u3 := env.register("outsider")

	p := env.createProject(u1, "Website Redesign", u2.ID)
	assert.Equal(t, []string{u2.ID}, p.CollaboratorIDs)
	assert.Equal(t, models.ProjectPlanning, p.Status)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	var task taskView
	env.decode(env.do(http.MethodPost, "/api/tasks", u1.Token, map[string]any{
		"project_id":  p.ID,
		"title":       "Ship it",
		"assigned_to": u2.ID,
		"due_date":    yesterday,
		"status":      "TODO",
	}), http.StatusCreated, &task)
	assert.Equal(t, "Not started", task.DurationDisplay)

	var detail map[string]any
	env.decode(env.do(http.MethodGet, "/api/projects/"+p.Slug, u1.Token, nil), http.StatusOK, &detail)
	assert.EqualValues(t, 0, detail["days_remaining"])
	assert.EqualValues(t, 0, detail["completion_percentage"])
	assert.EqualValues(t, 2, detail["collaborators_count"])
	assert.EqualValues(t, 1, detail["tasks_count"])

	// collaborator reads the task assigned to them
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/tasks/"+task.ID, u2.Token, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/projects/"+p.Slug, u2.Token, nil).Code)

	// non-member is refused
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/projects/"+p.Slug, u3.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/tasks/"+task.ID, u3.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/tasks", u3.Token, map[string]any{
		"project_id": p.ID, "title": "sneaky",
	}).Code)

	// assignee completes the task
	env.decode(env.do(http.MethodPut, "/api/tasks/"+task.ID, u2.Token, map[string]any{
		"title":       "Ship it",
		"assigned_to": u2.ID,
		"priority":    "MEDIUM",
		"status":      "DONE",
		"due_date":    yesterday,
	}), http.StatusOK, &task)
	assert.Equal(t, models.TaskDone, task.Status)

	env.decode(env.do(http.MethodGet, "/api/projects/"+p.Slug, u1.Token, nil), http.StatusOK, &detail)
	assert.EqualValues(t, 100, detail["completion_percentage"])

	// only the owner deletes tasks and edits the project
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/tasks/"+task.ID, u2.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/projects/"+p.Slug, u2.Token, map[string]any{
		"title": "x", "description": "y", "status": "ACTIVE",
	}).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/tasks/"+task.ID, u1.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/tasks/"+task.ID, u1.Token, nil).Code)
}

func TestProjectUpdateAndCollaborators(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("collab")

	rec := env.do(http.MethodPost, "/api/projects", u1.Token, map[string]any{
		"title": "Bad", "description": "d", "collaborator_ids": []string{"missing"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	p := env.createProject(u1, "Mobile App")

	var updated models.Project
	env.decode(env.do(http.MethodPut, "/api/projects/"+p.Slug+"/collaborators", u1.Token, map[string]any{
		"user_ids": []string{u2.ID, u1.ID, u2.ID},
	}), http.StatusOK, &updated)
	assert.Equal(t, []string{u2.ID}, updated.CollaboratorIDs)

	env.decode(env.do(http.MethodPut, "/api/projects/"+p.Slug, u1.Token, map[string]any{
		"title": "Mobile App v2", "description": "new", "status": "ACTIVE",
	}), http.StatusOK, &updated)
	assert.Equal(t, p.Slug, updated.Slug)
	assert.Equal(t, models.ProjectActive, updated.Status)
	assert.Equal(t, []string{u2.ID}, updated.CollaboratorIDs)

	env.decode(env.do(http.MethodPost, "/api/projects/"+p.Slug+"/github", u1.Token, map[string]any{
		"github_repo": "https://github.com/acme/app", "github_access_token": "tok",
	}), http.StatusOK, &updated)
	assert.True(t, updated.IsGitHubConnected)
	assert.Equal(t, "main", updated.GitHubBranch)

	var list struct {
		Projects []models.Project `json:"projects"`
		Counts   map[string]int   `json:"counts"`
	}
	env.decode(env.do(http.MethodGet, "/api/projects", u2.Token, nil), http.StatusOK, &list)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, 1, list.Counts["active"])

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/projects/"+p.Slug, u1.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/projects/"+p.Slug, u1.Token, nil).Code)
}

func TestNotesArePrivate(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("other")
	p := env.createProject(u1, "Docs")

	var tag models.Tag
	env.decode(env.do(http.MethodPost, "/api/tags", u1.Token, map[string]string{"name": "go"}), http.StatusCreated, &tag)
	assert.Equal(t, models.DefaultTagColor, tag.Color)

	var note models.Note
	env.decode(env.do(http.MethodPost, "/api/notes", u1.Token, map[string]any{
		"title": "Plan", "content": "steps", "project_id": p.ID, "tag_ids": []string{tag.ID},
	}), http.StatusCreated, &note)
	require.Len(t, note.Tags, 1)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/notes/"+note.ID, u2.Token, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notes/"+note.ID, u1.Token, nil).Code)

	// a note cannot point at a project the author cannot see
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/notes", u2.Token, map[string]any{
		"title": "Spy", "content": "x", "project_id": p.ID,
	}).Code)

	var detail map[string]any
	env.decode(env.do(http.MethodGet, "/api/projects/"+p.Slug, u1.Token, nil), http.StatusOK, &detail)
	assert.EqualValues(t, 1, detail["notes_count"])

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/notes/"+note.ID, u1.Token, nil).Code)
}

func TestKnowledgeBase(t *testing.T) {
	env := newTestEnv(t)
	author := env.register("author")
	reader := env.register("reader")

	var article models.KnowledgeBase
	env.decode(env.do(http.MethodPost, "/api/knowledge", author.Token, map[string]any{
		"title": "Deploying", "content": "Use the pipeline",
	}), http.StatusCreated, &article)

	var found []models.KnowledgeBase
	env.decode(env.do(http.MethodGet, "/api/knowledge?q=pipeline", reader.Token, nil), http.StatusOK, &found)
	require.Len(t, found, 1)

	env.decode(env.do(http.MethodGet, "/api/knowledge?q=nothing", reader.Token, nil), http.StatusOK, &found)
	assert.Empty(t, found)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/knowledge/"+article.ID, reader.Token, map[string]any{
		"title": "x", "content": "y",
	}).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/knowledge/"+article.ID, author.Token, nil).Code)
}

func TestMessaging(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("collab")
	u3 := env.register("outsider")
	p := env.createProject(u1, "Chat", u2.ID)

	var msg models.Message
	env.decode(env.do(http.MethodPost, "/api/messages", u1.Token, map[string]string{
		"recipient_id": u2.ID, "content": "hi",
	}), http.StatusCreated, &msg)
	require.NotNil(t, msg.RecipientID)
	assert.Nil(t, msg.ProjectID)

	env.decode(env.do(http.MethodPost, "/api/messages", u2.Token, map[string]string{
		"project_slug": p.Slug, "content": "hello team",
	}), http.StatusCreated, &msg)
	require.NotNil(t, msg.ProjectID)
	assert.Equal(t, p.ID, *msg.ProjectID)

	tests := []struct {
		name string
		user account
		body map[string]string
		want int
	}{
		{"no audience", u1, map[string]string{"content": "x"}, http.StatusBadRequest},
		{"both audiences", u1, map[string]string{"content": "x", "recipient_id": u2.ID, "project_slug": p.Slug}, http.StatusBadRequest},
		{"empty content", u1, map[string]string{"recipient_id": u2.ID}, http.StatusBadRequest},
		{"unknown recipient", u1, map[string]string{"content": "x", "recipient_id": "missing"}, http.StatusNotFound},
		{"unknown project", u1, map[string]string{"content": "x", "project_slug": "missing"}, http.StatusNotFound},
		{"non-member broadcast", u3, map[string]string{"content": "x", "project_slug": p.Slug}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.do(http.MethodPost, "/api/messages", tt.user.Token, tt.body).Code)
		})
	}

	var partners []models.UserSummary
	env.decode(env.do(http.MethodGet, "/api/messages", u2.Token, nil), http.StatusOK, &partners)
	require.Len(t, partners, 1)
	assert.Equal(t, u1.ID, partners[0].ID)

	var direct struct {
		Messages []models.Message `json:"messages"`
	}
	env.decode(env.do(http.MethodGet, "/api/messages/direct/"+u1.ID, u2.Token, nil), http.StatusOK, &direct)
	require.Len(t, direct.Messages, 1)
	assert.Equal(t, "hi", direct.Messages[0].Content)

	var project struct {
		Messages []models.Message `json:"messages"`
	}
	env.decode(env.do(http.MethodGet, "/api/messages/project/"+p.Slug, u1.Token, nil), http.StatusOK, &project)
	require.Len(t, project.Messages, 1)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/messages/project/"+p.Slug, u3.Token, nil).Code)
}

func TestMessageAttachment(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("sender")
	u2 := env.register("receiver")

	body, contentType := multipartBody(t, map[string]string{"recipient_id": u2.ID}, "attachment", "cat.png", "image/png", "pixels")
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", contentType)

	var msg models.Message
	env.decode(env.send(req, u1.Token), http.StatusCreated, &msg)
	assert.Equal(t, models.AttachmentImage, msg.AttachmentType)
	assert.Equal(t, "cat.png", msg.AttachmentName)
	require.True(t, strings.HasPrefix(msg.AttachmentURL, "/media/chat_attachments/"), msg.AttachmentURL)

	rec := env.do(http.MethodGet, msg.AttachmentURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pixels", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestProjectFiles(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("collab")
	u3 := env.register("outsider")
	p := env.createProject(u1, "Assets", u2.ID)

	upload := func(user account) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, map[string]string{"name": "Brief"}, "file", "brief.pdf", "application/pdf", "%PDF")
		req := httptest.NewRequest(http.MethodPost, "/api/projects/"+p.Slug+"/files", body)
		req.Header.Set("Content-Type", contentType)
		return env.send(req, user.Token)
	}

	assert.Equal(t, http.StatusForbidden, upload(u3).Code)

	var file models.File
	env.decode(upload(u2), http.StatusCreated, &file)
	assert.Equal(t, "Brief", file.Name)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, file.URL, "", nil).Code)

	var files []models.File
	env.decode(env.do(http.MethodGet, "/api/projects/"+p.Slug+"/files", u1.Token, nil), http.StatusOK, &files)
	require.Len(t, files, 1)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/files/"+file.ID, u3.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/files/"+file.ID, u1.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, file.URL, "", nil).Code)
}

func TestMediaServesActiveContentAsDownload(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("owner")
	p := env.createProject(owner, "Pages")

	upload := func(filename, contentType, content string) models.File {
		body, ct := multipartBody(t, nil, "file", filename, contentType, content)
		req := httptest.NewRequest(http.MethodPost, "/api/projects/"+p.Slug+"/files", body)
		req.Header.Set("Content-Type", ct)
		var file models.File
		env.decode(env.send(req, owner.Token), http.StatusCreated, &file)
		return file
	}

	page := upload("page.html", "text/html", "<script>alert(1)</script>")
	rec := env.do(http.MethodGet, page.URL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	icon := upload("icon.svg", "image/svg+xml", "<svg/>")
	rec = env.do(http.MethodGet, icon.URL, "", nil)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Content-Disposition"))

	photo := upload("photo.png", "image/png", "pixels")
	rec = env.do(http.MethodGet, photo.URL, "", nil)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestProfileAndSettings(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("alice")
	u2 := env.register("manager")

	rec := env.do(http.MethodPut, "/api/profile", u1.Token, map[string]any{"reporting_to": u1.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := time.Now().UTC().AddDate(-3, 0, -1)
	var updated struct {
		User    models.User    `json:"user"`
		Profile models.Profile `json:"profile"`
	}
	env.decode(env.do(http.MethodPut, "/api/profile", u1.Token, map[string]any{
		"first_name":   "Alice",
		"job_title":    "Engineer",
		"reporting_to": u2.ID,
		"start_date":   start,
	}), http.StatusOK, &updated)
	assert.Equal(t, "Alice", updated.User.FirstName)
	require.NotNil(t, updated.Profile.ReportingTo)
	assert.Equal(t, u2.ID, *updated.Profile.ReportingTo)

	var profile map[string]any
	env.decode(env.do(http.MethodGet, "/api/profile", u1.Token, nil), http.StatusOK, &profile)
	assert.EqualValues(t, 3, profile["years_of_experience"])

	var settings models.SettingsView
	env.decode(env.do(http.MethodPut, "/api/settings/appearance", u1.Token, map[string]any{
		"theme": "dark", "code_theme": "monokai", "sidebar_collapsed": true,
	}), http.StatusOK, &settings)
	assert.Equal(t, "dark", settings.Appearance.Theme)

	assert.Equal(t, http.StatusUnprocessableEntity, env.do(http.MethodPut, "/api/settings/appearance", u1.Token, map[string]any{
		"theme": "neon", "code_theme": "monokai",
	}).Code)

	env.decode(env.do(http.MethodPut, "/api/settings/integrations", u1.Token, map[string]any{
		"github_access_token": "ghp_x",
	}), http.StatusOK, &settings)
	assert.True(t, settings.GitHubConnected)
	assert.False(t, settings.JiraConnected)

	body, contentType := multipartBody(t, nil, "avatar", "me.txt", "text/plain", "nope")
	req := httptest.NewRequest(http.MethodPost, "/api/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, env.send(req, u1.Token).Code)

	body, contentType = multipartBody(t, nil, "avatar", "me.png", "image/png", "png")
	req = httptest.NewRequest(http.MethodPost, "/api/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	var withAvatar models.Profile
	env.decode(env.send(req, u1.Token), http.StatusOK, &withAvatar)
	assert.True(t, strings.HasPrefix(withAvatar.AvatarURL, "/media/profile_pictures/"))
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("leaving")
	u2 := env.register("staying")
	p := env.createProject(u1, "Gone", u2.ID)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/profile", u1.Token, nil).Code)

	_, err := env.db.GetProjectByID(context.Background(), p.ID)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/auth/me", u1.Token, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/auth/me", u2.Token, nil).Code)
}

func TestDashboardAndSearch(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.register("owner")
	u2 := env.register("outsider")
	p := env.createProject(u1, "Roadmap")

	for _, status := range []string{"TODO", "IN_PROGRESS", "DONE"} {
		rec := env.do(http.MethodPost, "/api/tasks", u1.Token, map[string]any{
			"project_id": p.ID, "title": "Roadmap " + status, "assigned_to": u1.ID, "status": status,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var dash struct {
		Stats struct {
			TotalProjects  int `json:"total_projects"`
			PendingTasks   int `json:"pending_tasks"`
			CompletedTasks int `json:"completed_tasks"`
		} `json:"stats"`
		UpcomingTasks []taskView `json:"upcoming_tasks"`
	}
	env.decode(env.do(http.MethodGet, "/api/dashboard", u1.Token, nil), http.StatusOK, &dash)
	assert.Equal(t, 1, dash.Stats.TotalProjects)
	assert.Equal(t, 2, dash.Stats.PendingTasks)
	assert.Equal(t, 1, dash.Stats.CompletedTasks)
	assert.Len(t, dash.UpcomingTasks, 2)

	var results models.SearchResults
	env.decode(env.do(http.MethodGet, "/api/search?q=roadmap", u1.Token, nil), http.StatusOK, &results)
	assert.Len(t, results.Projects, 1)
	assert.Len(t, results.Tasks, 3)

	env.decode(env.do(http.MethodGet, "/api/search?q=roadmap", u2.Token, nil), http.StatusOK, &results)
	assert.Empty(t, results.Projects)
	assert.Empty(t, results.Tasks)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/api/nope", "", nil)
	resp := env.decode(rec, http.StatusNotFound, nil)
	assert.False(t, resp.Success)
}
