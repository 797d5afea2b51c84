package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLDatabase {
	t.Helper()
	ctx := context.Background()
	db, err := NewSQLiteDatabase(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func createUser(t *testing.T, db *SQLDatabase, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	_, err := db.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func createProject(t *testing.T, db *SQLDatabase, owner *models.User, title string, collaborators ...string) *models.Project {
	t.Helper()
	p := &models.Project{Title: title, Description: "d", OwnerID: owner.ID, CollaboratorIDs: collaborators}
	require.NoError(t, db.CreateProject(context.Background(), p))
	return p
}

func strPtr(s string) *string { return &s }

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestCreateUserCreatesProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	profile, err := db.CreateUser(ctx, u)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, u.ID, profile.UserID)

	stored, err := db.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeJunior, stored.UserType)
	assert.Equal(t, models.ThemeSystem, stored.Theme)
	assert.True(t, stored.EmailNotifications)

	byName, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "hash", byName.Password)
}

func TestDuplicateUsernameIsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "alice")

	_, err := db.CreateUser(context.Background(), &models.User{Username: "alice", Password: "x"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestGetMissingRecordsAreNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetProjectBySlug(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetNote(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, db.DeleteTask(ctx, "nope"), errs.ErrNotFound)
	_, err = db.DeleteProject(ctx, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	p.Bio = "hello"
	p.ReportingTo = &bob.ID
	p.StartDate = &start
	p.SidebarCollapsed = true
	require.NoError(t, db.UpdateProfile(ctx, p))

	got, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	require.NotNil(t, got.ReportingTo)
	assert.Equal(t, bob.ID, *got.ReportingTo)
	require.NotNil(t, got.StartDate)
	assert.True(t, start.Equal(*got.StartDate))
	assert.True(t, got.SidebarCollapsed)
}

func TestProjectCollaboratorsAndSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	p := createProject(t, db, alice, "Website Redesign", bob.ID, alice.ID, bob.ID)
	assert.Regexp(t, `^website-redesign-[0-9a-f]{8}$`, p.Slug)
	assert.Equal(t, models.ProjectPlanning, p.Status)
	assert.Equal(t, "main", p.GitHubBranch)
	assert.Equal(t, []string{bob.ID}, p.CollaboratorIDs)

	got, err := db.GetProjectBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, got.CollaboratorIDs)

	got.Title = "Something Else"
	require.NoError(t, db.UpdateProject(ctx, got))
	again, err := db.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Something Else", again.Title)
	assert.Equal(t, p.Slug, again.Slug)

	require.NoError(t, db.SetProjectCollaborators(ctx, p.ID, []string{carol.ID}))
	again, err = db.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{carol.ID}, again.CollaboratorIDs)

	bobs, err := db.ListProjectsForUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobs)
	carols, err := db.ListProjectsForUser(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, carols, 1)
	assert.Equal(t, p.ID, carols[0].ID)
}

func TestUnknownCollaboratorIsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice")

	err := db.CreateProject(context.Background(), &models.Project{Title: "x", OwnerID: alice.ID, CollaboratorIDs: []string{"ghost"}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestTaskOrderingPutsMissingDueDatesLast(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	p := createProject(t, db, alice, "Tasks")

	later := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, task := range []*models.Task{
		{Title: "none", ProjectID: p.ID},
		{Title: "later", ProjectID: p.ID, DueDate: &later},
		{Title: "sooner", ProjectID: p.ID, DueDate: &sooner},
	} {
		require.NoError(t, db.CreateTask(ctx, task))
	}

	tasks, err := db.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "sooner", tasks[0].Title)
	assert.Equal(t, "later", tasks[1].Title)
	assert.Equal(t, "none", tasks[2].Title)
	assert.Equal(t, models.TaskTodo, tasks[2].Status)
	assert.Equal(t, models.PriorityMedium, tasks[2].Priority)

	byProjects, err := db.ListTasksByProjects(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Len(t, byProjects, 3)
	empty, err := db.ListTasksByProjects(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteTaskDetachesNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	p := createProject(t, db, alice, "P")
	task := &models.Task{Title: "t", ProjectID: p.ID}
	require.NoError(t, db.CreateTask(ctx, task))

	note := &models.Note{Title: "n", Content: "c", OwnerID: alice.ID, TaskID: &task.ID}
	require.NoError(t, db.CreateNote(ctx, note, nil))

	require.NoError(t, db.DeleteTask(ctx, task.ID))
	got, err := db.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TaskID)
}

func TestDeleteProjectCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	p := createProject(t, db, alice, "Doomed", bob.ID)
	other := createProject(t, db, alice, "Survivor")

	task := &models.Task{Title: "t", ProjectID: p.ID, AssignedTo: &bob.ID}
	require.NoError(t, db.CreateTask(ctx, task))
	inside := &models.Note{Title: "inside", Content: "c", OwnerID: alice.ID, ProjectID: &p.ID}
	require.NoError(t, db.CreateNote(ctx, inside, nil))
	elsewhere := &models.Note{Title: "elsewhere", Content: "c", OwnerID: bob.ID, ProjectID: &other.ID, TaskID: &task.ID}
	require.NoError(t, db.CreateNote(ctx, elsewhere, nil))
	require.NoError(t, db.CreateFile(ctx, &models.File{Name: "a.txt", BlobKey: "project_files/a", URL: "/media/a", ProjectID: p.ID, UploadedBy: &bob.ID}))
	require.NoError(t, db.CreateMessage(ctx, &models.Message{SenderID: bob.ID, ProjectID: &p.ID, Content: "hi", AttachmentKey: "chat_attachments/b"}))

	keys, err := db.DeleteProject(ctx, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project_files/a", "chat_attachments/b"}, keys)

	_, err = db.GetProjectByID(ctx, p.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetNote(ctx, inside.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	kept, err := db.GetNote(ctx, elsewhere.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.TaskID)
	require.NotNil(t, kept.ProjectID)
	assert.Equal(t, other.ID, *kept.ProjectID)

	msgs, err := db.ListProjectMessages(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	owned := createProject(t, db, bob, "Bob's")
	shared := createProject(t, db, alice, "Shared", bob.ID)
	task := &models.Task{Title: "t", ProjectID: shared.ID, AssignedTo: &bob.ID}
	require.NoError(t, db.CreateTask(ctx, task))
	article := &models.KnowledgeBase{Title: "kb", Content: "c", AuthorID: &bob.ID}
	require.NoError(t, db.CreateArticle(ctx, article, nil))
	require.NoError(t, db.CreateMessage(ctx, &models.Message{SenderID: alice.ID, RecipientID: &bob.ID, Content: "hey"}))

	profile, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	profile.ReportingTo = &bob.ID
	require.NoError(t, db.UpdateProfile(ctx, profile))
	bobProfile, err := db.GetProfile(ctx, bob.ID)
	require.NoError(t, err)
	bobProfile.AvatarKey = "profile_pictures/bob.png"
	require.NoError(t, db.UpdateProfile(ctx, bobProfile))

	keys, err := db.DeleteUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, keys, "profile_pictures/bob.png")

	_, err = db.GetUserByID(ctx, bob.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetProfile(ctx, bob.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = db.GetProjectByID(ctx, owned.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	gotTask, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, gotTask.AssignedTo)

	gotArticle, err := db.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Nil(t, gotArticle.AuthorID)

	gotShared, err := db.GetProjectByID(ctx, shared.ID)
	require.NoError(t, err)
	assert.Empty(t, gotShared.CollaboratorIDs)

	aliceProfile, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, aliceProfile.ReportingTo)

	msgs, err := db.ListUserDirectMessages(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTagsAndNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	urgent := &models.Tag{Name: "urgent"}
	require.NoError(t, db.CreateTag(ctx, urgent))
	assert.Equal(t, models.DefaultTagColor, urgent.Color)
	idea := &models.Tag{Name: "idea", Color: "#ff0000"}
	require.NoError(t, db.CreateTag(ctx, idea))

	err := db.CreateTag(ctx, &models.Tag{Name: "urgent"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	note := &models.Note{Title: "n", Content: "c", OwnerID: alice.ID}
	require.NoError(t, db.CreateNote(ctx, note, []string{urgent.ID, idea.ID, urgent.ID}))
	require.Len(t, note.Tags, 2)
	assert.Equal(t, "idea", note.Tags[0].Name)

	note.Title = "renamed"
	require.NoError(t, db.UpdateNote(ctx, note, []string{urgent.ID}))
	got, err := db.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "urgent", got.Tags[0].Name)

	err = db.UpdateNote(ctx, note, []string{"ghost"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	list, err := db.ListNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Tags, 1)

	require.NoError(t, db.DeleteNote(ctx, note.ID))
	list, err = db.ListNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListArticlesSearchesTitleContentAndTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	golang := &models.Tag{Name: "golang"}
	require.NoError(t, db.CreateTag(ctx, golang))
	for _, a := range []struct {
		title, content string
		tags           []string
	}{
		{"Deploying", "Use the pipeline", nil},
		{"Style", "Keep 100% coverage", nil},
		{"Errors", "wrap them", []string{golang.ID}},
	} {
		require.NoError(t, db.CreateArticle(ctx, &models.KnowledgeBase{Title: a.title, Content: a.content, AuthorID: &alice.ID}, a.tags))
	}

	all, err := db.ListArticles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byTitle, err := db.ListArticles(ctx, "deploy")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Deploying", byTitle[0].Title)

	byTag, err := db.ListArticles(ctx, "GOLANG")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Errors", byTag[0].Title)
	assert.Len(t, byTag[0].Tags, 1)

	literal, err := db.ListArticles(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Style", literal[0].Title)
}

func TestMessagesConversations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	p := createProject(t, db, alice, "Chat", bob.ID)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*models.Message{
		{SenderID: alice.ID, RecipientID: &bob.ID, Content: "1", CreatedAt: base},
		{SenderID: bob.ID, RecipientID: &alice.ID, Content: "2", CreatedAt: base.Add(time.Minute)},
		{SenderID: alice.ID, RecipientID: &carol.ID, Content: "3", CreatedAt: base.Add(2 * time.Minute)},
		{SenderID: bob.ID, ProjectID: &p.ID, Content: "4", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, m := range msgs {
		require.NoError(t, db.CreateMessage(ctx, m))
	}

	direct, err := db.ListDirectMessages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, direct, 2)
	assert.Equal(t, "1", direct[0].Content)
	assert.Equal(t, "2", direct[1].Content)
	assert.False(t, direct[0].IsRead)

	project, err := db.ListProjectMessages(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, project, 1)
	assert.Equal(t, "4", project[0].Content)

	all, err := db.ListUserDirectMessages(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMessageMustHaveExactlyOneAudience(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	err := db.CreateMessage(ctx, &models.Message{SenderID: alice.ID, Content: "nowhere"})
	assert.Error(t, err)
}

func TestSearchIsScopedToActor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	mine := createProject(t, db, alice, "Apollo launch")
	createProject(t, db, bob, "Apollo secret")
	require.NoError(t, db.CreateTask(ctx, &models.Task{Title: "Apollo checklist", ProjectID: mine.ID}))
	require.NoError(t, db.CreateNote(ctx, &models.Note{Title: "apollo notes", Content: "c", OwnerID: bob.ID}, nil))
	require.NoError(t, db.CreateArticle(ctx, &models.KnowledgeBase{Title: "Apollo history", Content: "c", AuthorID: &bob.ID}, nil))

	res, err := db.Search(ctx, alice.ID, "apollo")
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, mine.ID, res.Projects[0].ID)
	assert.Len(t, res.Tasks, 1)
	assert.Empty(t, res.Notes)
	assert.Len(t, res.Articles, 1)

	empty, err := db.Search(ctx, alice.ID, "  ")
	require.NoError(t, err)
	assert.Empty(t, empty.Projects)
}

func TestFiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	p := createProject(t, db, alice, "Files")

	f := &models.File{Name: "brief.pdf", BlobKey: "project_files/x_brief.pdf", URL: "/media/project_files/x_brief.pdf", ProjectID: p.ID, UploadedBy: strPtr(alice.ID)}
	require.NoError(t, db.CreateFile(ctx, f))

	list, err := db.ListFilesByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "project_files/x_brief.pdf", list[0].BlobKey)

	require.NoError(t, db.DeleteFile(ctx, f.ID))
	assert.ErrorIs(t, db.DeleteFile(ctx, f.ID), errs.ErrNotFound)
}

func TestTaskOrderingAcrossTimezones(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	p := createProject(t, db, alice, "Zones")

	// 2026-10-21T04:00Z written as the evening before in New York.
	laterLocal := time.Date(2026, 10, 20, 23, 0, 0, 0, time.FixedZone("EST", -5*60*60))
	later := &models.Task{Title: "later", ProjectID: p.ID, DueDate: &laterLocal}
	require.NoError(t, db.CreateTask(ctx, later))

	sooner := &models.Task{Title: "sooner", ProjectID: p.ID}
	require.NoError(t, db.CreateTask(ctx, sooner))
	// 2026-10-21T01:00Z written in Tokyo time.
	soonerLocal := time.Date(2026, 10, 21, 10, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	sooner.DueDate = &soonerLocal
	require.NoError(t, db.UpdateTask(ctx, sooner))

	tasks, err := db.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "sooner", tasks[0].Title)
	assert.Equal(t, "later", tasks[1].Title)
	require.NotNil(t, tasks[1].DueDate)
	assert.True(t, laterLocal.Equal(*tasks[1].DueDate))
}

func TestSearchMatchesNonASCII(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createProject(t, db, alice, "Émile Café")
	require.NoError(t, db.CreateArticle(ctx, &models.KnowledgeBase{Title: "Straße", Content: "Über alles", AuthorID: &alice.ID}, nil))

	for _, q := range []string{"ÉMILE", "Émile", "émile", "café"} {
		res, err := db.Search(ctx, alice.ID, q)
		require.NoError(t, err)
		assert.Len(t, res.Projects, 1, q)
	}

	articles, err := db.ListArticles(ctx, "über")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Straße", articles[0].Title)

	articles, err = db.ListArticles(ctx, "STRASSE")
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestListProjectsOrdersByLastUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	alice := createUser(t, db, "alice")
	first := createProject(t, db, alice, "First")
	createProject(t, db, alice, "Second")

	first.Description = "edited"
	require.NoError(t, db.UpdateProject(ctx, first))

	projects, err := db.ListProjectsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "First", projects[0].Title)
	assert.Equal(t, "Second", projects[1].Title)
}

func TestUpdateAccountIsAtomic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	profile, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	alice.FirstName = "Alice"
	profile.Bio = "hi"
	profile.ReportingTo = strPtr("no-such-user")
	err = db.UpdateAccount(ctx, alice, profile)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	stored, err := db.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.FirstName)

	profile.ReportingTo = nil
	require.NoError(t, db.UpdateAccount(ctx, alice, profile))
	stored, err = db.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.FirstName)
	got, err := db.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Bio)
}
