// Package access decides whether an actor may perform an action on a
// resource. Every check takes the actor id and the resource snapshot as
// arguments and returns nil, an errs.ErrForbidden or an errs.ErrNotFound
// (nil resource). An empty actor id is anonymous.
package access

import (
	"project-hub-backend/pkg/errs"
	"project-hub-backend/pkg/models"
)

// Action is what the actor wants to do with a resource.
type Action string

const (
	View          Action = "view"
	Create        Action = "create"
	Update        Action = "update"
	Delete        Action = "delete"
	Chat          Action = "chat"
	ConnectGitHub Action = "connect_github"
	Manage        Action = "manage" // collaborator management
)

// IsProjectMember reports whether actorID owns or collaborates on p.
func IsProjectMember(actorID string, p *models.Project) bool {
	if actorID == "" || p == nil {
		return false
	}
	return p.OwnerID == actorID || p.HasCollaborator(actorID)
}

// IsProjectOwner reports whether actorID is the exact owner of p.
func IsProjectOwner(actorID string, p *models.Project) bool {
	return actorID != "" && p != nil && p.OwnerID == actorID
}

// Project checks project-level actions. View and Chat need membership,
// everything else needs ownership.
func Project(actorID string, p *models.Project, action Action) error {
	if p == nil {
		return errs.NotFound("project", "")
	}
	switch action {
	case View, Chat:
		if IsProjectMember(actorID, p) {
			return nil
		}
		return errs.Forbidden("you do not have access to this project")
	case Update, Delete, ConnectGitHub, Manage:
		if IsProjectOwner(actorID, p) {
			return nil
		}
		return errs.Forbidden("only the project owner can do this")
	}
	return errs.Forbidden("unsupported project action " + string(action))
}

// Task checks task-level actions. p must be the task's project; for Create
// it is the target project and t may be nil.
func Task(actorID string, t *models.Task, p *models.Project, action Action) error {
	if p == nil {
		return errs.NotFound("project", "")
	}
	if action == Create {
		if IsProjectMember(actorID, p) {
			return nil
		}
		return errs.Forbidden("you cannot add tasks to this project")
	}
	if t == nil {
		return errs.NotFound("task", "")
	}
	if t.ProjectID != p.ID {
		return errs.NotFound("project", t.ProjectID)
	}
	switch action {
	case View, Update:
		if IsProjectOwner(actorID, p) || (actorID != "" && t.IsAssignedTo(actorID)) {
			return nil
		}
		return errs.Forbidden("you do not have access to this task")
	case Delete:
		if IsProjectOwner(actorID, p) {
			return nil
		}
		return errs.Forbidden("only the project owner can delete tasks")
	}
	return errs.Forbidden("unsupported task action " + string(action))
}

// Note allows every action to the note's owner only.
func Note(actorID string, n *models.Note) error {
	if n == nil {
		return errs.NotFound("note", "")
	}
	if actorID != "" && n.OwnerID == actorID {
		return nil
	}
	return errs.Forbidden("you do not have access to this note")
}

// Article lets any authenticated actor read or create; update and delete are for the author.
func Article(actorID string, a *models.KnowledgeBase, action Action) error {
	if actorID == "" {
		return errs.Forbidden("authentication required")
	}
	if action == Create {
		return nil
	}
	if a == nil {
		return errs.NotFound("article", "")
	}
	switch action {
	case View:
		return nil
	case Update, Delete:
		if a.IsAuthoredBy(actorID) {
			return nil
		}
		return errs.Forbidden("only the author can modify this article")
	}
	return errs.Forbidden("unsupported article action " + string(action))
}

// DirectMessage lets either party view a direct message.
func DirectMessage(actorID string, m *models.Message) error {
	if m == nil {
		return errs.NotFound("message", "")
	}
	if actorID == "" || !m.IsDirect() {
		return errs.Forbidden("you do not have access to this message")
	}
	if m.SenderID == actorID || *m.RecipientID == actorID {
		return nil
	}
	return errs.Forbidden("you do not have access to this message")
}

// File checks project file actions. Listing and uploading need project
// membership; deletion is for the project owner or the uploader.
func File(actorID string, f *models.File, p *models.Project, action Action) error {
	if p == nil {
		return errs.NotFound("project", "")
	}
	switch action {
	case View, Create:
		return Project(actorID, p, View)
	case Delete:
		if f == nil {
			return errs.NotFound("file", "")
		}
		if IsProjectOwner(actorID, p) || (actorID != "" && f.IsUploadedBy(actorID)) {
			return nil
		}
		return errs.Forbidden("only the project owner or the uploader can delete this file")
	}
	return errs.Forbidden("unsupported file action " + string(action))
}
