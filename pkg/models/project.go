package models

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

// Project is a workspace owned by one user and shared with collaborators.
// The slug is assigned once at creation and never rewritten.
type Project struct {
	ID                 string        `json:"id" db:"id"`
	Title              string        `json:"title" db:"title"`
	Slug               string        `json:"slug" db:"slug"`
	Description        string        `json:"description" db:"description"`
	OwnerID            string        `json:"owner_id" db:"owner_id"`
	Status             ProjectStatus `json:"status" db:"status"`
	GitHubRepo         string        `json:"github_repo,omitempty" db:"github_repo"`
	GitHubBranch       string        `json:"github_branch,omitempty" db:"github_branch"`
	GitHubOrganization string        `json:"github_organization,omitempty" db:"github_organization"`
	GitHubProjectName  string        `json:"github_project_name,omitempty" db:"github_project_name"`
	GitHubAccessToken  string        `json:"-" db:"github_access_token"`
	IsGitHubConnected  bool          `json:"is_github_connected" db:"is_github_connected"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`

	CollaboratorIDs []string `json:"collaborator_ids" db:"-"`
}

// HasCollaborator reports whether userID is in the collaborator set.
func (p *Project) HasCollaborator(userID string) bool {
	return slices.Contains(p.CollaboratorIDs, userID)
}

type ProjectCreateRequest struct {
	Title           string        `json:"title" validate:"required,max=200"`
	Description     string        `json:"description" validate:"required"`
	Status          ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED ARCHIVED"`
	GitHubRepo      string        `json:"github_repo" validate:"omitempty,url"`
	CollaboratorIDs []string      `json:"collaborator_ids" validate:"dive,required"`
}

// ProjectUpdateRequest replaces the editable fields. Nil collaborator list keeps the current set.
type ProjectUpdateRequest struct {
	Title           string        `json:"title" validate:"required,max=200"`
	Description     string        `json:"description" validate:"required"`
	Status          ProjectStatus `json:"status" validate:"required,oneof=PLANNING ACTIVE ON_HOLD COMPLETED ARCHIVED"`
	GitHubRepo      string        `json:"github_repo" validate:"omitempty,url"`
	CollaboratorIDs []string      `json:"collaborator_ids" validate:"omitempty,dive,required"`
}

type CollaboratorsRequest struct {
	UserIDs []string `json:"user_ids" validate:"dive,required"`
}

type GitHubConnectRequest struct {
	Repo         string `json:"github_repo" validate:"required,url"`
	AccessToken  string `json:"github_access_token" validate:"required,max=255"`
	Branch       string `json:"github_branch" validate:"max=100"`
	Organization string `json:"github_organization" validate:"max=100"`
	ProjectName  string `json:"github_project_name" validate:"max=100"`
}

var (
	slugInvalid = regexp.MustCompile(`[^\w\s-]`)
	slugSpacing = regexp.MustCompile(`[-\s]+`)
)

// Slugify folds s to lowercase ASCII words joined by hyphens.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	v := slugInvalid.ReplaceAllString(strings.ToLower(b.String()), "")
	v = slugSpacing.ReplaceAllString(v, "-")
	return strings.Trim(v, "-_")
}

// NewSlug derives a project slug from its title plus a random 8 character suffix.
func NewSlug(title string) string {
	return Slugify(title + "-" + uuid.NewString()[:8])
}
