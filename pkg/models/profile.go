package models

import "time"

// UserType is the professional role recorded on a profile.
type UserType string

const (
	UserTypeJunior    UserType = "JUNIOR"
	UserTypeMid       UserType = "MID"
	UserTypeSenior    UserType = "SENIOR"
	UserTypeLead      UserType = "LEAD"
	UserTypeManager   UserType = "MANAGER"
	UserTypeArchitect UserType = "ARCHITECT"
	UserTypeDevOps    UserType = "DEVOPS"
	UserTypeQA        UserType = "QA"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "FULL_TIME"
	EmploymentPartTime EmploymentType = "PART_TIME"
	EmploymentContract EmploymentType = "CONTRACT"
	EmploymentIntern   EmploymentType = "INTERN"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	CodeThemeGitHub    = "github"
	CodeThemeMonokai   = "monokai"
	CodeThemeDracula   = "dracula"
	CodeThemeSolarized = "solarized"
)

// Profile is created together with its User and removed with it.
type Profile struct {
	UserID         string         `json:"user_id" db:"user_id"`
	EmployeeID     string         `json:"employee_id" db:"employee_id"`
	AvatarURL      string         `json:"avatar_url,omitempty" db:"avatar_url"`
	AvatarKey      string         `json:"-" db:"avatar_key"`
	Bio            string         `json:"bio" db:"bio"`
	UserType       UserType       `json:"user_type" db:"user_type"`
	EmploymentType EmploymentType `json:"employment_type" db:"employment_type"`
	JobTitle       string         `json:"job_title" db:"job_title"`
	Department     string         `json:"department" db:"department"`
	Team           string         `json:"team" db:"team"`
	ReportingTo    *string        `json:"reporting_to,omitempty" db:"reporting_to"`
	StartDate      *time.Time     `json:"start_date,omitempty" db:"start_date"`

	WorkEmail       string `json:"work_email" db:"work_email"`
	WorkPhone       string `json:"work_phone" db:"work_phone"`
	MobilePhone     string `json:"mobile_phone" db:"mobile_phone"`
	GitHubUsername  string `json:"github_username" db:"github_username"`
	GitHubProfile   string `json:"github_profile" db:"github_profile"`
	LinkedInProfile string `json:"linkedin_profile" db:"linkedin_profile"`
	PersonalWebsite string `json:"personal_website" db:"personal_website"`
	PrimarySkills   string `json:"primary_skills" db:"primary_skills"`
	SecondarySkills string `json:"secondary_skills" db:"secondary_skills"`
	Timezone        string `json:"timezone" db:"timezone"`

	// Appearance
	Theme            string `json:"theme" db:"theme"`
	SidebarCollapsed bool   `json:"sidebar_collapsed" db:"sidebar_collapsed"`
	CodeTheme        string `json:"code_theme" db:"code_theme"`

	// Integrations
	GitHubAccessToken string `json:"-" db:"github_access_token"`
	GitLabAccessToken string `json:"-" db:"gitlab_access_token"`
	JiraAccessToken   string `json:"-" db:"jira_access_token"`

	// Notifications
	EmailNotifications   bool `json:"email_notifications" db:"email_notifications"`
	DesktopNotifications bool `json:"desktop_notifications" db:"desktop_notifications"`
	MentionNotifications bool `json:"mention_notifications" db:"mention_notifications"`

	DateJoined   time.Time `json:"date_joined" db:"date_joined"`
	LastModified time.Time `json:"last_modified" db:"last_modified"`
}

// NewProfile returns the default profile for a freshly created user.
func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:               userID,
		UserType:             UserTypeJunior,
		EmploymentType:       EmploymentFullTime,
		Theme:                ThemeSystem,
		CodeTheme:            CodeThemeGitHub,
		EmailNotifications:   true,
		DesktopNotifications: true,
		MentionNotifications: true,
		DateJoined:           now,
		LastModified:         now,
	}
}

// ProfileUpdateRequest carries the editable personal and professional fields.
type ProfileUpdateRequest struct {
	FirstName       string         `json:"first_name" validate:"max=150"`
	LastName        string         `json:"last_name" validate:"max=150"`
	Email           string         `json:"email" validate:"omitempty,email"`
	EmployeeID      string         `json:"employee_id" validate:"max=50"`
	Bio             string         `json:"bio" validate:"max=500"`
	UserType        UserType       `json:"user_type" validate:"omitempty,oneof=JUNIOR MID SENIOR LEAD MANAGER ARCHITECT DEVOPS QA"`
	EmploymentType  EmploymentType `json:"employment_type" validate:"omitempty,oneof=FULL_TIME PART_TIME CONTRACT INTERN"`
	JobTitle        string         `json:"job_title" validate:"max=100"`
	Department      string         `json:"department" validate:"max=100"`
	Team            string         `json:"team" validate:"max=100"`
	ReportingTo     *string        `json:"reporting_to"`
	StartDate       *time.Time     `json:"start_date"`
	WorkEmail       string         `json:"work_email" validate:"omitempty,email"`
	WorkPhone       string         `json:"work_phone" validate:"max=20"`
	MobilePhone     string         `json:"mobile_phone" validate:"max=20"`
	GitHubUsername  string         `json:"github_username" validate:"max=50"`
	GitHubProfile   string         `json:"github_profile" validate:"omitempty,url"`
	LinkedInProfile string         `json:"linkedin_profile" validate:"omitempty,url"`
	PersonalWebsite string         `json:"personal_website" validate:"omitempty,url"`
	PrimarySkills   string         `json:"primary_skills"`
	SecondarySkills string         `json:"secondary_skills"`
	Timezone        string         `json:"timezone" validate:"max=50"`
}

// AppearanceSettings is the payload of the appearance settings form.
type AppearanceSettings struct {
	Theme            string `json:"theme" validate:"required,oneof=light dark system"`
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
	CodeTheme        string `json:"code_theme" validate:"required,oneof=github monokai dracula solarized"`
}

type NotificationSettings struct {
	EmailNotifications   bool `json:"email_notifications"`
	DesktopNotifications bool `json:"desktop_notifications"`
	MentionNotifications bool `json:"mention_notifications"`
}

// IntegrationSettings holds third-party access tokens. Empty values clear a token.
type IntegrationSettings struct {
	GitHubAccessToken string `json:"github_access_token" validate:"max=255"`
	GitLabAccessToken string `json:"gitlab_access_token" validate:"max=255"`
	JiraAccessToken   string `json:"jira_access_token" validate:"max=255"`
}

// SettingsView is what the settings page shows; tokens are reported as connected flags.
type SettingsView struct {
	Appearance      AppearanceSettings   `json:"appearance"`
	Notifications   NotificationSettings `json:"notifications"`
	GitHubConnected bool                 `json:"github_connected"`
	GitLabConnected bool                 `json:"gitlab_connected"`
	JiraConnected   bool                 `json:"jira_connected"`
}

// Settings builds the settings view of a profile.
func (p *Profile) Settings() SettingsView {
	return SettingsView{
		Appearance: AppearanceSettings{
			Theme:            p.Theme,
			SidebarCollapsed: p.SidebarCollapsed,
			CodeTheme:        p.CodeTheme,
		},
		Notifications: NotificationSettings{
			EmailNotifications:   p.EmailNotifications,
			DesktopNotifications: p.DesktopNotifications,
			MentionNotifications: p.MentionNotifications,
		},
		GitHubConnected: p.GitHubAccessToken != "",
		GitLabConnected: p.GitLabAccessToken != "",
		JiraConnected:   p.JiraAccessToken != "",
	}
}
