package models

import "time"

// File is an upload attached to a project. UploadedBy is nil once the uploader is deleted.
type File struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	BlobKey    string    `json:"-" db:"blob_key"`
	URL        string    `json:"url" db:"url"`
	ProjectID  string    `json:"project_id" db:"project_id"`
	UploadedBy *string   `json:"uploaded_by,omitempty" db:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// IsUploadedBy reports whether userID uploaded the file.
func (f *File) IsUploadedBy(userID string) bool {
	return f.UploadedBy != nil && *f.UploadedBy == userID
}
