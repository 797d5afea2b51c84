// Package storage keeps uploaded blobs (project files, chat attachments,
// profile pictures) and hands back a URL clients can fetch them from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"project-hub-backend/pkg/config"
	"project-hub-backend/pkg/utils"
)

// Namespaces group blobs by what uploaded them.
const (
	ProjectFiles    = "project_files"
	ChatAttachments = "chat_attachments"
	ProfilePictures = "profile_pictures"
)

var ErrBlobNotFound = errors.New("blob not found")

// Blob is a stored object.
type Blob struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// BlobStore stores and removes blobs. Keys are namespace-relative paths
// such as "project_files/abc123_report.pdf".
type BlobStore interface {
	Put(ctx context.Context, namespace, name, contentType string, r io.Reader) (*Blob, error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewBlobStore opens the backend selected by STORAGE_BACKEND.
func NewBlobStore(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageBackend {
	case "gcs":
		store, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "local", "":
		store, err := NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// objectKey builds a unique key under namespace while keeping the original
// file name readable. The display name is stored separately by callers.
func objectKey(namespace, name string) (string, error) {
	switch namespace {
	case ProjectFiles, ChatAttachments, ProfilePictures:
	default:
		return "", fmt.Errorf("unknown blob namespace %q", namespace)
	}
	prefix, err := utils.GenerateURLToken(9)
	if err != nil {
		return "", fmt.Errorf("generate blob key: %w", err)
	}
	return path.Join(namespace, prefix+"_"+sanitizeName(name)), nil
}

// sanitizeName keeps the base name and replaces anything outside a safe set.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}

// validKey rejects keys that could escape the store root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	return path.Clean(key) == key && !strings.HasPrefix(key, "../") && key != ".."
}
