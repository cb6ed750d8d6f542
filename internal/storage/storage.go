package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hope-foundation/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
	// DefaultBaseURL is where objects are publicly reachable when no
	// explicit base URL is configured.
	DefaultBaseURL() string
}

// Storage wraps an ObjectStorage backend and maps keys to public URLs.
type Storage struct {
	backend ObjectStorage
	baseURL string
}

// NewStorage wraps backend. An empty baseURL falls back to the backend default.
func NewStorage(backend ObjectStorage, baseURL string) *Storage {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(backend.DefaultBaseURL(), "/")
	}
	return &Storage{backend: backend, baseURL: baseURL}
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "", "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	return NewStorage(backend, cfg.PublicBaseURL), nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

// KeyFromURL reverses URL. It reports false for URLs that do not point
// into this bucket, such as external images pasted by an editor.
func (s *Storage) KeyFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	prefix := s.baseURL + "/"
	if s.baseURL == "" || !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(raw, prefix))
	if err != nil || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
