package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/media"
)

// Upload kinds, used as the object key prefix.
const (
	UploadEvents  = "events"
	UploadNews    = "news"
	UploadAuthors = "authors"
)

// ImageStore is the object storage used for uploaded images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(raw string) (string, bool)
}

// ImageReferences reports whether stored content still links to an image.
type ImageReferences interface {
	InUse(ctx context.Context, url string) (bool, error)
}

// UploadResult locates a stored image.
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// UploadService normalises and stores admin image uploads.
type UploadService struct {
	store ImageStore
	refs  ImageReferences
	log   *slog.Logger
}

// NewUploadService builds the service; store may be nil when no object
// storage is configured. Without refs every released image is deleted.
func NewUploadService(store ImageStore, refs ImageReferences, log *slog.Logger) *UploadService {
	return &UploadService{store: store, refs: refs, log: log}
}

func IsUploadKind(kind string) bool {
	switch kind {
	case UploadEvents, UploadNews, UploadAuthors:
		return true
	default:
		return false
	}
}

// Upload validates data as an image, resizes it and stores it under
// <kind>/<uuid>.<ext>.
func (s *UploadService) Upload(ctx context.Context, kind string, data []byte) (UploadResult, error) {
	if !IsUploadKind(kind) {
		return UploadResult{}, invalid("kind", "must be events, news or authors")
	}
	if s.store == nil {
		return UploadResult{}, ErrStorageDisabled
	}

	img, err := media.Normalize(data)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return UploadResult{}, invalid("file", "must be a JPEG, PNG, GIF or WebP image")
		}
		if errors.Is(err, media.ErrImageTooLarge) {
			return UploadResult{}, invalid("file", "image dimensions are too large")
		}
		return UploadResult{}, err
	}

	key := fmt.Sprintf("%s/%s.%s", kind, uuid.NewString(), img.Ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return UploadResult{}, fmt.Errorf("store image: %w", err)
	}

	return UploadResult{
		Key:    key,
		URL:    s.store.URL(key),
		Width:  img.Width,
		Height: img.Height,
	}, nil
}

// Release deletes the object behind url when it lives in our bucket and no
// event or news post links to it any more. Callers release after their own
// row has been updated, so only other references keep the object alive.
// Foreign URLs are ignored and failures are only logged.
func (s *UploadService) Release(ctx context.Context, url string) {
	if s.store == nil {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if s.refs != nil {
		inUse, err := s.refs.InUse(ctx, url)
		if err != nil {
			s.log.Warn("image reference check failed, keeping object", slog.String("key", key), logging.Err(err))
			return
		}
		if inUse {
			s.log.Debug("image still referenced", slog.String("key", key))
			return
		}
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("release image failed", slog.String("key", key), logging.Err(err))
	}
}
