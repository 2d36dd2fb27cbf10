// Package blobstore archives generated assessment and nutrition reports.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nutriscan/nutriscan/pkg/config"
)

var (
	// ErrNotFound is returned by Get when no blob exists under the key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that would resolve outside the store root.
	ErrInvalidKey = errors.New("invalid blob key")
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSegment reports whether s can be used as one path segment of a key:
// letters, digits, '-' and '_' only.
func ValidSegment(s string) bool {
	return segmentPattern.MatchString(s)
}

// checkKey rejects absolute keys and keys with empty, "." or ".." segments.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// Store abstracts blob storage for report documents.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// ReportKey is the object key of a report document.
func ReportKey(subjectID, kind, reportID string) string {
	return path.Join(subjectID, kind, reportID+".json")
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath), nil
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LocalStorage implements Store using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// path resolves key under BaseDir. The cleaned result must stay inside BaseDir.
func (s *LocalStorage) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	base := filepath.Clean(s.BaseDir)
	p := filepath.Join(base, filepath.FromSlash(key))
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return p, nil
}

// Put writes data under key, creating parent directories.
func (s *LocalStorage) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

// Get reads the blob stored under key.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
