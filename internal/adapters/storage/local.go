// internal/adapters/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

// TempPrefix marks in-flight uploads inside the photo directory
const TempPrefix = ".upload-"

const maxKeyAttempts = 5

// LocalPhotoStore keeps photo blobs as files in a single directory
type LocalPhotoStore struct {
	dir    string
	logger *slog.Logger
}

var (
	_ ports.PhotoStore  = (*LocalPhotoStore)(nil)
	_ ports.PhotoLister = (*LocalPhotoStore)(nil)
)

// NewLocalPhotoStore creates dir if needed
func NewLocalPhotoStore(dir string, logger *slog.Logger) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}

	return &LocalPhotoStore{
		dir:    dir,
		logger: logger.With(slog.String("storage", "local")),
	}, nil
}

// Dir returns the photo directory
func (l *LocalPhotoStore) Dir() string {
	return l.dir
}

// Save streams r into a temp file and publishes it under a key that does not
// exist yet. Readers only ever see complete blobs.
func (l *LocalPhotoStore) Save(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	tmp, err := os.CreateTemp(l.dir, TempPrefix+"*")
	if err != nil {
		return "", domain.NewStorageError("failed to create temp photo", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", domain.NewStorageError("failed to write photo", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", domain.NewStorageError("failed to sync photo", err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.NewStorageError("failed to close photo", err)
	}
	if err := ctx.Err(); err != nil {
		return "", domain.NewStorageError("photo upload cancelled", err)
	}

	key := SanitizeName(suggestedName)
	ext := filepath.Ext(key)
	if ext == "" {
		if mt, err := mimetype.DetectFile(tmpName); err == nil {
			ext = mt.Extension()
		}
	}
	if !ValidKey(key) {
		key = FreshKey(ext)
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		err := os.Link(tmpName, filepath.Join(l.dir, key))
		if err == nil {
			l.logger.InfoContext(ctx, "photo stored",
				slog.String("key", key),
				slog.String("suggested_name", suggestedName))
			return key, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", domain.NewStorageError("failed to publish photo", err)
		}

		l.logger.DebugContext(ctx, "photo key taken, assigning a fresh one",
			slog.String("key", key))
		key = FreshKey(ext)
	}

	return "", domain.NewStorageError("failed to publish photo", fmt.Errorf("no free key after %d attempts", maxKeyAttempts))
}

// Exists reports whether a blob is stored under key
func (l *LocalPhotoStore) Exists(ctx context.Context, key string) (bool, error) {
	if !ValidKey(key) {
		return false, nil
	}

	info, err := os.Stat(filepath.Join(l.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, domain.NewStorageError("failed to stat photo", err)
	}

	return info.Mode().IsRegular(), nil
}

// Open returns a reader over the blob stored under key
func (l *LocalPhotoStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, domain.PhotoNotFound(key)
	}

	f, err := os.Open(filepath.Join(l.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.PhotoNotFound(key)
		}
		return nil, domain.NewStorageError("failed to open photo", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, domain.NewStorageError("failed to stat photo", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, domain.PhotoNotFound(key)
	}

	return f, nil
}

// Keys lists every published blob key
func (l *LocalPhotoStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, domain.NewStorageError("failed to list photos", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !ValidKey(e.Name()) {
			continue
		}
		keys = append(keys, e.Name())
	}

	return keys, nil
}

// SweepTempFiles removes abandoned in-flight uploads older than maxAge
func (l *LocalPhotoStore) SweepTempFiles(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, domain.NewStorageError("failed to list photo directory", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !strings.HasPrefix(e.Name(), TempPrefix) || e.IsDir() {
			continue
		}

		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(l.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.logger.WarnContext(ctx, "failed to remove temp upload",
				slog.String("file", e.Name()),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	return removed, nil
}
