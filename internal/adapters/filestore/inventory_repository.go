// internal/adapters/filestore/inventory_repository.go
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

const (
	// SnapshotFileName is the name of the snapshot inside the cache directory
	SnapshotFileName = "inventory.json"
	// LockFileName is flocked around every read-modify-write of the snapshot
	LockFileName = SnapshotFileName + ".lock"
	// SequenceFileName holds the highest id ever issued
	SequenceFileName = SnapshotFileName + ".seq"
)

// InventoryRepository keeps the whole collection in one JSON file. Every
// mutation rewrites the snapshot; every read loads it fresh.
//
// Writers are serialized within the process by mu and across processes
// sharing the cache directory by an flock on LockFileName.
type InventoryRepository struct {
	path    string
	seqPath string
	mu      sync.Mutex
	lock    *flock.Flock
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.InventoryRepository = (*InventoryRepository)(nil)

// Option configures an InventoryRepository
type Option func(*InventoryRepository)

// WithClock overrides the clock used for id generation
func WithClock(now func() time.Time) Option {
	return func(r *InventoryRepository) {
		r.now = now
	}
}

// NewInventoryRepository creates the cache directory if needed and returns a
// repository backed by <cacheDir>/inventory.json
func NewInventoryRepository(cacheDir string, logger *slog.Logger, opts ...Option) (*InventoryRepository, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	r := &InventoryRepository{
		path:    filepath.Join(cacheDir, SnapshotFileName),
		seqPath: filepath.Join(cacheDir, SequenceFileName),
		lock:    flock.New(filepath.Join(cacheDir, LockFileName)),
		now:     time.Now,
		logger:  logger.With(slog.String("component", "file_repository")),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Path returns the snapshot location
func (r *InventoryRepository) Path() string {
	return r.path
}

func (r *InventoryRepository) Create(ctx context.Context, name, description string, photo *string) (*domain.InventoryItem, error) {
	item, err := domain.NewInventoryItem(name, description, photo)
	if err != nil {
		return nil, err
	}

	err = r.withLock(func() error {
		items, err := r.load()
		if err != nil {
			return err
		}

		if item.ID, err = r.nextID(items); err != nil {
			return err
		}
		return r.persist(append(items, *item))
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "inventory item created",
		slog.String("id", item.ID))

	return item, nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return r.load()
}

func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	items, err := r.load()
	if err != nil {
		return nil, err
	}

	idx := indexOf(items, id)
	if idx < 0 {
		return nil, domain.ItemNotFound(id)
	}

	return &items[idx], nil
}

func (r *InventoryRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return r.mutate(ctx, id, func(item *domain.InventoryItem) {
		patch.Apply(item)
	})
}

func (r *InventoryRepository) SetPhoto(ctx context.Context, id, photo string) (*domain.InventoryItem, error) {
	if photo == "" {
		return nil, &domain.ValidationError{Field: "photo", Reason: "is required"}
	}

	return r.mutate(ctx, id, func(item *domain.InventoryItem) {
		item.Photo = &photo
	})
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	err := r.withLock(func() error {
		items, err := r.load()
		if err != nil {
			return err
		}

		idx := indexOf(items, id)
		if idx < 0 {
			return domain.ItemNotFound(id)
		}

		return r.persist(append(items[:idx], items[idx+1:]...))
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "inventory item deleted", slog.String("id", id))
	return nil
}

// Ping checks the snapshot is readable
func (r *InventoryRepository) Ping(ctx context.Context) error {
	_, err := r.load()
	return err
}

// mutate applies fn to the item with the given id and persists the result
// under the write lock. The snapshot is left untouched on any failure.
func (r *InventoryRepository) mutate(ctx context.Context, id string, fn func(*domain.InventoryItem)) (*domain.InventoryItem, error) {
	var updated *domain.InventoryItem
	err := r.withLock(func() error {
		items, err := r.load()
		if err != nil {
			return err
		}

		idx := indexOf(items, id)
		if idx < 0 {
			return domain.ItemNotFound(id)
		}

		fn(&items[idx])
		if err := r.persist(items); err != nil {
			return err
		}

		updated = items[idx].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "inventory item updated", slog.String("id", id))
	return updated, nil
}

// withLock runs fn holding both the in-process mutex and the lock file
func (r *InventoryRepository) withLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lock.Lock(); err != nil {
		return domain.NewStorageError("failed to lock snapshot", err)
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Error("failed to unlock snapshot", slog.String("error", err.Error()))
		}
	}()

	return fn()
}

func (r *InventoryRepository) load() ([]domain.InventoryItem, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.InventoryItem{}, nil
		}
		return nil, domain.NewStorageError("failed to read snapshot", err)
	}

	items := []domain.InventoryItem{}
	if len(bytes.TrimSpace(data)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, domain.NewStorageError("failed to decode snapshot", err)
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}

	return items, nil
}

// persist writes items to a temp file in the same directory and renames it
// over the snapshot.
func (r *InventoryRepository) persist(items []domain.InventoryItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return domain.NewStorageError("failed to encode snapshot", err)
	}

	return writeAtomic(r.path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domain.NewStorageError("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return domain.NewStorageError("failed to write "+filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return domain.NewStorageError("failed to sync "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewStorageError("failed to close "+filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewStorageError("failed to publish "+filepath.Base(path), err)
	}

	return nil
}

// nextID issues an id from the clock that is above every id issued before,
// including ids of deleted items. The high-water mark is recorded before the
// snapshot so a failed persist can only skip an id, never reuse one.
func (r *InventoryRepository) nextID(items []domain.InventoryItem) (string, error) {
	last, err := r.readSequence()
	if err != nil {
		return "", err
	}
	for i := range items {
		if n, err := strconv.ParseInt(items[i].ID, 10, 64); err == nil && n > last {
			last = n
		}
	}

	n := r.now().UnixNano()
	if n <= last {
		n = last + 1
	}
	for indexOf(items, strconv.FormatInt(n, 10)) >= 0 {
		n++
	}

	if err := writeAtomic(r.seqPath, []byte(strconv.FormatInt(n, 10)+"\n")); err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (r *InventoryRepository) readSequence() (int64, error) {
	data, err := os.ReadFile(r.seqPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, domain.NewStorageError("failed to read id sequence", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, domain.NewStorageError("failed to decode id sequence", err)
	}
	return n, nil
}

func indexOf(items []domain.InventoryItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
