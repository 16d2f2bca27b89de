// internal/adapters/redis_adapter/cached_repository.go
package redis_a

import (
	"context"
	"log/slog"
	"time"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

// CachedInventoryRepository is a read-through cache in front of another repository.
// Reads fall back to the wrapped repository when the cache is unavailable.
// Mutations invalidate through Cache.Invalidate, so a read that fetched the
// previous row while a write was landing never repopulates the cache with it.
type CachedInventoryRepository struct {
	next   ports.InventoryRepository
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.InventoryRepository = (*CachedInventoryRepository)(nil)

// NewCachedInventoryRepository wraps next with cache
func NewCachedInventoryRepository(next ports.InventoryRepository, cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedInventoryRepository {
	return &CachedInventoryRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "inventory_cache")),
	}
}

func itemKey(id string) string {
	return BuildKey(PrefixInventory, "item", id)
}

func listKey() string {
	return BuildKey(PrefixInventory, "list")
}

func (r *CachedInventoryRepository) Create(ctx context.Context, name, description string, photo *string) (*domain.InventoryItem, error) {
	item, err := r.next.Create(ctx, name, description, photo)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, listKey())
	return item, nil
}

func (r *CachedInventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	var fetchErr error

	err := r.cache.GetOrSet(ctx, listKey(), &items, func() (interface{}, error) {
		fetched, err := r.next.List(ctx)
		fetchErr = err
		return fetched, err
	}, r.ttl)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		r.logger.WarnContext(ctx, "cache unavailable, reading through",
			slog.String("error", err.Error()))
		return r.next.List(ctx)
	}

	if items == nil {
		items = []domain.InventoryItem{}
	}
	return items, nil
}

func (r *CachedInventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var fetchErr error

	err := r.cache.GetOrSet(ctx, itemKey(id), &item, func() (interface{}, error) {
		fetched, err := r.next.GetByID(ctx, id)
		fetchErr = err
		return fetched, err
	}, r.ttl)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		r.logger.WarnContext(ctx, "cache unavailable, reading through",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return r.next.GetByID(ctx, id)
	}

	return &item, nil
}

func (r *CachedInventoryRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error) {
	item, err := r.next.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, itemKey(id), listKey())
	return item, nil
}

func (r *CachedInventoryRepository) SetPhoto(ctx context.Context, id, photo string) (*domain.InventoryItem, error) {
	item, err := r.next.SetPhoto(ctx, id, photo)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, itemKey(id), listKey())
	return item, nil
}

func (r *CachedInventoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, itemKey(id), listKey())
	return nil
}

func (r *CachedInventoryRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *CachedInventoryRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Invalidate(ctx, keys...); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}
