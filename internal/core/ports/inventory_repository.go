// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-api/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory.
// It is implemented by the snapshot file store and the SQL adapter.
type InventoryRepository interface {
	Create(ctx context.Context, name, description string, photo *string) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error)
	SetPhoto(ctx context.Context, id, photo string) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
