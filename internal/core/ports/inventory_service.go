// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"io"

	"github.com/ammerola/inventory-api/internal/core/domain"
)

// InventoryService defines the application service port for inventory.
// This interface is implemented by the application service.
type InventoryService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)
	Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	AttachPhoto(ctx context.Context, id string, r io.Reader, filename string) (*domain.InventoryItem, error)
	OpenPhoto(ctx context.Context, id string) (io.ReadCloser, error)
	Search(ctx context.Context, id string, includePhoto bool) (*domain.InventoryItem, error)
}

// RegisterInput holds the fields of a registration request
type RegisterInput struct {
	Name        string
	Description string
	Photo       io.Reader
	PhotoName   string
}
