package repositories

import (
	"context"

	"campusconnect/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByIDs returns the products that exist among ids, keyed by ID, with
	// their supplier preloaded. Missing IDs are simply absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
