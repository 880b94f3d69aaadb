package repositories

import (
	"context"

	"campusconnect/internal/models"
)

// SupplierRepository defines the interface for supplier data access.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByOwner(ctx context.Context, ownerUserID string) (*models.Supplier, error)
}
