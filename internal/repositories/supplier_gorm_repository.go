package repositories

import (
	"context"
	"errors"
	"fmt"

	"campusconnect/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSupplierRepository is a GORM implementation of SupplierRepository.
type GORMSupplierRepository struct {
	db *gorm.DB
}

// NewGORMSupplierRepository creates a new instance of GORMSupplierRepository.
func NewGORMSupplierRepository(db *gorm.DB) *GORMSupplierRepository {
	return &GORMSupplierRepository{
		db: db,
	}
}

// Create creates a new supplier in the database.
func (r *GORMSupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

// GetByOwner retrieves the supplier owned by the given user.
func (r *GORMSupplierRepository) GetByOwner(ctx context.Context, ownerUserID string) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "owner_user_id = ?", ownerUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("supplier owned by %s: %w", ownerUserID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get supplier by owner %s: %w", ownerUserID, err)
	}
	return &supplier, nil
}
