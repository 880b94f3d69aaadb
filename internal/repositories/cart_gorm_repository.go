package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusconnect/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// ListByCustomer retrieves the customer's cart entries ordered by insertion.
func (r *GORMCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list cart for customer %s: %w", customerID, err)
	}
	return entries, nil
}

// Get retrieves one cart entry.
func (r *GORMCartRepository) Get(ctx context.Context, customerID, productID string) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart entry for product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart entry: %w", err)
	}
	return &entry, nil
}

// AddQuantity upserts on (customer_id, product_id), adding qty to an existing row.
func (r *GORMCartRepository) AddQuantity(ctx context.Context, customerID, productID string, qty int) (*models.CartEntry, error) {
	now := time.Now()
	entry := models.CartEntry{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   qty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_entries.quantity + ?", qty),
			"updated_at": now,
		}),
	}).Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}
	return r.Get(ctx, customerID, productID)
}

// SetQuantity overwrites the quantity of an existing entry.
func (r *GORMCartRepository) SetQuantity(ctx context.Context, customerID, productID string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.CartEntry{}).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Updates(map[string]interface{}{"quantity": qty, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart entry for product %s: %w", productID, ErrNotFound)
	}
	return nil
}

// Delete removes one entry.
func (r *GORMCartRepository) Delete(ctx context.Context, customerID, productID string) error {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.CartEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart entry for product %s: %w", productID, ErrNotFound)
	}
	return nil
}

// DeleteEntries removes the given entries, scoped to the customer.
func (r *GORMCartRepository) DeleteEntries(ctx context.Context, customerID string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND id IN ?", customerID, ids).
		Delete(&models.CartEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete cart entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Clear empties the customer's cart.
func (r *GORMCartRepository) Clear(ctx context.Context, customerID string) error {
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.CartEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for customer %s: %w", customerID, err)
	}
	return nil
}
