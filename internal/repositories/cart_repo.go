package repositories

import (
	"context"

	"campusconnect/internal/models"
)

// CartRepository defines the interface for cart entry data access.
type CartRepository interface {
	// ListByCustomer returns the customer's entries in insertion order.
	ListByCustomer(ctx context.Context, customerID string) ([]models.CartEntry, error)
	Get(ctx context.Context, customerID, productID string) (*models.CartEntry, error)
	// AddQuantity inserts the entry or increments an existing one.
	AddQuantity(ctx context.Context, customerID, productID string, qty int) (*models.CartEntry, error)
	SetQuantity(ctx context.Context, customerID, productID string, qty int) error
	Delete(ctx context.Context, customerID, productID string) error
	// DeleteEntries removes exactly the given entry IDs belonging to the customer.
	DeleteEntries(ctx context.Context, customerID string, ids []uint) (int64, error)
	Clear(ctx context.Context, customerID string) error
}
