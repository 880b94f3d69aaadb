package repositories

import (
	"context"
	"time"

	"campusconnect/internal/models"
)

// StatusTotal is the number of orders and their summed total for one status.
type StatusTotal struct {
	Status models.OrderStatus
	Count  int
	Total  int64
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateWithItems writes the header, its line items and the creation
	// transition as one transaction. On error nothing is persisted.
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem, created models.OrderTransition) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// UpdateStatus moves the order from one status to another only if it is
	// still in from, and records the transition in the same transaction.
	// It returns ErrStatusConflict when the order has moved on.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, transition models.OrderTransition) error
	ListByCustomer(ctx context.Context, customerID string, status *models.OrderStatus) ([]models.Order, error)
	ListBySupplier(ctx context.Context, supplierID string, status *models.OrderStatus) ([]models.Order, error)
	// ListPendingSince returns the customer's pending orders created at or
	// after since, with line items preloaded.
	ListPendingSince(ctx context.Context, customerID string, since time.Time) ([]models.Order, error)
	GetLineItems(ctx context.Context, orderID string) ([]models.OrderLineItem, error)
	ListTransitions(ctx context.Context, orderID string) ([]models.OrderTransition, error)
	StatusTotals(ctx context.Context, supplierID string) ([]StatusTotal, error)
}
