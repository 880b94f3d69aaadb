package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusconnect/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// CreateWithItems inserts the order header, then its items, then the
// creation transition. Any failure rolls the whole unit back.
func (r *GORMOrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem, created models.OrderTransition) error {
	if len(items) == 0 {
		return fmt.Errorf("order has no line items")
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("insert order header: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Omit("Product").Create(&items).Error; err != nil {
			return fmt.Errorf("insert order line items: %w", err)
		}

		created.OrderID = order.ID
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("insert creation transition: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create order for supplier %s: %w", order.SupplierID, err)
	}

	order.Items = items
	return nil
}

// GetByID retrieves an order header by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// UpdateStatus performs the compare-and-set on status.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, transition models.OrderTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]interface{}{"status": to, "updated_at": transition.At})
		if res.Error != nil {
			return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check order %s: %w", id, err)
			}
			if count == 0 {
				return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("order %s is no longer %s: %w", id, from, ErrStatusConflict)
		}

		transition.OrderID = id
		if err := tx.Create(&transition).Error; err != nil {
			return fmt.Errorf("failed to record transition for order %s: %w", id, err)
		}
		return nil
	})
}

// ListByCustomer lists a customer's orders, newest first.
func (r *GORMOrderRepository) ListByCustomer(ctx context.Context, customerID string, status *models.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "customer_id = ?", customerID, status)
}

// ListBySupplier lists a supplier's orders, newest first.
func (r *GORMOrderRepository) ListBySupplier(ctx context.Context, supplierID string, status *models.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "supplier_id = ?", supplierID, status)
}

func (r *GORMOrderRepository) list(ctx context.Context, where string, arg string, status *models.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where(where, arg)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var orders []models.Order
	if err := q.Order("created_at desc").Order("id asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListPendingSince is used by reconciliation.
func (r *GORMOrderRepository) ListPendingSince(ctx context.Context, customerID string, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("customer_id = ? AND status = ? AND created_at >= ?", customerID, models.OrderStatusPending, since).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// GetLineItems returns an order's line items in insertion order.
func (r *GORMOrderRepository) GetLineItems(ctx context.Context, orderID string) ([]models.OrderLineItem, error) {
	var items []models.OrderLineItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get line items for order %s: %w", orderID, err)
	}
	return items, nil
}

// ListTransitions returns an order's status history, oldest first.
func (r *GORMOrderRepository) ListTransitions(ctx context.Context, orderID string) ([]models.OrderTransition, error) {
	var transitions []models.OrderTransition
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&transitions).Error; err != nil {
		return nil, fmt.Errorf("failed to get transitions for order %s: %w", orderID, err)
	}
	return transitions, nil
}

// StatusTotals groups a supplier's orders by status.
func (r *GORMOrderRepository) StatusTotals(ctx context.Context, supplierID string) ([]StatusTotal, error) {
	var totals []StatusTotal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Where("supplier_id = ?", supplierID).
		Group("status").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders for supplier %s: %w", supplierID, err)
	}
	return totals, nil
}
