package services

import (
	"context"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Reconciler removes cart entries left behind by a checkout that created
// an order but failed to clear the cart.
type Reconciler struct {
	carts  repositories.CartRepository
	orders repositories.OrderRepository
	window time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewReconciler creates a new Reconciler looking back window.
func NewReconciler(carts repositories.CartRepository, orders repositories.OrderRepository, window time.Duration, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		carts:  carts,
		orders: orders,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// ReconcileCustomer deletes and returns the stale entries in the cart. An
// entry is stale when a pending order of the same customer, created within
// the window and after the entry, has line items matching a set of cart
// entries product for product and quantity for quantity.
func (r *Reconciler) ReconcileCustomer(ctx context.Context, customerID string) ([]models.CartEntry, error) {
	entries, err := r.carts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, &PersistenceError{Op: "load cart", Err: err}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	orders, err := r.orders.ListPendingSince(ctx, customerID, r.now().Add(-r.window))
	if err != nil {
		return nil, &PersistenceError{Op: "load recent orders", Err: err}
	}

	byProduct := make(map[string]models.CartEntry, len(entries))
	for _, e := range entries {
		byProduct[e.ProductID] = e
	}

	var stale []models.CartEntry
	for _, order := range orders {
		matched, ok := matchOrder(order, byProduct)
		if !ok {
			continue
		}
		for _, e := range matched {
			delete(byProduct, e.ProductID)
		}
		stale = append(stale, matched...)
		r.logger.WithFields(logrus.Fields{
			"customer_id": customerID,
			"order_id":    order.ID,
			"entries":     len(matched),
		}).Warn("found cart entries already ordered")
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(stale))
	for _, e := range stale {
		ids = append(ids, e.ID)
	}
	if _, err := r.carts.DeleteEntries(ctx, customerID, ids); err != nil {
		return nil, &PersistenceError{Op: "delete stale cart entries", Err: err}
	}
	return stale, nil
}

func matchOrder(order models.Order, byProduct map[string]models.CartEntry) ([]models.CartEntry, bool) {
	if len(order.Items) == 0 {
		return nil, false
	}
	matched := make([]models.CartEntry, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID == nil {
			return nil, false
		}
		e, ok := byProduct[*item.ProductID]
		if !ok || e.Quantity != item.Quantity || e.CreatedAt.After(order.CreatedAt) {
			return nil, false
		}
		matched = append(matched, e)
	}
	return matched, true
}
