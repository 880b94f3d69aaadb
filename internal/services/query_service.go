package services

import (
	"context"
	"errors"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"
)

// OrderQueryService is the read side of orders. It never writes.
type OrderQueryService struct {
	orders repositories.OrderRepository
}

// NewOrderQueryService creates a new OrderQueryService.
func NewOrderQueryService(orders repositories.OrderRepository) *OrderQueryService {
	return &OrderQueryService{orders: orders}
}

// ListForCustomer lists the customer's orders, optionally filtered by status.
func (s *OrderQueryService) ListForCustomer(ctx context.Context, customerID string, status *models.OrderStatus) ([]models.Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, &PersistenceError{Op: "list customer orders", Err: err}
	}
	return nonNil(orders), nil
}

// ListForSupplier lists the supplier's orders, optionally filtered by status.
func (s *OrderQueryService) ListForSupplier(ctx context.Context, supplierID string, status *models.OrderStatus) ([]models.Order, error) {
	orders, err := s.orders.ListBySupplier(ctx, supplierID, status)
	if err != nil {
		return nil, &PersistenceError{Op: "list supplier orders", Err: err}
	}
	return nonNil(orders), nil
}

// List dispatches on the actor's role.
func (s *OrderQueryService) List(ctx context.Context, actor Actor, status *models.OrderStatus) ([]models.Order, error) {
	if actor.Role == models.ActorSupplier {
		return s.ListForSupplier(ctx, actor.ID, status)
	}
	return s.ListForCustomer(ctx, actor.ID, status)
}

// Get returns an order the actor owns, with its line items.
func (s *OrderQueryService) Get(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	order, err := s.authorize(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.GetLineItems(ctx, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "load line items", Err: err}
	}
	order.Items = items
	return order, nil
}

// GetLineItems returns the line items of an order the actor owns.
func (s *OrderQueryService) GetLineItems(ctx context.Context, orderID string, actor Actor) ([]models.OrderLineItem, error) {
	if _, err := s.authorize(ctx, orderID, actor); err != nil {
		return nil, err
	}
	items, err := s.orders.GetLineItems(ctx, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "load line items", Err: err}
	}
	return items, nil
}

// History returns the status transitions of an order the actor owns.
func (s *OrderQueryService) History(ctx context.Context, orderID string, actor Actor) ([]models.OrderTransition, error) {
	if _, err := s.authorize(ctx, orderID, actor); err != nil {
		return nil, err
	}
	transitions, err := s.orders.ListTransitions(ctx, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "load order history", Err: err}
	}
	return transitions, nil
}

func (s *OrderQueryService) authorize(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "load order", Err: err}
	}
	if !actor.owns(order) {
		return nil, ErrForbidden
	}
	return order, nil
}

// AggregateStats counts the supplier's orders per status. Revenue sums the
// totals of models.RevenueStatuses; gross bookings sums every status except
// models.GrossBookingsExclusions.
func (s *OrderQueryService) AggregateStats(ctx context.Context, supplierID string) (*models.OrderStats, error) {
	totals, err := s.orders.StatusTotals(ctx, supplierID)
	if err != nil {
		return nil, &PersistenceError{Op: "aggregate orders", Err: err}
	}

	stats := &models.OrderStats{
		SupplierID: supplierID,
		Counts:     make(map[models.OrderStatus]int, len(models.AllOrderStatuses)),
	}
	for _, st := range models.AllOrderStatuses {
		stats.Counts[st] = 0
	}
	for _, t := range totals {
		stats.Counts[t.Status] += t.Count
		if containsStatus(models.RevenueStatuses, t.Status) {
			stats.Revenue += t.Total
		}
		if !containsStatus(models.GrossBookingsExclusions, t.Status) {
			stats.GrossBookings += t.Total
		}
	}
	return stats, nil
}

func containsStatus(set []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
