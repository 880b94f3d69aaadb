package services

import (
	"context"
	"errors"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/sirupsen/logrus"
)

// OrderLifecycle applies status transitions to a single order.
type OrderLifecycle struct {
	orders repositories.OrderRepository
	events EventPublisher
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewOrderLifecycle creates a new OrderLifecycle. A nil publisher disables
// events.
func NewOrderLifecycle(orders repositories.OrderRepository, events EventPublisher, logger logrus.FieldLogger) *OrderLifecycle {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrderLifecycle{
		orders: orders,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Cancel moves a pending order to cancelled on behalf of its customer.
func (l *OrderLifecycle) Cancel(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	return l.Transition(ctx, orderID, models.OrderStatusCancelled, nil, actor)
}

// Advance moves an order one step forward on behalf of its supplier.
func (l *OrderLifecycle) Advance(ctx context.Context, orderID string, target models.OrderStatus, expected *models.OrderStatus, actor Actor) (*models.Order, error) {
	if !target.Valid() {
		return nil, newValidationError("invalid target status", map[string]string{"target_status": "oneof"})
	}
	if expected != nil && !expected.Valid() {
		return nil, newValidationError("invalid expected status", map[string]string{"expected_status": "oneof"})
	}
	return l.Transition(ctx, orderID, target, expected, actor)
}

// Transition moves the order to status to if the actor owns it, the edge
// is legal for the actor's role and nobody changed the order first. When
// expected is set the order must currently be in that status.
func (l *OrderLifecycle) Transition(ctx context.Context, orderID string, to models.OrderStatus, expected *models.OrderStatus, actor Actor) (*models.Order, error) {
	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "load order", Err: err}
	}
	if !actor.owns(order) {
		return nil, ErrForbidden
	}

	from := order.Status
	if expected != nil && *expected != from {
		return nil, &TransitionError{OrderID: orderID, From: *expected, To: to, Role: actor.Role, Current: from}
	}
	if !models.CanTransition(from, to, actor.Role) {
		return nil, &TransitionError{OrderID: orderID, From: from, To: to, Role: actor.Role, Current: from}
	}

	at := l.now()
	transition := models.OrderTransition{
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  actor.Role,
		ActorID:    actor.ID,
		At:         at,
	}
	if err := l.orders.UpdateStatus(ctx, orderID, from, to, transition); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			current := from
			if latest, getErr := l.orders.GetByID(ctx, orderID); getErr == nil {
				current = latest.Status
			}
			return nil, &TransitionError{OrderID: orderID, From: from, To: to, Role: actor.Role, Current: current, Err: err}
		}
		return nil, &PersistenceError{Op: "update order status", Err: err}
	}

	order.Status = to
	order.UpdatedAt = at

	l.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"actor":    actor.Role,
	}).Info("order status changed")

	event := models.OrderStatusChangedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		SupplierID: order.SupplierID,
		From:       from,
		To:         to,
		ActorRole:  actor.Role,
		At:         at,
	}
	if err := l.events.PublishStatusChanged(ctx, event); err != nil {
		l.logger.WithError(err).WithField("order_id", orderID).Warn("failed to publish status changed event")
	}
	return order, nil
}
