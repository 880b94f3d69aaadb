package services

import (
	"context"
	"fmt"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// OrderFactory turns one OrderIntent into a persisted order. It never
// touches the cart.
type OrderFactory struct {
	orders   repositories.OrderRepository
	pricing  PricingPolicy
	validate *validator.Validate
	now      func() time.Time
}

// NewOrderFactory creates a new OrderFactory.
func NewOrderFactory(orders repositories.OrderRepository, pricing PricingPolicy) *OrderFactory {
	return &OrderFactory{
		orders:   orders,
		pricing:  pricing,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Create validates intent and writes the header, its line items and the
// creation transition in one transaction. It returns a *ValidationError
// when the intent is rejected and a *PersistenceError when the write fails.
func (f *OrderFactory) Create(ctx context.Context, intent OrderIntent) (*models.Order, error) {
	if err := f.Validate(intent); err != nil {
		return nil, err
	}

	now := f.now()
	order := &models.Order{
		CustomerID:      intent.CustomerID,
		SupplierID:      intent.SupplierID,
		Status:          models.OrderStatusPending,
		TotalAmount:     intent.TotalAmount,
		DeliveryAddress: intent.DeliveryAddress,
		DeliveryPhone:   intent.DeliveryPhone,
		Notes:           intent.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderLineItem, 0, len(intent.Items))
	for _, it := range intent.Items {
		productID := it.ProductID
		items = append(items, models.OrderLineItem{
			ProductID:     &productID,
			ProductName:   it.Name,
			ProductPrice:  it.UnitPrice,
			Quantity:      it.Quantity,
			Subtotal:      it.Subtotal,
			ObservedStock: it.ObservedStock,
		})
	}

	created := models.OrderTransition{
		ToStatus:  models.OrderStatusPending,
		ActorRole: models.ActorCustomer,
		ActorID:   intent.CustomerID,
		At:        now,
	}
	if err := f.orders.CreateWithItems(ctx, order, items, created); err != nil {
		return nil, &PersistenceError{Op: "create order", Err: err}
	}
	return order, nil
}

// Validate checks intent without writing anything.
func (f *OrderFactory) Validate(intent OrderIntent) error {
	if err := f.validate.Struct(intent); err != nil {
		return fromValidator("invalid order intent", err)
	}

	fields := make(map[string]string)
	var subtotal int64
	for i, it := range intent.Items {
		if it.Subtotal != it.UnitPrice*int64(it.Quantity) {
			fields[fmt.Sprintf("items[%d].subtotal", i)] = "mismatch"
		}
		if it.Quantity > it.ObservedStock {
			fields[fmt.Sprintf("items[%d].quantity", i)] = fmt.Sprintf("max=%d", it.ObservedStock)
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	_, _, total := f.pricing.Total(intent.PromoCode, subtotal)
	switch {
	case total <= 0:
		fields["total_amount"] = "gt=0"
	case total != intent.TotalAmount:
		fields["total_amount"] = fmt.Sprintf("expected %d", total)
	}
	if len(fields) > 0 {
		return newValidationError("invalid order intent", fields)
	}
	return nil
}
