package services

import (
	"context"
	"errors"
	"fmt"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/sirupsen/logrus"
)

// CartService manages a customer's pending selections.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	logger   logrus.FieldLogger
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, logger logrus.FieldLogger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// Add puts qty more units of productID in the cart.
func (s *CartService) Add(ctx context.Context, customerID, productID string, qty int) (*models.CartEntry, error) {
	if qty < 1 {
		return nil, newValidationError("invalid cart item", map[string]string{"quantity": "min=1"})
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	current := 0
	existing, err := s.carts.Get(ctx, customerID, productID)
	switch {
	case err == nil:
		current = existing.Quantity
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, &PersistenceError{Op: "read cart entry", Err: err}
	}
	if current+qty > product.Stock {
		return nil, newValidationError("insufficient stock", map[string]string{
			"quantity": fmt.Sprintf("max=%d", product.Stock-current),
		})
	}

	entry, err := s.carts.AddQuantity(ctx, customerID, productID, qty)
	if err != nil {
		return nil, &PersistenceError{Op: "add cart entry", Err: err}
	}
	return entry, nil
}

// SetQuantity overwrites an entry's quantity; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, customerID, productID string, qty int) error {
	if qty < 0 {
		return newValidationError("invalid cart item", map[string]string{"quantity": "min=0"})
	}
	if qty == 0 {
		return s.Remove(ctx, customerID, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return newValidationError("insufficient stock", map[string]string{
			"quantity": fmt.Sprintf("max=%d", product.Stock),
		})
	}
	return s.carts.SetQuantity(ctx, customerID, productID, qty)
}

// Remove deletes one product from the cart.
func (s *CartService) Remove(ctx context.Context, customerID, productID string) error {
	return s.carts.Delete(ctx, customerID, productID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, customerID string) error {
	if err := s.carts.Clear(ctx, customerID); err != nil {
		return &PersistenceError{Op: "clear cart", Err: err}
	}
	return nil
}

// List returns the cart in insertion order with current product snapshots.
// Entries whose product is gone carry a nil Product.
func (s *CartService) List(ctx context.Context, customerID string) ([]models.ResolvedCartEntry, error) {
	entries, err := s.carts.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, &PersistenceError{Op: "load cart", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "resolve cart products", Err: err}
	}

	resolved := make([]models.ResolvedCartEntry, 0, len(entries))
	for _, e := range entries {
		r := models.ResolvedCartEntry{CartEntry: e}
		if p, ok := products[e.ProductID]; ok {
			r.Product = &p
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}
