package services

import (
	"context"
	"errors"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"
)

// Actor is the party performing an operation. ID is the customer's user ID
// or the supplier ID, depending on Role.
type Actor struct {
	Role   models.ActorRole
	ID     string
	UserID string
}

// ActorResolver maps an authenticated user to a customer or supplier actor.
type ActorResolver struct {
	suppliers repositories.SupplierRepository
}

// NewActorResolver creates a new ActorResolver.
func NewActorResolver(suppliers repositories.SupplierRepository) *ActorResolver {
	return &ActorResolver{suppliers: suppliers}
}

// Customer returns userID acting as a customer.
func (r *ActorResolver) Customer(userID string) Actor {
	return Actor{Role: models.ActorCustomer, ID: userID, UserID: userID}
}

// Supplier returns the supplier owned by userID, or ErrForbidden when the
// user owns none.
func (r *ActorResolver) Supplier(ctx context.Context, userID string) (Actor, error) {
	supplier, err := r.suppliers.GetByOwner(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return Actor{}, ErrForbidden
	}
	if err != nil {
		return Actor{}, &PersistenceError{Op: "resolve supplier", Err: err}
	}
	return Actor{Role: models.ActorSupplier, ID: supplier.ID, UserID: userID}, nil
}

// Resolve picks the actor for role.
func (r *ActorResolver) Resolve(ctx context.Context, role models.ActorRole, userID string) (Actor, error) {
	if role == models.ActorSupplier {
		return r.Supplier(ctx, userID)
	}
	return r.Customer(userID), nil
}

// owns reports whether the actor is the order's customer or supplier.
func (a Actor) owns(order *models.Order) bool {
	switch a.Role {
	case models.ActorCustomer:
		return order.CustomerID == a.ID
	case models.ActorSupplier:
		return order.SupplierID == a.ID
	default:
		return false
	}
}
