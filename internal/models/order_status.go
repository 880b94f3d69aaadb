package models

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses lists every status in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// RevenueStatuses are the statuses whose totals count as revenue.
var RevenueStatuses = []OrderStatus{OrderStatusCompleted}

// GrossBookingsExclusions are the statuses left out of gross bookings.
var GrossBookingsExclusions = []OrderStatus{OrderStatusCancelled}

// ActorRole identifies which party requests a transition.
type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorSupplier ActorRole = "supplier"
)

// Valid reports whether r is a known role.
func (r ActorRole) Valid() bool {
	return r == ActorCustomer || r == ActorSupplier
}

// transitionEdge is a legal (from, to) pair.
type transitionEdge struct {
	from OrderStatus
	to   OrderStatus
}

// legalTransitions is the complete adjacency table of the order state
// machine, keyed by edge, valued by the only role allowed to take it.
var legalTransitions = map[transitionEdge]ActorRole{
	{OrderStatusPending, OrderStatusConfirmed}:   ActorSupplier,
	{OrderStatusConfirmed, OrderStatusPreparing}: ActorSupplier,
	{OrderStatusPreparing, OrderStatusReady}:     ActorSupplier,
	{OrderStatusReady, OrderStatusCompleted}:     ActorSupplier,
	{OrderStatusPending, OrderStatusCancelled}:   ActorCustomer,
}

// ParseOrderStatus converts s to an OrderStatus, rejecting unknown values.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

// IsTerminal reports whether no transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Successor returns the next forward status, if any.
func (s OrderStatus) Successor() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusConfirmed, true
	case OrderStatusConfirmed:
		return OrderStatusPreparing, true
	case OrderStatusPreparing:
		return OrderStatusReady, true
	case OrderStatusReady:
		return OrderStatusCompleted, true
	default:
		return "", false
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransition reports whether role may move an order from one status to
// another. It is true only for the edges in legalTransitions.
func CanTransition(from, to OrderStatus, role ActorRole) bool {
	allowed, ok := legalTransitions[transitionEdge{from, to}]
	return ok && allowed == role
}
