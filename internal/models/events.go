package models

import "time"

// Routing keys of the events published on the order exchange.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderCreatedEvent is emitted once per order written by checkout.
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	SupplierID  string    `json:"supplier_id"`
	TotalAmount int64     `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderStatusChangedEvent is emitted after every successful transition.
type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	SupplierID string      `json:"supplier_id"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	ActorRole  ActorRole   `json:"actor_role"`
	At         time.Time   `json:"at"`
}
