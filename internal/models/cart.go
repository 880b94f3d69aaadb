package models

import "time"

// CartEntry is one pending selection in a customer's cart. ID is
// auto-incremented so ordering by it preserves insertion order.
type CartEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_customer_product"`
	ProductID  string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_customer_product"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ResolvedCartEntry pairs a cart entry with the product snapshot read for it.
// Product is nil when the referenced product no longer exists.
type ResolvedCartEntry struct {
	CartEntry
	Product *Product `json:"product"`
}
