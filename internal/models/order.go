package models

import "time"

// Order is a supplier-scoped order. SupplierID never changes after creation;
// Status and UpdatedAt are only written through status transitions.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID      string          `json:"customer_id" gorm:"type:varchar(64);not null;index"`
	SupplierID      string          `json:"supplier_id" gorm:"type:varchar(36);not null;index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount     int64           `json:"total_amount" gorm:"not null"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:text;not null"`
	DeliveryPhone   string          `json:"delivery_phone" gorm:"type:varchar(32);not null"`
	Notes           string          `json:"notes" gorm:"type:text"`
	Items           []OrderLineItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderLineItem is a denormalized copy of a product at order time. ProductID
// is set to NULL if the product is later deleted; name and price stay.
type OrderLineItem struct {
	ID            uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID       string   `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductID     *string  `json:"product_id" gorm:"type:varchar(36);index"`
	Product       *Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	ProductName   string   `json:"product_name" gorm:"type:varchar(255);not null"`
	ProductPrice  int64    `json:"product_price" gorm:"not null"`
	Quantity      int      `json:"quantity" gorm:"not null"`
	Subtotal      int64    `json:"subtotal" gorm:"not null"`
	ObservedStock int      `json:"observed_stock" gorm:"not null"` // stock read at creation, kept for oversell audits
}

// OrderTransition is the audit record of one status change.
// FromStatus is empty for the creation event.
type OrderTransition struct {
	ID         uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    string      `json:"order_id" gorm:"type:varchar(36);not null;index"`
	FromStatus OrderStatus `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus   OrderStatus `json:"to_status" gorm:"type:varchar(20);not null"`
	ActorRole  ActorRole   `json:"actor_role" gorm:"type:varchar(20);not null"`
	ActorID    string      `json:"actor_id" gorm:"type:varchar(64);not null"`
	At         time.Time   `json:"at" gorm:"not null"`
}

// OrderStats are per-supplier aggregates. Revenue counts RevenueStatuses,
// GrossBookings counts everything except GrossBookingsExclusions.
type OrderStats struct {
	SupplierID    string              `json:"supplier_id"`
	Counts        map[OrderStatus]int `json:"counts"`
	Revenue       int64               `json:"revenue"`
	GrossBookings int64               `json:"gross_bookings"`
}
