package models

import "time"

// Product is a catalog item offered by exactly one supplier.
type Product struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SupplierID string    `json:"supplier_id" gorm:"type:varchar(36);index" validate:"required"`
	Supplier   *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Name       string    `json:"name" validate:"required,min=2,max=100"`
	Price      int64     `json:"price" validate:"gte=0"` // minor currency units
	Stock      int       `json:"stock" validate:"gte=0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
