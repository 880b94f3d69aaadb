package models

import "time"

// Supplier is an independent seller on the marketplace. OwnerUserID is the
// identity-provider user allowed to act on the supplier's orders.
type Supplier struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerUserID string    `json:"owner_user_id" gorm:"type:varchar(64);uniqueIndex"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
