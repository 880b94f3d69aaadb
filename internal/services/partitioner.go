package services

import (
	"campusconnect/internal/models"
)

// Reasons an entry is left out of every partition.
const (
	SkipProductNotFound  = "product_not_found"
	SkipSupplierNotFound = "supplier_not_found"
)

// DeliveryInfo is what the customer supplies at checkout.
type DeliveryInfo struct {
	Address   string `json:"delivery_address"`
	Phone     string `json:"delivery_phone"`
	Notes     string `json:"notes"`
	PromoCode string `json:"promo_code"`
}

// IntentItem is one line of an OrderIntent.
type IntentItem struct {
	ProductID     string `json:"product_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	UnitPrice     int64  `json:"unit_price" validate:"gte=0"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
	Subtotal      int64  `json:"subtotal" validate:"gte=0"`
	ObservedStock int    `json:"observed_stock"`
}

// OrderIntent is the not-yet-persisted order for one supplier.
type OrderIntent struct {
	SupplierID      string       `json:"supplier_id" validate:"required"`
	SupplierName    string       `json:"supplier_name"`
	CustomerID      string       `json:"customer_id" validate:"required"`
	Items           []IntentItem `json:"items" validate:"required,min=1,dive"`
	Subtotal        int64        `json:"subtotal"`
	DeliveryFee     int64        `json:"delivery_fee"`
	Discount        int64        `json:"discount"`
	TotalAmount     int64        `json:"total_amount"`
	PromoCode       string       `json:"promo_code,omitempty"`
	DeliveryAddress string       `json:"delivery_address" validate:"required"`
	DeliveryPhone   string       `json:"delivery_phone" validate:"required"`
	Notes           string       `json:"notes"`
	// SourceEntries are the cart entry IDs that fed this intent.
	SourceEntries []uint `json:"-"`
}

// SkippedEntry is a cart entry that could not be assigned to a supplier.
type SkippedEntry struct {
	CartEntryID uint   `json:"cart_entry_id"`
	ProductID   string `json:"product_id"`
	Reason      string `json:"reason"`
}

// CartPartitioner groups resolved cart entries by owning supplier.
type CartPartitioner struct {
	pricing PricingPolicy
}

// NewCartPartitioner creates a new CartPartitioner.
func NewCartPartitioner(pricing PricingPolicy) *CartPartitioner {
	return &CartPartitioner{pricing: pricing}
}

// Partition returns one intent per supplier, in order of each supplier's
// first entry, with items in cart order. Every resolvable entry lands in
// exactly one intent; the rest are returned as skipped.
func (p *CartPartitioner) Partition(customerID string, entries []models.ResolvedCartEntry, delivery DeliveryInfo) ([]OrderIntent, []SkippedEntry) {
	var (
		intents []OrderIntent
		skipped []SkippedEntry
		index   = make(map[string]int)
	)

	for _, e := range entries {
		switch {
		case e.Product == nil:
			skipped = append(skipped, SkippedEntry{CartEntryID: e.ID, ProductID: e.ProductID, Reason: SkipProductNotFound})
			continue
		case e.Product.SupplierID == "" || e.Product.Supplier == nil:
			skipped = append(skipped, SkippedEntry{CartEntryID: e.ID, ProductID: e.ProductID, Reason: SkipSupplierNotFound})
			continue
		}

		supplierID := e.Product.SupplierID
		i, ok := index[supplierID]
		if !ok {
			i = len(intents)
			index[supplierID] = i
			intents = append(intents, OrderIntent{
				SupplierID:      supplierID,
				SupplierName:    e.Product.Supplier.Name,
				CustomerID:      customerID,
				PromoCode:       delivery.PromoCode,
				DeliveryAddress: delivery.Address,
				DeliveryPhone:   delivery.Phone,
				Notes:           delivery.Notes,
			})
		}

		subtotal := e.Product.Price * int64(e.Quantity)
		intents[i].Items = append(intents[i].Items, IntentItem{
			ProductID:     e.Product.ID,
			Name:          e.Product.Name,
			UnitPrice:     e.Product.Price,
			Quantity:      e.Quantity,
			Subtotal:      subtotal,
			ObservedStock: e.Product.Stock,
		})
		intents[i].Subtotal += subtotal
		intents[i].SourceEntries = append(intents[i].SourceEntries, e.ID)
	}

	for i := range intents {
		intents[i].DeliveryFee, intents[i].Discount, intents[i].TotalAmount =
			p.pricing.Total(delivery.PromoCode, intents[i].Subtotal)
	}
	return intents, skipped
}
