package services

import (
	"strings"

	"campusconnect/internal/config"
)

// PricingPolicy holds the fee and discount rules shared by checkout and
// its preview. Both functions are pure.
type PricingPolicy struct {
	FlatFee       int64
	FreeThreshold int64
	Promos        map[string]int
}

// NewPricingPolicy builds the policy from configuration.
func NewPricingPolicy(cfg config.PricingConfig) PricingPolicy {
	promos := make(map[string]int, len(cfg.PromoCodes))
	for code, pct := range cfg.PromoCodes {
		promos[strings.ToUpper(code)] = pct
	}
	return PricingPolicy{
		FlatFee:       cfg.DeliveryFlatFee,
		FreeThreshold: cfg.DeliveryFreeThreshold,
		Promos:        promos,
	}
}

// DeliveryFee is charged once per supplier order. Subtotals at or above
// FreeThreshold ship free.
func (p PricingPolicy) DeliveryFee(subtotal int64) int64 {
	if p.FreeThreshold > 0 && subtotal >= p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

// PromoDiscount returns the discount code grants on subtotal, rounded down
// and never above subtotal, and whether the code is known. An empty or
// unknown code yields zero.
func (p PricingPolicy) PromoDiscount(code string, subtotal int64) (int64, bool) {
	pct, ok := p.Promos[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, false
	}
	if subtotal <= 0 {
		return 0, true
	}
	discount := subtotal * int64(pct) / 100
	if discount > subtotal {
		discount = subtotal
	}
	return discount, true
}

// Total is subtotal plus the delivery fee minus the promo discount.
func (p PricingPolicy) Total(code string, subtotal int64) (fee, discount, total int64) {
	fee = p.DeliveryFee(subtotal)
	discount, _ = p.PromoDiscount(code, subtotal)
	return fee, discount, subtotal + fee - discount
}
