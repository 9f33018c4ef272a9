package models

import (
	"time"
)

// PromoCode grants a percentage discount on a tournament entry fee.
type PromoCode struct {
	BaseModel
	Code            string     `gorm:"uniqueIndex" json:"code"`
	Description     string     `json:"description"`
	DiscountPercent float64    `json:"discount_percent"`
	MaxUses         int        `gorm:"default:0" json:"max_uses"`
	UsedCount       int        `gorm:"default:0" json:"used_count"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// IsUsable reports whether the code can still be applied at the given time.
func (p *PromoCode) IsUsable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}

// Apply returns the entry fee after the discount.
func (p *PromoCode) Apply(amount float64) float64 {
	discounted := amount * (1 - p.DiscountPercent/100)
	if discounted < 0 {
		return 0
	}
	return discounted
}
