package models

import (
	"testing"
	"time"
)

func TestPromoCodeIsUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		code PromoCode
		want bool
	}{
		{"active unlimited", PromoCode{IsActive: true}, true},
		{"inactive", PromoCode{IsActive: false}, false},
		{"under max uses", PromoCode{IsActive: true, MaxUses: 5, UsedCount: 4}, true},
		{"exhausted", PromoCode{IsActive: true, MaxUses: 5, UsedCount: 5}, false},
		{"not expired", PromoCode{IsActive: true, ExpiresAt: &future}, true},
		{"expired", PromoCode{IsActive: true, ExpiresAt: &past}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.code.IsUsable(now); got != tc.want {
				t.Errorf("IsUsable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPromoCodeApply(t *testing.T) {
	code := PromoCode{DiscountPercent: 40}
	if got := code.Apply(10); got != 6 {
		t.Errorf("Apply(10) with 40%% = %v, want 6", got)
	}

	full := PromoCode{DiscountPercent: 100}
	if got := full.Apply(25); got != 0 {
		t.Errorf("Apply(25) with 100%% = %v, want 0", got)
	}
}
