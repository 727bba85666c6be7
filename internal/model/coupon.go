package model

import (
	"strings"
	"time"
)

// Coupon represents a promotional credit grant. Codes are case-insensitive
// and stored canonicalized upper-case. RedemptionsCount is mutated only by
// the redemption transactor and never exceeds MaxRedemptions.
type Coupon struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	BonusCredits     int        `json:"bonus_credits"`
	MaxRedemptions   int        `json:"max_redemptions"`
	RedemptionsCount int        `json:"redemptions_count"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CanonicalCode normalizes a user-supplied coupon code for lookup.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redemption records that an account has used a coupon. Its existence is
// the sole source of truth for "already redeemed"; one is created exactly
// once per successful redemption.
type Redemption struct {
	AccountID string    `json:"account_id"`
	CouponID  string    `json:"coupon_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RedeemCouponRequest is the request to redeem a coupon code.
type RedeemCouponRequest struct {
	Code string `json:"code"`
}

// RedeemCouponResponse is the response after a successful redemption.
type RedeemCouponResponse struct {
	Success      bool `json:"success"`
	BonusCredits int  `json:"bonus_credits"`
}
