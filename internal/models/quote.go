package models

import "time"

// Quote is a time-boxed price and reward snapshot offered to a wallet before
// it submits the on-chain transaction. Quotes are ephemeral: they live in the
// quote store until consumed by checkout or garbage-collected after expiry,
// and do not survive restarts.
type Quote struct {
	// ID is an opaque unique token identifying the quote.
	ID string `json:"id"`
	// Wallet is the wallet the quote was issued to, lowercased.
	Wallet string `json:"wallet"`
	// ProductID is the product the quote prices.
	ProductID string `json:"product_id"`
	// CouponID is the coupon selected for this quote, if any.
	CouponID string `json:"coupon_id,omitempty"`
	// OriginalPrice is the undiscounted price in base units.
	OriginalPrice string `json:"original_price"`
	// DiscountAmount is floor(originalPrice * discountBps / 10000) in base units.
	DiscountAmount string `json:"discount_amount"`
	// DiscountedPrice is the final amount owed on-chain, in base units.
	DiscountedPrice string `json:"discounted_price"`
	// RewardAmount is the quoted cashback estimate in base units.
	RewardAmount string `json:"reward_amount"`
	// CreatedAt is when the quote was issued.
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is CreatedAt plus the configured quote TTL.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the quote is past its TTL at the given instant.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
