package models

import "time"

// CouponUse is an append-only audit record of a consumed coupon.
//
// The composite unique index on (wallet, coupon_id, tx_hash) is the
// at-most-once consumption guarantee: uniqueness is enforced by the storage
// layer, not application logic, so it holds across concurrent writers and
// multiple process instances.
type CouponUse struct {
	// ID is the unique identifier for the coupon use.
	ID int64 `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// Wallet is the consuming wallet address, lowercased.
	Wallet string `json:"wallet" gorm:"column:wallet;uniqueIndex:idx_coupon_use,priority:1;not null"`
	// CouponID is the consumed coupon.
	CouponID string `json:"coupon_id" gorm:"column:coupon_id;uniqueIndex:idx_coupon_use,priority:2;not null"`
	// TxHash is the purchase transaction the coupon was applied to, lowercased.
	TxHash string `json:"tx_hash" gorm:"column:tx_hash;uniqueIndex:idx_coupon_use,priority:3;not null"`
	// PaymentID references the payment the coupon was consumed against, if known.
	PaymentID string `json:"payment_id,omitempty" gorm:"column:payment_id"`
	// CreatedAt is when the coupon was consumed. The record is immutable afterwards.
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName specifies the table name for GORM.
func (CouponUse) TableName() string {
	return "coupon_uses"
}
