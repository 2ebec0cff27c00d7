package models

import "time"

// PaymentStatus is the settlement state of the underlying purchase transaction.
type PaymentStatus string

// RewardStatus is the state of the cashback payout, tracked independently of
// the purchase status.
type RewardStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"

	RewardPending   RewardStatus = "PENDING"
	RewardCompleted RewardStatus = "COMPLETED"
	RewardFailed    RewardStatus = "FAILED"
)

// Payment is the persisted record of a purchase and its settlement state.
// It is the application's long-lived source of truth, subordinate to the chain.
//
// Status may transition only PENDING -> SUCCESS or PENDING -> FAILED, both
// terminal. RewardStatus may reach COMPLETED at most once; a completed reward
// is never reprocessed. Both transitions are enforced by conditional updates
// in the repository, never by read-modify-write.
type Payment struct {
	// ID is the unique payment identifier (uuid).
	ID string `json:"id" gorm:"column:id;primaryKey"`
	// Wallet is the purchasing wallet address, lowercased.
	Wallet string `json:"wallet" gorm:"column:wallet;index;not null"`
	// ProductID is the external product reference the payment was made for.
	ProductID string `json:"product_id" gorm:"column:product_id;not null"`
	// CouponID is the coupon consumed by this payment, if any.
	CouponID string `json:"coupon_id,omitempty" gorm:"column:coupon_id"`
	// TxHash is the on-chain purchase transaction hash, lowercased.
	// Empty until the client reports it.
	TxHash string `json:"tx_hash,omitempty" gorm:"column:tx_hash;index"`
	// OriginalPrice is the undiscounted product price in base units.
	OriginalPrice string `json:"original_price" gorm:"column:original_price;not null"`
	// DiscountAmount is the coupon discount in base units.
	DiscountAmount string `json:"discount_amount" gorm:"column:discount_amount;not null"`
	// DiscountedPrice is the amount actually owed on-chain, in base units.
	DiscountedPrice string `json:"discounted_price" gorm:"column:discounted_price;not null"`
	// RewardAmount is the cashback in base units. Quoted estimate until the
	// on-chain figure overwrites it at reward settlement.
	RewardAmount string `json:"reward_amount" gorm:"column:reward_amount;not null"`
	// Status is the purchase settlement state.
	Status PaymentStatus `json:"status" gorm:"column:status;index:idx_reward_sweep,priority:1;not null;default:PENDING"`
	// RewardStatus is the cashback payout state.
	RewardStatus RewardStatus `json:"reward_status" gorm:"column:reward_status;index:idx_reward_sweep,priority:2;not null;default:PENDING"`
	// RewardTxHash is the transaction that paid the reward. Set only when
	// RewardStatus becomes COMPLETED.
	RewardTxHash string `json:"reward_tx_hash,omitempty" gorm:"column:reward_tx_hash"`
	// RetryCount counts confirmed "no reward yet" settlement attempts. It is
	// never incremented on infrastructure faults.
	RetryCount int `json:"retry_count" gorm:"column:retry_count;index:idx_reward_sweep,priority:3;not null;default:0"`
	// CreatedAt is when the payment was created at checkout.
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	// UpdatedAt is when the payment was last modified.
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM.
func (Payment) TableName() string {
	return "payments"
}
