package models

// Repository is the persistence boundary for the payment ledger, the coupon
// consumption ledger and the product catalog.
//
// Status mutations deliberately take the shape "transition if still in the
// expected state" and report whether a row was affected: concurrent writers
// racing on the same payment must fail safely into "already done" instead of
// corrupting state.
type Repository interface {
	// GetProduct resolves a priced product. Returns ErrProductNotFound if the
	// product does not exist or is inactive.
	GetProduct(id string) (*Product, error)
	SaveProduct(product *Product) error

	CreatePayment(payment *Payment) error
	// CreatePaymentWithCoupon persists the payment and, when use is non-nil,
	// its coupon consumption in a single transaction: a failed payment insert
	// must not leave the coupon burned. A duplicate coupon tuple is translated
	// to ErrCouponUsed and nothing is written.
	CreatePaymentWithCoupon(payment *Payment, use *CouponUse) error
	// GetPayment returns ErrPaymentNotFound if the id is unknown.
	GetPayment(id string) (*Payment, error)
	GetPaymentsByWallet(wallet string) ([]*Payment, error)

	// FinalizePaymentStatus transitions a payment PENDING -> final. It reports
	// false when the payment was no longer PENDING, which callers treat as
	// already finalized.
	FinalizePaymentStatus(id string, final PaymentStatus) (bool, error)

	// CompleteReward marks the reward COMPLETED with the authoritative
	// on-chain amount and reward transaction, guarded by
	// "where reward_status <> COMPLETED". Reports false when another writer
	// already completed the reward.
	CompleteReward(id, rewardTxHash, rewardAmount string) (bool, error)

	// MarkRewardFailed records a confirmed "no reward on chain yet" outcome:
	// reward_status FAILED and retry_count incremented, guarded against an
	// already-completed reward.
	MarkRewardFailed(id string) (bool, error)

	// ListFailedRewards selects payments eligible for the retry sweep:
	// status SUCCESS, reward_status FAILED, retry_count < maxRetry.
	ListFailedRewards(maxRetry int) ([]*Payment, error)

	// RecordCouponUse inserts a coupon consumption record. A violation of the
	// (wallet, coupon_id, tx_hash) unique constraint is translated to
	// ErrCouponUsed.
	RecordCouponUse(use *CouponUse) error
}
