package models

import "errors"

// Validation faults: caller error, surfaced immediately, never retried by
// the system. The caller must re-quote or re-submit.
var (
	ErrQuoteNotFound   = errors.New("quote not found")
	ErrQuoteExpired    = errors.New("quote expired")
	ErrWalletMismatch  = errors.New("wallet does not match quote")
	ErrProductMismatch = errors.New("product does not match quote")
	ErrAmountMismatch  = errors.New("claimed amount does not match quoted price")
	ErrCouponUsed      = errors.New("coupon already used")
	ErrProductNotFound = errors.New("product not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidAddress  = errors.New("invalid wallet address")
	ErrInvalidTxHash   = errors.New("invalid transaction hash")
)

// Infrastructure faults: transient, always retryable, never charged against
// the reward retry budget.
var (
	ErrChainUnavailable = errors.New("chain rpc unavailable")
)

// Invariant violations: data-integrity alerts, never swallowed.
var (
	// ErrRewardConflict is returned when a settlement would mark an
	// already-completed reward completed again with a different amount.
	ErrRewardConflict = errors.New("reward already completed with a different amount")
)

// IsValidationFault reports whether err belongs to the caller-error taxonomy.
func IsValidationFault(err error) bool {
	for _, fault := range []error{
		ErrQuoteNotFound,
		ErrQuoteExpired,
		ErrWalletMismatch,
		ErrProductMismatch,
		ErrAmountMismatch,
		ErrCouponUsed,
		ErrProductNotFound,
		ErrInvalidAddress,
		ErrInvalidTxHash,
	} {
		if errors.Is(err, fault) {
			return true
		}
	}
	return false
}
