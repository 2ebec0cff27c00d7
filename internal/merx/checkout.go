package merx

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/amount"
	"github.com/merxpay/merx/pkg/validation"
)

// CheckoutRequest carries the client's claim for converting a quote into a
// persisted payment.
type CheckoutRequest struct {
	QuoteID   string
	Wallet    string
	ProductID string
	TxHash    string
	// ClaimedAmount, when non-empty, must equal the quoted discounted price.
	ClaimedAmount string
}

// Checkout consumes a quote exactly once and persists a PENDING payment.
//
// The quote is removed from the store as part of validation step 1, before
// anything else can fail. That makes checkout idempotent by construction: a
// retry with the same quote id gets ErrQuoteNotFound and cannot create a
// duplicate payment, and a validation failure after the take does not restore
// the quote. The caller re-quotes in either case.
func (m *Merx) Checkout(ctx context.Context, req CheckoutRequest) (*models.Payment, error) {
	wallet, err := validation.ValidateAndNormalizeAddress(req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}
	if err := validation.ValidateTxHash(req.TxHash); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidTxHash, err)
	}
	txHash := validation.NormalizeTxHash(req.TxHash)

	q, err := m.quotes.Take(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}

	if q.Wallet != wallet {
		return nil, models.ErrWalletMismatch
	}
	if q.ProductID != req.ProductID {
		return nil, models.ErrProductMismatch
	}
	if req.ClaimedAmount != "" {
		claimed, err := amount.Parse(req.ClaimedAmount)
		if err != nil {
			return nil, models.ErrAmountMismatch
		}
		quoted := amount.MustParse(q.DiscountedPrice)
		if claimed.Cmp(quoted) != 0 {
			return nil, models.ErrAmountMismatch
		}
	}

	payment := &models.Payment{
		ID:              uuid.NewString(),
		Wallet:          wallet,
		ProductID:       q.ProductID,
		CouponID:        q.CouponID,
		TxHash:          txHash,
		OriginalPrice:   q.OriginalPrice,
		DiscountAmount:  q.DiscountAmount,
		DiscountedPrice: q.DiscountedPrice,
		RewardAmount:    q.RewardAmount,
		Status:          models.PaymentPending,
		RewardStatus:    models.RewardPending,
	}

	// The coupon consumption and the payment row are written in one
	// transaction: a duplicate use creates nothing, and a failed payment
	// insert does not burn the coupon. The storage-layer unique constraint is
	// what makes this safe under concurrent duplicate submissions.
	var use *models.CouponUse
	if q.CouponID != "" {
		use = &models.CouponUse{
			Wallet:    wallet,
			CouponID:  q.CouponID,
			TxHash:    txHash,
			PaymentID: payment.ID,
		}
	}
	if err := m.repo.CreatePaymentWithCoupon(payment, use); err != nil {
		return nil, err
	}

	m.logger.Info("Checkout completed ", "payment ", payment.ID, "wallet ", wallet, "product ", payment.ProductID, "tx ", txHash)
	return payment, nil
}

// RecordCouponUse consumes a (wallet, coupon, transaction) tuple at most
// once, independent of the checkout path.
func (m *Merx) RecordCouponUse(_ context.Context, wallet, couponID, txHash, paymentID string) (*models.CouponUse, error) {
	normalized, err := validation.ValidateAndNormalizeAddress(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}

	use := &models.CouponUse{
		Wallet:    normalized,
		CouponID:  couponID,
		TxHash:    validation.NormalizeTxHash(txHash),
		PaymentID: paymentID,
	}
	if err := m.repo.RecordCouponUse(use); err != nil {
		return nil, err
	}
	return use, nil
}
