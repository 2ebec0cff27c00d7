package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/amount"
	"github.com/merxpay/merx/pkg/logger"
	"github.com/merxpay/merx/pkg/validation"
)

// Engine computes price quotes and writes them to the quote store. It never
// touches the chain.
type Engine struct {
	logger *logger.Logger

	store Store
	repo  models.Repository

	ttl             time.Duration
	maxDiscountBps  int
	discountEnabled bool
}

func NewEngine(store Store, repo models.Repository, logger *logger.Logger, ttl time.Duration, maxDiscountBps int, discountEnabled bool) *Engine {
	return &Engine{
		store:           store,
		repo:            repo,
		logger:          logger,
		ttl:             ttl,
		maxDiscountBps:  maxDiscountBps,
		discountEnabled: discountEnabled,
	}
}

// RequestQuote prices a product for a wallet and stores the resulting quote
// with the configured TTL.
//
// All arithmetic runs on arbitrary-precision integers in base units:
//
//	discountAmount  = floor(originalPrice * discountBps / 10000)
//	discountedPrice = originalPrice - discountAmount
//	rewardAmount    = floor(discountedPrice * rewardBps / 10000)
//
// The discount applies only when a coupon is selected, and its rate is
// clamped to the configured maximum.
func (e *Engine) RequestQuote(ctx context.Context, wallet, productID, couponID string) (*models.Quote, error) {
	normalized, err := validation.ValidateAndNormalizeAddress(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}

	product, err := e.repo.GetProduct(productID)
	if err != nil {
		return nil, err
	}

	originalPrice, err := amount.Parse(product.PriceBaseUnits)
	if err != nil {
		return nil, fmt.Errorf("product %s has invalid price: %w", productID, err)
	}

	discountBps := 0
	if e.discountEnabled && couponID != "" {
		discountBps = product.DiscountBps
		if discountBps > e.maxDiscountBps {
			discountBps = e.maxDiscountBps
		}
	}

	discountAmount := amount.ApplyBps(originalPrice, discountBps)
	discountedPrice := amount.Sub(originalPrice, discountAmount)
	rewardAmount := amount.ApplyBps(discountedPrice, product.RewardBps)

	now := time.Now()
	q := &models.Quote{
		ID:              uuid.NewString(),
		Wallet:          normalized,
		ProductID:       productID,
		CouponID:        couponID,
		OriginalPrice:   amount.Format(originalPrice),
		DiscountAmount:  amount.Format(discountAmount),
		DiscountedPrice: amount.Format(discountedPrice),
		RewardAmount:    amount.Format(rewardAmount),
		CreatedAt:       now,
		ExpiresAt:       now.Add(e.ttl),
	}

	if err := e.store.Put(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to store quote: %w", err)
	}

	e.logger.Debug("Quote issued ", "id ", q.ID, "wallet ", q.Wallet, "product ", q.ProductID, "price ", q.DiscountedPrice)
	return q, nil
}

// Take consumes a still-valid quote exactly once.
func (e *Engine) Take(ctx context.Context, id string) (*models.Quote, error) {
	return e.store.TakeIfValid(ctx, id)
}

// Sweep drops expired quotes from the store.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (int, error) {
	return e.store.Sweep(ctx, now)
}
