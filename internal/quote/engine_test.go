package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/logger"
)

type fakeProductRepo struct {
	models.Repository
	products map[string]*models.Product
}

func (f *fakeProductRepo) GetProduct(id string) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return product, nil
}

func newEngineForTest(t *testing.T, discountEnabled bool) (*Engine, *MemoryStore) {
	t.Helper()
	repo := &fakeProductRepo{products: map[string]*models.Product{
		"prod-1": {
			ID:             "prod-1",
			Name:           "widget",
			PriceBaseUnits: "1000000000000000000",
			DiscountBps:    500,
			RewardBps:      200,
			Active:         true,
		},
		"prod-deep": {
			ID:             "prod-deep",
			PriceBaseUnits: "1000",
			DiscountBps:    9999,
			RewardBps:      0,
			Active:         true,
		},
	}}
	store := NewMemoryStore()
	return NewEngine(store, repo, logger.NewNop(), 5*time.Minute, 9000, discountEnabled), store
}

func TestRequestQuoteWithCoupon(t *testing.T) {
	engine, store := newEngineForTest(t, true)

	q, err := engine.RequestQuote(context.Background(), "0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B", "prod-1", "coupon-1")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if q.Wallet != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Fatalf("wallet not normalized: %s", q.Wallet)
	}
	if q.OriginalPrice != "1000000000000000000" {
		t.Fatalf("original = %s", q.OriginalPrice)
	}
	if q.DiscountAmount != "50000000000000000" {
		t.Fatalf("discount = %s", q.DiscountAmount)
	}
	if q.DiscountedPrice != "950000000000000000" {
		t.Fatalf("discounted = %s", q.DiscountedPrice)
	}
	if q.RewardAmount != "19000000000000000" {
		t.Fatalf("reward = %s", q.RewardAmount)
	}
	if got := q.ExpiresAt.Sub(q.CreatedAt); got != 5*time.Minute {
		t.Fatalf("ttl = %v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("quote not stored")
	}
}

func TestRequestQuoteWithoutCoupon(t *testing.T) {
	engine, _ := newEngineForTest(t, true)

	q, err := engine.RequestQuote(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "prod-1", "")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	// No coupon selected: full price, reward computed on it
	if q.DiscountAmount != "0" || q.DiscountedPrice != "1000000000000000000" {
		t.Fatalf("unexpected discount: %+v", q)
	}
	if q.RewardAmount != "20000000000000000" {
		t.Fatalf("reward = %s", q.RewardAmount)
	}
}

func TestRequestQuoteClampsDiscount(t *testing.T) {
	engine, _ := newEngineForTest(t, true)

	q, err := engine.RequestQuote(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "prod-deep", "coupon-1")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	// Product asks for 99.99% off; the engine clamps at 90%
	if q.DiscountAmount != "900" || q.DiscountedPrice != "100" {
		t.Fatalf("clamp failed: discount=%s price=%s", q.DiscountAmount, q.DiscountedPrice)
	}
}

func TestRequestQuoteDiscountDisabled(t *testing.T) {
	engine, _ := newEngineForTest(t, false)

	q, err := engine.RequestQuote(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "prod-1", "coupon-1")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	if q.DiscountAmount != "0" || q.DiscountedPrice != "1000000000000000000" {
		t.Fatalf("discount applied despite policy switch: %+v", q)
	}
}

func TestRequestQuoteUnknownProduct(t *testing.T) {
	engine, _ := newEngineForTest(t, true)

	_, err := engine.RequestQuote(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b", "missing", "")
	if !errors.Is(err, models.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
}

func TestRequestQuoteBadAddress(t *testing.T) {
	engine, _ := newEngineForTest(t, true)

	_, err := engine.RequestQuote(context.Background(), "not-an-address", "prod-1", "")
	if !errors.Is(err, models.ErrInvalidAddress) {
		t.Fatalf("want ErrInvalidAddress, got %v", err)
	}
}
