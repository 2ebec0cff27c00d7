package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/logger"
)

func newRepoForTest(t *testing.T) *PostgresDB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo, err := NewWithDB(db, logger.NewNop())
	if err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return repo
}

func seedPayment(t *testing.T, repo *PostgresDB, id string, status models.PaymentStatus, rewardStatus models.RewardStatus, retryCount int) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:              id,
		Wallet:          "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		ProductID:       "prod-1",
		TxHash:          "0x" + strings.Repeat("ab", 32),
		OriginalPrice:   "1000000000000000000",
		DiscountAmount:  "50000000000000000",
		DiscountedPrice: "950000000000000000",
		RewardAmount:    "19000000000000000",
		Status:          status,
		RewardStatus:    rewardStatus,
		RetryCount:      retryCount,
	}
	if err := repo.CreatePayment(payment); err != nil {
		t.Fatalf("create payment %s: %v", id, err)
	}
	return payment
}

func TestGetProduct(t *testing.T) {
	repo := newRepoForTest(t)

	if err := repo.SaveProduct(&models.Product{ID: "prod-1", PriceBaseUnits: "1000", Active: true}); err != nil {
		t.Fatalf("save product: %v", err)
	}
	if err := repo.SaveProduct(&models.Product{ID: "prod-off", PriceBaseUnits: "1000", Active: false}); err != nil {
		t.Fatalf("save product: %v", err)
	}

	product, err := repo.GetProduct("prod-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.PriceBaseUnits != "1000" {
		t.Fatalf("unexpected product: %+v", product)
	}

	if _, err := repo.GetProduct("missing"); !errors.Is(err, models.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
	// Inactive products are not quotable
	if _, err := repo.GetProduct("prod-off"); !errors.Is(err, models.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound for inactive, got %v", err)
	}
}

func TestFinalizePaymentStatusIsConditional(t *testing.T) {
	repo := newRepoForTest(t)
	seedPayment(t, repo, "pay-1", models.PaymentPending, models.RewardPending, 0)

	applied, err := repo.FinalizePaymentStatus("pay-1", models.PaymentSuccess)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !applied {
		t.Fatal("first finalize should apply")
	}

	// The status is terminal: a second transition affects zero rows
	applied, err = repo.FinalizePaymentStatus("pay-1", models.PaymentFailed)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if applied {
		t.Fatal("second finalize must not apply")
	}

	payment, err := repo.GetPayment("pay-1")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != models.PaymentSuccess {
		t.Fatalf("status = %s", payment.Status)
	}
}

func TestCompleteRewardOnlyOnce(t *testing.T) {
	repo := newRepoForTest(t)
	payment := seedPayment(t, repo, "pay-1", models.PaymentSuccess, models.RewardPending, 0)

	applied, err := repo.CompleteReward("pay-1", payment.TxHash, "21000000000000000")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !applied {
		t.Fatal("first completion should apply")
	}

	// The second writer loses the race and must see zero affected rows
	applied, err = repo.CompleteReward("pay-1", payment.TxHash, "999")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if applied {
		t.Fatal("second completion must not apply")
	}

	stored, err := repo.GetPayment("pay-1")
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if stored.RewardStatus != models.RewardCompleted {
		t.Fatalf("reward status = %s", stored.RewardStatus)
	}
	if stored.RewardAmount != "21000000000000000" {
		t.Fatalf("on-chain amount must win: %s", stored.RewardAmount)
	}
	if stored.RewardTxHash != payment.TxHash {
		t.Fatalf("reward tx hash = %s", stored.RewardTxHash)
	}
}

func TestMarkRewardFailedIncrementsRetryCount(t *testing.T) {
	repo := newRepoForTest(t)
	seedPayment(t, repo, "pay-1", models.PaymentSuccess, models.RewardPending, 0)

	for want := 1; want <= 3; want++ {
		applied, err := repo.MarkRewardFailed("pay-1")
		if err != nil {
			t.Fatalf("mark failed: %v", err)
		}
		if !applied {
			t.Fatal("mark failed should apply")
		}
		payment, err := repo.GetPayment("pay-1")
		if err != nil {
			t.Fatalf("get payment: %v", err)
		}
		if payment.RewardStatus != models.RewardFailed || payment.RetryCount != want {
			t.Fatalf("after attempt %d: status=%s retryCount=%d", want, payment.RewardStatus, payment.RetryCount)
		}
	}
}

func TestMarkRewardFailedRefusesCompleted(t *testing.T) {
	repo := newRepoForTest(t)
	payment := seedPayment(t, repo, "pay-1", models.PaymentSuccess, models.RewardPending, 0)

	if _, err := repo.CompleteReward("pay-1", payment.TxHash, "100"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	applied, err := repo.MarkRewardFailed("pay-1")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if applied {
		t.Fatal("a completed reward must never be marked failed")
	}
}

func TestListFailedRewardsHonorsRetryBudget(t *testing.T) {
	repo := newRepoForTest(t)

	seedPayment(t, repo, "eligible", models.PaymentSuccess, models.RewardFailed, 2)
	seedPayment(t, repo, "exhausted", models.PaymentSuccess, models.RewardFailed, 5)
	seedPayment(t, repo, "pending-tx", models.PaymentPending, models.RewardFailed, 0)
	seedPayment(t, repo, "completed", models.PaymentSuccess, models.RewardCompleted, 1)
	seedPayment(t, repo, "reward-pending", models.PaymentSuccess, models.RewardPending, 0)

	payments, err := repo.ListFailedRewards(5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 1 || payments[0].ID != "eligible" {
		t.Fatalf("unexpected selection: %+v", payments)
	}
}

func TestRecordCouponUseUniqueness(t *testing.T) {
	repo := newRepoForTest(t)

	use := &models.CouponUse{
		Wallet:   "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		CouponID: "coupon-1",
		TxHash:   "0x" + strings.Repeat("cd", 32),
	}
	if err := repo.RecordCouponUse(use); err != nil {
		t.Fatalf("first use: %v", err)
	}

	duplicate := &models.CouponUse{
		Wallet:   use.Wallet,
		CouponID: use.CouponID,
		TxHash:   use.TxHash,
	}
	if err := repo.RecordCouponUse(duplicate); !errors.Is(err, models.ErrCouponUsed) {
		t.Fatalf("want ErrCouponUsed, got %v", err)
	}

	// A different transaction is a different tuple
	other := &models.CouponUse{
		Wallet:   use.Wallet,
		CouponID: use.CouponID,
		TxHash:   "0x" + strings.Repeat("ef", 32),
	}
	if err := repo.RecordCouponUse(other); err != nil {
		t.Fatalf("different tuple rejected: %v", err)
	}
}

func TestRecordCouponUseConcurrentDuplicates(t *testing.T) {
	repo := newRepoForTest(t)

	// One connection, so sqlite lets the constraint decide instead of
	// answering concurrent writers with lock errors.
	sqlDB, err := repo.Conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const attempts = 8
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			use := &models.CouponUse{
				Wallet:   "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
				CouponID: "coupon-race",
				TxHash:   "0x" + strings.Repeat("ee", 32),
			}
			switch err := repo.RecordCouponUse(use); {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, models.ErrCouponUsed):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != attempts-1 {
		t.Fatalf("wins=%d conflicts=%d, want exactly one winner", wins.Load(), conflicts.Load())
	}
	var count int64
	if err := repo.Conn.Model(&models.CouponUse{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored rows = %d, want 1", count)
	}
}

func TestCreatePaymentWithCouponRollsBackTogether(t *testing.T) {
	repo := newRepoForTest(t)
	seedPayment(t, repo, "pay-1", models.PaymentPending, models.RewardPending, 0)

	couponUse := func() *models.CouponUse {
		return &models.CouponUse{
			Wallet:   "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
			CouponID: "coupon-1",
			TxHash:   "0x" + strings.Repeat("cd", 32),
		}
	}
	payment := func(id string) *models.Payment {
		return &models.Payment{
			ID:              id,
			Wallet:          "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
			ProductID:       "prod-1",
			CouponID:        "coupon-1",
			TxHash:          "0x" + strings.Repeat("cd", 32),
			OriginalPrice:   "1000",
			DiscountAmount:  "50",
			DiscountedPrice: "950",
			RewardAmount:    "19",
			Status:          models.PaymentPending,
			RewardStatus:    models.RewardPending,
		}
	}

	// The colliding id makes the payment insert fail after the coupon row was
	// written inside the transaction.
	err := repo.CreatePaymentWithCoupon(payment("pay-1"), couponUse())
	if err == nil {
		t.Fatal("expected the payment insert to fail")
	}
	if errors.Is(err, models.ErrCouponUsed) {
		t.Fatalf("a payment fault must not read as a coupon conflict: %v", err)
	}

	// The coupon row rolled back with it, so the tuple is still usable
	if err := repo.CreatePaymentWithCoupon(payment("pay-2"), couponUse()); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}

	// and now consumed, exactly once
	if err := repo.CreatePaymentWithCoupon(payment("pay-3"), couponUse()); !errors.Is(err, models.ErrCouponUsed) {
		t.Fatalf("want ErrCouponUsed, got %v", err)
	}
	if _, err := repo.GetPayment("pay-3"); !errors.Is(err, models.ErrPaymentNotFound) {
		t.Fatalf("rejected checkout must not leave a payment behind, got %v", err)
	}
}

func TestGetPaymentsByWallet(t *testing.T) {
	repo := newRepoForTest(t)
	seedPayment(t, repo, "pay-1", models.PaymentPending, models.RewardPending, 0)
	seedPayment(t, repo, "pay-2", models.PaymentSuccess, models.RewardPending, 0)

	payments, err := repo.GetPaymentsByWallet("0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}

	payments, err = repo.GetPaymentsByWallet("0x0000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(payments))
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	repo := newRepoForTest(t)
	if _, err := repo.GetPayment("missing"); !errors.Is(err, models.ErrPaymentNotFound) {
		t.Fatalf("want ErrPaymentNotFound, got %v", err)
	}
}
