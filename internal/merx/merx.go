package merx

import (
	"context"
	"sync"
	"time"

	"github.com/merxpay/merx/internal/config"
	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/internal/quote"
	"github.com/merxpay/merx/pkg/logger"
)

// Merx is the settlement core: it issues quotes, converts them into payments
// at checkout, finalizes payments against the chain, and reconciles cashback
// payouts. It owns the periodic quote-sweep and reward-retry tasks.
//
// Instances are constructed at startup and torn down at shutdown; there is no
// package-level state, so tests can run independent instances side by side.
type Merx struct {
	logger *logger.Logger
	config *config.Config

	repo   models.Repository
	chain  models.ChainService
	quotes *quote.Engine
	alerts models.AlertService

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	repo models.Repository,
	chain models.ChainService,
	quotes *quote.Engine,
	alerts models.AlertService,
	logger *logger.Logger,
	config *config.Config,
) *Merx {
	ctx, cancel := context.WithCancel(context.Background())
	return &Merx{
		repo:   repo,
		chain:  chain,
		quotes: quotes,
		alerts: alerts,
		logger: logger,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RequestQuote issues a fresh quote for a wallet/product pair.
func (m *Merx) RequestQuote(ctx context.Context, wallet, productID, couponID string) (*models.Quote, error) {
	return m.quotes.RequestQuote(ctx, wallet, productID, couponID)
}

// GetPayment looks up a payment in the ledger.
func (m *Merx) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	return m.repo.GetPayment(id)
}

// GetPaymentsByWallet lists a wallet's payments, newest first.
func (m *Merx) GetPaymentsByWallet(_ context.Context, wallet string) ([]*models.Payment, error) {
	return m.repo.GetPaymentsByWallet(wallet)
}

// Start launches the background tasks: the quote store sweep and the reward
// retry sweep, each on its own fixed interval.
func (m *Merx) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.QuoteSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := m.quotes.Sweep(m.ctx, time.Now())
				if err != nil {
					m.logger.Error("Failed to sweep expired quotes ", "error ", err)
					continue
				}
				if removed > 0 {
					m.logger.Debug("Swept expired quotes ", "removed ", removed)
				}
			case <-m.ctx.Done():
				return
			}
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.RewardRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.SweepFailedRewards(m.ctx); err != nil {
					m.logger.Error("Reward retry sweep failed ", "error ", err)
				}
			case <-m.ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("Settlement core started",
		" quoteSweepInterval ", m.config.QuoteSweepInterval,
		" rewardRetryInterval ", m.config.RewardRetryInterval)
}

// Stop cancels the background tasks and waits for them to drain.
func (m *Merx) Stop() {
	m.cancel()
	m.wg.Wait()
	m.logger.Info("Settlement core stopped")
}
