package merx

import (
	"context"
	"fmt"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/amount"
)

// ConfirmPayment applies the final on-chain outcome of the purchase
// transaction to the payment. The PENDING -> final transition is a single
// conditional update; a repeated confirmation with the same outcome is a
// no-op, not an error, so the external confirmation flow can retry freely.
//
// On SUCCESS the reward settlement runs synchronously. Settlement failures do
// not fail the confirmation: the retry sweeper picks the payment up later.
func (m *Merx) ConfirmPayment(ctx context.Context, paymentID string, final models.PaymentStatus) (*models.Payment, error) {
	if final != models.PaymentSuccess && final != models.PaymentFailed {
		return nil, fmt.Errorf("invalid final status %q", final)
	}

	applied, err := m.repo.FinalizePaymentStatus(paymentID, final)
	if err != nil {
		return nil, err
	}

	payment, err := m.repo.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Already finalized. Accept a repeat of the same outcome; reject an
		// attempt to flip a terminal status.
		if payment.Status != final {
			return nil, fmt.Errorf("payment %s already finalized as %s", paymentID, payment.Status)
		}
	}

	if payment.Status == models.PaymentSuccess {
		if payment.RewardStatus == models.RewardFailed && payment.RetryCount >= m.config.MaxRewardRetry {
			// Retry budget exhausted: the payment is in manual-intervention
			// territory and repeated confirmations must not keep charging it.
			return payment, nil
		}
		settled, err := m.SettleReward(ctx, paymentID)
		if err != nil {
			// Transient chain faults leave the reward state untouched; the
			// sweeper or a confirmation retry will try again.
			m.logger.Warn("Reward settlement deferred ", "payment ", paymentID, "error ", err)
			return payment, nil
		}
		return settled, nil
	}

	return payment, nil
}

// SettleReward reconciles a payment's cashback against the chain.
//
// Idempotence is mandatory: the function runs both synchronously at
// confirmation time and later from the retry sweeper, and an
// already-completed reward is a no-op. Outcomes:
//
//   - reward found on-chain: reward COMPLETED, on-chain amount overwrites the
//     quoted estimate, reward tx recorded
//   - chain answered but shows no reward yet: reward FAILED, retry count
//     incremented (the expected first-attempt path when the payout is
//     asynchronous)
//   - chain unreachable: no state change, no retry charged
func (m *Merx) SettleReward(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := m.repo.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentSuccess {
		return nil, fmt.Errorf("payment %s is %s, reward settlement requires SUCCESS", paymentID, payment.Status)
	}
	if payment.RewardStatus == models.RewardCompleted {
		return payment, nil
	}
	if payment.TxHash == "" {
		return nil, fmt.Errorf("payment %s has no transaction hash to inspect", paymentID)
	}

	inspection, err := m.chain.InspectReward(ctx, payment.TxHash)
	if err != nil {
		// Infrastructure fault: retryable, must not consume the retry budget.
		return nil, err
	}

	if inspection.RewardPaid != nil && inspection.RewardPaid.Sign() > 0 {
		onChainAmount := amount.Format(inspection.RewardPaid)
		applied, err := m.repo.CompleteReward(paymentID, payment.TxHash, onChainAmount)
		if err != nil {
			return nil, err
		}
		if !applied {
			// A concurrent writer completed first. The chain is immutable, so
			// a differing stored amount means corrupted data, not a race.
			settled, err := m.repo.GetPayment(paymentID)
			if err != nil {
				return nil, err
			}
			if settled.RewardStatus == models.RewardCompleted && settled.RewardAmount != onChainAmount {
				m.logger.Error("Reward amount conflict ", "payment ", paymentID, "stored ", settled.RewardAmount, "onChain ", onChainAmount)
				return nil, models.ErrRewardConflict
			}
			return settled, nil
		}

		m.logger.Info("Reward settled from chain ", "payment ", paymentID, "amount ", onChainAmount, "tx ", payment.TxHash)
		return m.repo.GetPayment(paymentID)
	}

	// The chain gave a definite answer with no reward: either the receipt
	// exists without a reward event, or the transaction is not mined yet.
	// Both consume one retry.
	if _, err := m.repo.MarkRewardFailed(paymentID); err != nil {
		return nil, err
	}

	m.logger.Debug("No reward on chain yet ", "payment ", paymentID, "confirmed ", inspection.Confirmed, "ignoredLogs ", inspection.IgnoredLogs)

	settled, err := m.repo.GetPayment(paymentID)
	if err != nil {
		return nil, err
	}
	// The alert lives here rather than in the sweep so an attempt that
	// exhausts the budget surfaces regardless of which path triggered it.
	if settled.RewardStatus == models.RewardFailed && settled.RetryCount >= m.config.MaxRewardRetry {
		m.logger.Error("Reward retry budget exhausted ", "payment ", settled.ID, "retryCount ", settled.RetryCount)
		if m.alerts != nil {
			m.alerts.RewardRetriesExhausted(settled)
		}
	}
	return settled, nil
}

// SweepFailedRewards re-attempts settlement for every payment still inside
// its retry budget. Payments at or past the budget are excluded by the
// selection query itself; SettleReward alerts on the ones that exhaust it.
func (m *Merx) SweepFailedRewards(ctx context.Context) error {
	payments, err := m.repo.ListFailedRewards(m.config.MaxRewardRetry)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}

	m.logger.Debug("Retry sweep started ", "candidates ", len(payments))
	for _, payment := range payments {
		if _, err := m.SettleReward(ctx, payment.ID); err != nil {
			m.logger.Warn("Retry settlement failed ", "payment ", payment.ID, "error ", err)
		}
	}
	return nil
}
