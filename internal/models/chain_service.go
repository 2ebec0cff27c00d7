package models

import (
	"context"
	"math/big"
)

// RewardInspection is the result of decoding a purchase transaction's receipt
// for reward events. It is derived purely from immutable chain data.
type RewardInspection struct {
	// Confirmed is false when the transaction has no receipt yet. Distinct
	// from an RPC error: an unconfirmed transaction is a normal outcome.
	Confirmed bool
	// Succeeded is the receipt status of the transaction itself.
	Succeeded bool
	// RewardPaid is the reward amount paid on-chain. When multiple reward
	// events are present the maximum observed amount is taken. Zero when no
	// reward event was found.
	RewardPaid *big.Int
	// SawRewardEvent reports whether any known reward event was decoded.
	SawRewardEvent bool
	// IgnoredLogs counts receipt logs that matched no known event signature.
	IgnoredLogs int
}

// ChainService reads settlement evidence from the blockchain node. It
// performs no writes and is safe to call repeatedly and concurrently for the
// same transaction.
type ChainService interface {
	// InspectReward fetches the receipt for txHash and decodes its logs
	// against the known reward event signatures. Returns ErrChainUnavailable
	// (wrapped) when the node cannot be reached within the configured
	// timeout; that outcome is always retryable.
	InspectReward(ctx context.Context, txHash string) (*RewardInspection, error)
}

// AlertService surfaces conditions that need operator attention.
type AlertService interface {
	// RewardRetriesExhausted fires when a payment's reward retry budget is
	// spent. The payment stays queryable in the ledger; the alert exists so
	// exhaustion is never silent.
	RewardRetriesExhausted(payment *Payment)
}
