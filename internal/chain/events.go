package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// The shop contract can pay the cashback in two ways, and each leaves a
// distinct event in the purchase receipt:
//
//	Paid(address indexed payer, uint256 amount, uint256 reward)
//	  emitted on every purchase; reward > 0 when the contract paid the
//	  cashback atomically with the purchase.
//	RewardProvided(address indexed recipient, uint256 amount)
//	  emitted when the reward is transferred as its own step.
var (
	paidEventSignature           = crypto.Keccak256Hash([]byte("Paid(address,uint256,uint256)"))
	rewardProvidedEventSignature = crypto.Keccak256Hash([]byte("RewardProvided(address,uint256)"))
)

// RewardEvent is one decoded reward-bearing log entry.
type RewardEvent struct {
	// Event is the matched signature name.
	Event string
	// Recipient is the indexed address the event refers to.
	Recipient common.Address
	// Amount is the reward amount carried by the event, in base units.
	Amount *big.Int
}

// decodedLogs is the outcome of decoding a receipt's logs against the known
// event set. Logs that match no known signature are counted, not dropped
// silently and not treated as errors.
type decodedLogs struct {
	Matches []RewardEvent
	Ignored int
}

// decodeRewardLogs decodes every log against the known event signatures.
// When contract is non-nil, logs from other addresses are ignored.
func decodeRewardLogs(logs []*types.Log, contract *common.Address) decodedLogs {
	var out decodedLogs
	for _, entry := range logs {
		if entry == nil {
			continue
		}
		if contract != nil && entry.Address != *contract {
			out.Ignored++
			continue
		}
		event, ok := decodeRewardLog(entry)
		if !ok {
			out.Ignored++
			continue
		}
		out.Matches = append(out.Matches, event)
	}
	return out
}

func decodeRewardLog(entry *types.Log) (RewardEvent, bool) {
	if len(entry.Topics) < 2 {
		return RewardEvent{}, false
	}

	switch entry.Topics[0] {
	case paidEventSignature:
		// data: amount (32 bytes) ++ reward (32 bytes)
		if len(entry.Data) < 64 {
			return RewardEvent{}, false
		}
		return RewardEvent{
			Event:     "Paid",
			Recipient: common.BytesToAddress(entry.Topics[1].Bytes()),
			Amount:    new(big.Int).SetBytes(entry.Data[32:64]),
		}, true
	case rewardProvidedEventSignature:
		// data: amount (32 bytes)
		if len(entry.Data) < 32 {
			return RewardEvent{}, false
		}
		return RewardEvent{
			Event:     "RewardProvided",
			Recipient: common.BytesToAddress(entry.Topics[1].Bytes()),
			Amount:    new(big.Int).SetBytes(entry.Data[:32]),
		}, true
	}

	return RewardEvent{}, false
}

// maxRewardAmount picks the largest amount among the decoded events. Taking
// the maximum defends against ambiguous or padded encodings when a receipt
// carries more than one matching event.
func maxRewardAmount(events []RewardEvent) *big.Int {
	max := new(big.Int)
	for _, event := range events {
		if event.Amount != nil && event.Amount.Cmp(max) > 0 {
			max = event.Amount
		}
	}
	return max
}
