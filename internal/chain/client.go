package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/logger"
)

// receiptClient is the subset of the Ethereum RPC this service uses.
type receiptClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client reads transaction receipts from the chain node and inspects them
// for reward events. It implements models.ChainService.
type Client struct {
	logger *logger.Logger

	rpcURL  string
	timeout time.Duration
	// contract, when set, restricts event decoding to logs emitted by the
	// shop contract.
	contract *common.Address

	client receiptClient
	closer func()
}

func NewClient(rpcURL, contractAddress string, timeout time.Duration, logger *logger.Logger) *Client {
	c := &Client{
		rpcURL:  rpcURL,
		timeout: timeout,
		logger:  logger,
	}
	if contractAddress != "" {
		addr := common.HexToAddress(contractAddress)
		c.contract = &addr
	}
	return c
}

// NewClientWithBackend wires a pre-built RPC backend. Used in tests.
func NewClientWithBackend(backend receiptClient, contractAddress string, logger *logger.Logger) *Client {
	c := &Client{
		client:  backend,
		timeout: 10 * time.Second,
		logger:  logger,
	}
	if contractAddress != "" {
		addr := common.HexToAddress(contractAddress)
		c.contract = &addr
	}
	return c
}

// Connect dials the RPC endpoint.
func (c *Client) Connect() error {
	client, err := ethclient.Dial(c.rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the chain RPC server: %w", err)
	}
	c.client = client
	c.closer = client.Close
	return nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// InspectReward fetches the receipt for txHash and decodes its logs against
// the known reward event signatures. It performs no writes: the same hash can
// be inspected repeatedly and concurrently with identical results once the
// transaction is confirmed.
func (c *Client) InspectReward(ctx context.Context, txHash string) (*models.RewardInspection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			// Not confirmed yet. A normal outcome, not an error.
			return &models.RewardInspection{Confirmed: false, RewardPaid: new(big.Int)}, nil
		}
		return nil, fmt.Errorf("%w: failed to get transaction receipt for %s: %v", models.ErrChainUnavailable, txHash, err)
	}

	decoded := decodeRewardLogs(receipt.Logs, c.contract)
	inspection := &models.RewardInspection{
		Confirmed:      true,
		Succeeded:      receipt.Status == types.ReceiptStatusSuccessful,
		RewardPaid:     maxRewardAmount(decoded.Matches),
		SawRewardEvent: len(decoded.Matches) > 0,
		IgnoredLogs:    decoded.Ignored,
	}

	c.logger.Debug("Receipt inspected ", "tx ", txHash, "rewardEvents ", len(decoded.Matches), "ignoredLogs ", decoded.Ignored, "rewardPaid ", inspection.RewardPaid)
	return inspection, nil
}
