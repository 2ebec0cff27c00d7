package alert

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/logger"
)

// TelegramAlerter delivers operational alerts to an ops chat. It implements
// models.AlertService.
type TelegramAlerter struct {
	logger *logger.Logger

	bot    *bot.Bot
	chatID string
}

func NewTelegramAlerter(logger *logger.Logger, token, chatID string) (*TelegramAlerter, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramAlerter{logger: logger, bot: b, chatID: chatID}, nil
}

func (t *TelegramAlerter) RewardRetriesExhausted(payment *models.Payment) {
	message := fmt.Sprintf(
		"Reward payout needs manual intervention\npayment: %s\nwallet: %s\ntx: %s\nreward: %s\nretries: %d",
		payment.ID, payment.Wallet, payment.TxHash, payment.RewardAmount, payment.RetryCount,
	)
	t.send(message)
}

func (t *TelegramAlerter) send(message string) {
	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	}
	_, err := t.bot.SendMessage(context.Background(), params)
	if err != nil {
		t.logger.Error("Failed to send alert: ", err)
	}
}

// LogAlerter is the fallback AlertService when no telegram credentials are
// configured: exhaustion still lands in the logs at error level.
type LogAlerter struct {
	logger *logger.Logger
}

func NewLogAlerter(logger *logger.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (l *LogAlerter) RewardRetriesExhausted(payment *models.Payment) {
	l.logger.Error("Reward payout needs manual intervention ",
		"payment ", payment.ID,
		"wallet ", payment.Wallet,
		"tx ", payment.TxHash,
		"reward ", payment.RewardAmount,
		"retries ", payment.RetryCount)
}
