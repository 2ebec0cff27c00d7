package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/merxpay/merx/pkg/amount"
	"github.com/merxpay/merx/pkg/validation"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	// Blockchain configuration
	ChainRPCURL     string
	ContractAddress string
	ChainRPCTimeout time.Duration
	// Quote configuration
	QuoteTTL           time.Duration
	QuoteSweepInterval time.Duration
	// DiscountEnabled is a deployment-time policy switch: when false, quotes
	// carry no discount regardless of product rates.
	DiscountEnabled bool
	MaxDiscountBps  int
	// Reward retry configuration
	RewardRetryInterval time.Duration
	MaxRewardRetry      int
	// Redis configuration. Empty address means the in-process quote store.
	RedisAddr     string
	RedisPassword string
	// Alerting configuration
	TelegramBotToken string
	TelegramChatID   string
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:      getEnvAsBool("DEVELOPMENT", false),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "merx"),
		ChainRPCURL:      getEnv("CHAIN_RPC_URL", "http://localhost:8545"),
		ContractAddress:  getEnv("CONTRACT_ADDRESS", ""),
		ChainRPCTimeout:  getEnvAsDuration("CHAIN_RPC_TIMEOUT", 10*time.Second),

		QuoteTTL:           getEnvAsDuration("QUOTE_TTL", 5*time.Minute),
		QuoteSweepInterval: getEnvAsDuration("QUOTE_SWEEP_INTERVAL", time.Minute),
		DiscountEnabled:    getEnvAsBool("DISCOUNT_ENABLED", true),
		MaxDiscountBps:     getEnvAsInt("MAX_DISCOUNT_BPS", 9000),

		RewardRetryInterval: getEnvAsDuration("REWARD_RETRY_INTERVAL", time.Minute),
		MaxRewardRetry:      getEnvAsInt("MAX_REWARD_RETRY", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		APIPort: getEnvAsInt("API_PORT", 6580),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set.
func (c *Config) Validate() error {
	if c.ChainRPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required")
	}

	if c.ContractAddress != "" {
		if err := validation.ValidateAddress(c.ContractAddress); err != nil {
			return fmt.Errorf("invalid CONTRACT_ADDRESS format: %w", err)
		}
	}

	if err := amount.ValidateBps(c.MaxDiscountBps); err != nil {
		return fmt.Errorf("invalid MAX_DISCOUNT_BPS: %w", err)
	}

	if c.QuoteTTL <= 0 {
		return fmt.Errorf("QUOTE_TTL must be positive")
	}

	if c.MaxRewardRetry < 1 {
		return fmt.Errorf("MAX_REWARD_RETRY must be at least 1")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
