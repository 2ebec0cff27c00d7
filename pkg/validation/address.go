package validation

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidateAddress validates a wallet address format (0x-prefixed, 20 bytes).
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	normalized := strings.TrimPrefix(addr, "0x")
	normalized = strings.TrimPrefix(normalized, "0X")

	// 40 hex characters = 20 bytes
	if len(normalized) != 40 {
		return fmt.Errorf("invalid address length: expected 40 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex address: %w", err)
	}

	return nil
}

// NormalizeAddress converts an address to its canonical stored form:
// lowercase with a 0x prefix. Addresses are always normalized before any
// comparison or persistence.
func NormalizeAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "0x")
	addr = strings.TrimPrefix(addr, "0X")
	return "0x" + strings.ToLower(addr)
}

// ValidateAndNormalizeAddress validates an address and returns its normalized form.
func ValidateAndNormalizeAddress(addr string) (string, error) {
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return NormalizeAddress(addr), nil
}

// NormalizeTxHash lowercases a transaction hash with a 0x prefix.
func NormalizeTxHash(hash string) string {
	hash = strings.TrimPrefix(hash, "0x")
	hash = strings.TrimPrefix(hash, "0X")
	return "0x" + strings.ToLower(hash)
}

// ValidateTxHash validates a transaction hash format (0x-prefixed, 32 bytes).
func ValidateTxHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	normalized := strings.TrimPrefix(hash, "0x")
	normalized = strings.TrimPrefix(normalized, "0X")

	if len(normalized) != 64 {
		return fmt.Errorf("invalid transaction hash length: expected 64 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex transaction hash: %w", err)
	}

	return nil
}
