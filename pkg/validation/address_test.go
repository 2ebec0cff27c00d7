package validation

import "testing"

const validAddr = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress(validAddr); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if err := ValidateAddress("ab5801a7d398351b8be11c439e05c5b3259aec9b"); err != nil {
		t.Fatalf("address without prefix rejected: %v", err)
	}

	for _, addr := range []string{"", "0x1234", "0xZZ5801a7d398351b8be11c439e05c5b3259aec9b"} {
		if err := ValidateAddress(addr); err == nil {
			t.Fatalf("expected error for %q", addr)
		}
	}
}

func TestNormalizeAddress(t *testing.T) {
	want := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	if got := NormalizeAddress(validAddr); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	// Normalization is idempotent and prefix-insensitive
	if got := NormalizeAddress(want); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if got := NormalizeAddress("0XAB5801A7D398351B8BE11C439E05C5B3259AEC9B"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestValidateTxHash(t *testing.T) {
	valid := "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
	if err := ValidateTxHash(valid); err != nil {
		t.Fatalf("valid hash rejected: %v", err)
	}

	for _, hash := range []string{"", "0xabcd", validAddr} {
		if err := ValidateTxHash(hash); err == nil {
			t.Fatalf("expected error for %q", hash)
		}
	}
}

func TestNormalizeTxHash(t *testing.T) {
	want := "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
	if got := NormalizeTxHash("0x88DF016429689C079F3B2F6AD39FA052532C56795B733DA78A91EBE6A713944B"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
