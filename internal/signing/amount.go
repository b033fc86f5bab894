package signing

import (
	"math/big"
	"strings"

	"github.com/defisafe/walletd/internal/walleterr"
)

// parseDecimalAmount validates that amount is a positive decimal within the
// network's precision limits, rejecting scientific notation, negatives and
// zero, and converts it to the network's smallest unit (wei for EVM,
// satoshis for Bitcoin).
func parseDecimalAmount(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount is required")
	}
	if strings.ContainsAny(amount, "eE") {
		return nil, walleterr.Validation("INVALID_AMOUNT", "scientific notation is not accepted")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount must be positive")
	}

	whole, frac, hasFrac := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount must be a plain decimal number")
	}
	if len(frac) > decimals {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount exceeds the network's supported precision")
	}
	frac = frac + strings.Repeat("0", decimals-len(frac))

	combined := whole + frac
	value, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount must be a plain decimal number")
	}
	if value.Sign() <= 0 {
		return nil, walleterr.Validation("INVALID_AMOUNT", "amount must be greater than zero")
	}
	return value, nil
}

func isDigits(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
