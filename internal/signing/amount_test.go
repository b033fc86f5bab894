package signing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimalAmountWholeNumber(t *testing.T) {
	v, err := parseDecimalAmount("2", 18)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(big.NewInt(2), big.NewInt(1_000_000_000_000_000_000)), v)
}

func TestParseDecimalAmountFraction(t *testing.T) {
	v, err := parseDecimalAmount("1.5", 18)
	require.NoError(t, err)
	want := new(big.Int)
	want.SetString("1500000000000000000", 10)
	require.Equal(t, want, v)
}

func TestParseDecimalAmountBitcoinPrecision(t *testing.T) {
	v, err := parseDecimalAmount("0.00000001", 8)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), v)
}

func TestParseDecimalAmountRejectsZero(t *testing.T) {
	_, err := parseDecimalAmount("0", 18)
	require.Error(t, err)
	_, err = parseDecimalAmount("0.0", 18)
	require.Error(t, err)
}

func TestParseDecimalAmountRejectsNegative(t *testing.T) {
	_, err := parseDecimalAmount("-1", 18)
	require.Error(t, err)
}

func TestParseDecimalAmountRejectsScientificNotation(t *testing.T) {
	_, err := parseDecimalAmount("1e5", 18)
	require.Error(t, err)
}

func TestParseDecimalAmountRejectsExcessPrecision(t *testing.T) {
	_, err := parseDecimalAmount("1.0000000001", 8)
	require.Error(t, err)
}

func TestParseDecimalAmountRejectsEmpty(t *testing.T) {
	_, err := parseDecimalAmount("", 18)
	require.Error(t, err)
}

func TestParseDecimalAmountRejectsGarbage(t *testing.T) {
	_, err := parseDecimalAmount("abc", 18)
	require.Error(t, err)
	_, err = parseDecimalAmount("1.2.3", 18)
	require.Error(t, err)
}
