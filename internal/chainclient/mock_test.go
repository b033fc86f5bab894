//go:build testmock

package chainclient

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defisafe/walletd/internal/derivation"
)

func TestMockClientBalanceDefaultsToZero(t *testing.T) {
	m := NewMockClient(derivation.Ethereum)
	balance, err := m.GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Equal(t, "0", balance)
}

func TestMockClientSetBalance(t *testing.T) {
	m := NewMockClient(derivation.Ethereum)
	m.SetBalance("0xabc", big.NewInt(500))
	balance, err := m.GetBalance(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Equal(t, "500", balance)
}

func TestMockClientSubmitThenStatus(t *testing.T) {
	m := NewMockClient(derivation.Ethereum)
	tx, err := m.BuildAndSign(context.Background(), SignRequest{})
	require.NoError(t, err)

	hash, err := m.Submit(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, tx.TxHash, hash)

	status, err := m.Status(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, status)
}

func TestMockClientStatusUnknownBeforeSubmit(t *testing.T) {
	m := NewMockClient(derivation.Ethereum)
	status, err := m.Status(context.Background(), "0xnever-submitted")
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, status)
}

func TestFailingNonceMockClientReturnsError(t *testing.T) {
	f := FailingNonceMockClient{}
	_, err := f.GetNonce(context.Background(), "0xabc")
	require.Error(t, err)
}
