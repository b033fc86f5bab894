package noncecoord

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGetter struct{ nonce uint64 }

func (s stubGetter) GetNonce(ctx context.Context, address string) (uint64, error) {
	return s.nonce, nil
}

func TestMultiChainSourceDispatchesByChain(t *testing.T) {
	src := MultiChainSource{
		"ethereum": stubGetter{nonce: 5},
		"polygon":  stubGetter{nonce: 9},
	}
	n, err := src.GetNonce(context.Background(), "0xabc", "polygon")
	require.NoError(t, err)
	require.Equal(t, uint64(9), n)
}

func TestMultiChainSourceUnknownChainErrors(t *testing.T) {
	src := MultiChainSource{"ethereum": stubGetter{nonce: 5}}
	_, err := src.GetNonce(context.Background(), "0xabc", "bsc")
	require.Error(t, err)
}
