package signing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendRecordsHistoryMostRecentFirst(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "judy", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	_, err = p.Send(ctx, SendRequest{WalletName: "judy", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "correct horse battery staple"})
	require.NoError(t, err)
	_, err = p.Send(ctx, SendRequest{WalletName: "judy", ToAddress: "0x0000000000000000000000000000000000000002", Amount: "2", Network: "ethereum", Password: "correct horse battery staple"})
	require.NoError(t, err)

	history := p.History("judy")
	require.Len(t, history, 2)
	require.Equal(t, "0x0000000000000000000000000000000000000002", history[0].ToAddress)
	require.Equal(t, "0x0000000000000000000000000000000000000001", history[1].ToAddress)
}

func TestListAndDeleteWallet(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "karl", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	wallets, err := p.ListWallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	require.Equal(t, "karl", wallets[0].Name)

	require.NoError(t, p.DeleteWallet("karl"))
	wallets, err = p.ListWallets()
	require.NoError(t, err)
	require.Empty(t, wallets)
}
