package signing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/noncecoord"
	"github.com/defisafe/walletd/internal/secretbuf"
	"github.com/defisafe/walletd/internal/walletcodec"
	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletstore"
)

type fixedKEKProvider struct {
	id  string
	key []byte
}

func (f fixedKEKProvider) CurrentID() string { return f.id }

func (f fixedKEKProvider) Get(id string) (*secretbuf.Buffer, error) {
	if id != f.id {
		return nil, kek.ErrKeyUnavailable
	}
	return secretbuf.New(f.key), nil
}

func testKEK() kek.Provider {
	return fixedKEKProvider{id: "test-kek-1", key: make([]byte, 32)}
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeClient) {
	t.Helper()
	store, err := walletstore.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := newFakeClient(derivation.Ethereum)
	clients := map[string]chainclient.ChainClient{derivation.Ethereum.Name: client}
	nonces := noncecoord.New(noncecoord.MultiChainSource{derivation.Ethereum.Name: client})

	p := New(store, testKEK(), nonces, clients, 1<<20)
	return p, client
}

func TestCreateWalletThenSendRoundTrip(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	info, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{
		Name:     "alice",
		Password: "correct horse battery staple",
		Networks: []string{"ethereum"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, mnemonic.Len())
	mnemonic.Close()
	require.Equal(t, "alice", info.Name)

	result, err := p.Send(ctx, SendRequest{
		WalletName: "alice",
		ToAddress:  "0x0000000000000000000000000000000000000001",
		Amount:     "1.5",
		Network:    "ethereum",
		Password:   "correct horse battery staple",
	})
	require.NoError(t, err)
	require.Equal(t, "0xfaketxhash", result.TxHash)
}

func TestSendRejectsWrongPassword(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "bob", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	_, err = p.Send(ctx, SendRequest{
		WalletName: "bob",
		ToAddress:  "0x0000000000000000000000000000000000000001",
		Amount:     "1",
		Network:    "ethereum",
		Password:   "wrong password entirely",
	})
	require.Error(t, err)
	require.Equal(t, walleterr.KindUnauthorized, walleterr.KindOf(err))
}

func TestSendLocksWalletAfterRepeatedFailures(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "carol", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	for i := 0; i < maxFailedWalletLogins; i++ {
		_, err = p.Send(ctx, SendRequest{WalletName: "carol", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "nope"})
		require.Error(t, err)
	}

	_, err = p.Send(ctx, SendRequest{WalletName: "carol", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "correct horse battery staple"})
	require.Error(t, err)
	require.Equal(t, walleterr.KindLocked, walleterr.KindOf(err))
}

func TestSendRejectsInvalidAddress(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "dave", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	_, err = p.Send(ctx, SendRequest{WalletName: "dave", ToAddress: "not-an-address", Amount: "1", Network: "ethereum", Password: "correct horse battery staple"})
	require.Error(t, err)
	require.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
}

func TestSendRejectsZeroAndNegativeAmounts(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "erin", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	for _, amount := range []string{"0", "-1", "1e10", "0.0000000000000000001"} {
		_, err = p.Send(ctx, SendRequest{WalletName: "erin", ToAddress: "0x0000000000000000000000000000000000000001", Amount: amount, Network: "ethereum", Password: "correct horse battery staple"})
		require.Error(t, err, "amount %q should be rejected", amount)
	}
}

func TestSendRollsBackNonceOnSubmitFailure(t *testing.T) {
	p, client := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "frank", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	client.submitFails = true
	_, err = p.Send(ctx, SendRequest{WalletName: "frank", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "correct horse battery staple"})
	require.Error(t, err)
	require.Equal(t, walleterr.KindSubmissionFailed, walleterr.KindOf(err))

	seed := decryptForTest(t, p, "frank", "correct horse battery staple")
	fromAddress, err := p.derive.DeriveAddress(seed, derivation.Ethereum)
	seed.Close()
	require.NoError(t, err)
	snapshot := p.nonces.Snapshot(fromAddress, derivation.Ethereum.Name)
	require.Empty(t, snapshot.Reserved, "failed submission must release its reserved nonce")
}

func TestSendIsIdempotentOnReplay(t *testing.T) {
	p, client := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "grace", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	req := SendRequest{WalletName: "grace", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "correct horse battery staple", ClientRequestID: "req-1"}

	first, err := p.Send(ctx, req)
	require.NoError(t, err)
	second, err := p.Send(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.TxHash, second.TxHash)
	require.Equal(t, 1, client.submitCount, "replay must not resubmit to the chain")
}

func TestSendIdempotencyConflictOnDifferentBody(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "heidi", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	_, err = p.Send(ctx, SendRequest{WalletName: "heidi", ToAddress: "0x0000000000000000000000000000000000000001", Amount: "1", Network: "ethereum", Password: "correct horse battery staple", ClientRequestID: "req-2"})
	require.NoError(t, err)

	_, err = p.Send(ctx, SendRequest{WalletName: "heidi", ToAddress: "0x0000000000000000000000000000000000000002", Amount: "1", Network: "ethereum", Password: "correct horse battery staple", ClientRequestID: "req-2"})
	require.Error(t, err)
	require.Equal(t, walleterr.KindConflict, walleterr.KindOf(err))
}

func TestRotateSigningKeyIsIdempotentOnReplay(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	info, mnemonic, err := p.CreateWallet(ctx, CreateWalletRequest{Name: "ivan", Password: "correct horse battery staple", Networks: []string{"ethereum"}})
	require.NoError(t, err)
	mnemonic.Close()

	err = p.RotateSigningKey(ctx, "ivan", "correct horse battery staple", info.DerivationEpoch)
	require.NoError(t, err)

	record, err := p.store.GetByName("ivan")
	require.NoError(t, err)
	require.Equal(t, info.DerivationEpoch+1, record.Info.DerivationEpoch)

	// Replaying with the original (now stale) epoch must be a no-op, not a
	// second rotation.
	err = p.RotateSigningKey(ctx, "ivan", "correct horse battery staple", info.DerivationEpoch)
	require.NoError(t, err)
	record2, err := p.store.GetByName("ivan")
	require.NoError(t, err)
	require.Equal(t, record.Info.DerivationEpoch, record2.Info.DerivationEpoch)
}

func decryptForTest(t *testing.T, p *Pipeline, walletName, password string) *secretbuf.Buffer {
	t.Helper()
	_ = password
	record, err := p.store.GetByName(walletName)
	require.NoError(t, err)
	seed, err := walletcodec.Decrypt(record, p.kekProvider)
	require.NoError(t, err)
	return seed
}
