package signing

import (
	"context"

	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/walletcodec"
	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
)

// ListWallets returns every wallet's non-secret metadata.
func (p *Pipeline) ListWallets() ([]walletmodel.WalletInfo, error) {
	return p.store.List()
}

// DeleteWallet removes a wallet record by name.
func (p *Pipeline) DeleteWallet(name string) error {
	record, err := p.store.GetByName(name)
	if err != nil {
		return err
	}
	return p.store.Delete(record.Info.ID)
}

// GetBalance resolves walletName's address on networkName and queries the
// corresponding ChainClient for its balance.
func (p *Pipeline) GetBalance(ctx context.Context, walletName, networkName string) (string, error) {
	network, err := derivation.LookupNetwork(networkName)
	if err != nil {
		return "", walleterr.Validation("UNSUPPORTED_NETWORK", err.Error())
	}
	client, err := p.clientFor(network)
	if err != nil {
		return "", err
	}

	record, err := p.store.GetByName(walletName)
	if err != nil {
		return "", err
	}

	masterSeed, err := walletcodec.Decrypt(record, p.kekProvider)
	if err != nil {
		return "", walleterr.Wrap(walleterr.KindCryptoError, "DECRYPT_FAILED", "could not decrypt wallet", err)
	}
	defer masterSeed.Close()

	address, err := p.derive.DeriveAddress(masterSeed, network)
	if err != nil {
		return "", walleterr.Wrap(walleterr.KindInternal, "DERIVATION_FAILED", "could not derive address", err)
	}

	return client.GetBalance(ctx, address)
}

// WalletID resolves a wallet's uuid by name, for callers (e.g. the bridge
// handler) that need a stable identifier distinct from the mutable name.
func (p *Pipeline) WalletID(name string) (uuid.UUID, error) {
	record, err := p.store.GetByName(name)
	if err != nil {
		return uuid.Nil, err
	}
	return record.Info.ID, nil
}
