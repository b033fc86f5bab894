package signing

import (
	"github.com/defisafe/walletd/internal/walletcodec"
	"github.com/defisafe/walletd/internal/walleterr"
)

// RotateWalletKEK re-encrypts a single wallet's record under the KEK
// provider's current key, migrating it off whatever kek_id it was
// previously sealed with. Callers are expected to have already promoted
// the provider to the new KEK (kek.MultiProvider
// chains the old key so Decrypt still succeeds during the migration
// window); this only handles one wallet, matching the admin endpoint's
// per-wallet scope.
func (p *Pipeline) RotateWalletKEK(name string) error {
	record, err := p.store.GetByName(name)
	if err != nil {
		return err
	}

	rotated, err := walletcodec.Reencrypt(record, p.kekProvider, p.kekProvider)
	if err != nil {
		return walleterr.Wrap(walleterr.KindCryptoError, "KEK_ROTATE_FAILED", "could not re-encrypt wallet under current KEK", err)
	}

	return p.store.Replace(rotated)
}
