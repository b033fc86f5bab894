// Package signing implements the signing pipeline: the orchestrator that
// ties wallet storage, wallet encoding, key derivation, nonce coordination
// and chain clients together into send/rotate operations, plus the
// wallet-creation flow that produces the records those operations consume.
package signing

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/noncecoord"
	"github.com/defisafe/walletd/internal/pwhash"
	"github.com/defisafe/walletd/internal/secretbuf"
	"github.com/defisafe/walletd/internal/walletcodec"
	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/internal/walletmodel"
	"github.com/defisafe/walletd/internal/walletstore"
)

// ErrIdempotencyConflict signals a client_request_id replay whose body
// differs from the original call.
var ErrIdempotencyConflict = errors.New("signing: idempotency key reused with a different request body")

// maxFailedWalletLogins/walletLockoutDuration implement the per-wallet
// lockout on repeated wrong-password send attempts. There's no separate
// tuning knob for this counter, so it reuses AuthStore's defaults.
const (
	maxFailedWalletLogins = 5
	walletLockoutDuration = 15 * time.Minute
	bcryptCost            = pwhash.DefaultCost
)

// Pipeline orchestrates wallet creation, signing and key rotation.
type Pipeline struct {
	store       *walletstore.Store
	kekProvider kek.Provider
	derive      *derivation.Engine
	nonces      *noncecoord.Coordinator
	clients     map[string]chainclient.ChainClient
	idempotency *fastcache.Cache
	history     *walletHistory
}

// New builds a Pipeline. clients maps a derivation.Network's Name to the
// ChainClient that serves it; idempotencyCacheBytes bounds the idempotency
// cache's memory footprint.
func New(store *walletstore.Store, kekProvider kek.Provider, nonces *noncecoord.Coordinator, clients map[string]chainclient.ChainClient, idempotencyCacheBytes int) *Pipeline {
	return &Pipeline{
		store:       store,
		kekProvider: kekProvider,
		derive:      derivation.NewEngine(),
		nonces:      nonces,
		clients:     clients,
		idempotency: fastcache.New(idempotencyCacheBytes),
		history:     newWalletHistory(),
	}
}

func (p *Pipeline) clientFor(network derivation.Network) (chainclient.ChainClient, error) {
	c, ok := p.clients[network.Name]
	if !ok {
		return nil, walleterr.Validation("UNSUPPORTED_NETWORK", fmt.Sprintf("network %q is not configured", network.Name))
	}
	return c, nil
}

// CreateWalletRequest is the input to CreateWallet.
type CreateWalletRequest struct {
	Name        string
	Password    string
	QuantumSafe bool
	Networks    []string
}

// CreateWallet generates a fresh mnemonic, derives its master seed, seals
// it under the current KEK, and persists the record. Returns the mnemonic
// once, in a SecretBuffer the caller must Close after displaying it to the
// owner — it is never stored.
func (p *Pipeline) CreateWallet(ctx context.Context, req CreateWalletRequest) (*walletmodel.WalletInfo, *secretbuf.Buffer, error) {
	if req.Name == "" {
		return nil, nil, walleterr.Validation("INVALID_NAME", "wallet name is required")
	}
	if len(req.Password) < 8 {
		return nil, nil, walleterr.Validation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	for _, n := range req.Networks {
		if _, err := derivation.LookupNetwork(n); err != nil {
			return nil, nil, walleterr.Validation("UNSUPPORTED_NETWORK", err.Error())
		}
	}

	mnemonicPhrase, err := derivation.GenerateMnemonic(256)
	if err != nil {
		return nil, nil, walleterr.Wrap(walleterr.KindInternal, "MNEMONIC_FAILED", "could not generate mnemonic", err)
	}
	mnemonic := secretbuf.New([]byte(mnemonicPhrase))

	seedBytes, err := derivation.SeedFromMnemonic(mnemonicPhrase, "")
	if err != nil {
		mnemonic.Close()
		return nil, nil, walleterr.Wrap(walleterr.KindInternal, "SEED_FAILED", "could not derive seed", err)
	}
	seed := secretbuf.New(seedBytes)
	defer seed.Close()

	id, err := uuid.NewRandom()
	if err != nil {
		mnemonic.Close()
		return nil, nil, walleterr.Internal(err)
	}
	info := walletmodel.WalletInfo{
		ID:          id,
		Name:        req.Name,
		CreatedAt:   time.Now(),
		QuantumSafe: req.QuantumSafe,
		Networks:    req.Networks,
	}

	verifier, err := pwhash.Hash(req.Password, bcryptCost)
	if err != nil {
		mnemonic.Close()
		return nil, nil, err
	}

	kekBuf, err := p.kekProvider.Get(p.kekProvider.CurrentID())
	if err != nil {
		mnemonic.Close()
		return nil, nil, walleterr.Wrap(walleterr.KindInternal, "KEK_UNAVAILABLE", "key-encryption key unavailable", err)
	}
	defer kekBuf.Close()

	var record *walletmodel.SecureWalletData
	err = seed.With(func(plaintext []byte) error {
		rec, encErr := walletcodec.Encrypt(plaintext, info, kekBuf, p.kekProvider.CurrentID())
		if encErr != nil {
			return encErr
		}
		rec.PasswordVerifier = verifier
		record = rec
		return nil
	})
	if err != nil {
		mnemonic.Close()
		return nil, nil, err
	}

	if err := p.store.Create(record); err != nil {
		mnemonic.Close()
		return nil, nil, err
	}

	return &info, mnemonic, nil
}

// SendRequest is the input to Send.
type SendRequest struct {
	WalletName      string
	ToAddress       string
	Amount          string
	Network         string
	Password        string
	ClientRequestID string
}

// SendResult is the successful output of Send.
type SendResult struct {
	TxHash string
}

// Send validates the request, checks the idempotency cache, authenticates
// the wallet password, decrypts the signing key, reserves a nonce, builds
// and signs the transaction, broadcasts it and records the result, rolling
// back the reserved nonce if fee estimation, signing or submission fails.
// The sender's balance is not checked.
func (p *Pipeline) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	network, err := derivation.LookupNetwork(req.Network)
	if err != nil {
		return nil, walleterr.Validation("UNSUPPORTED_NETWORK", err.Error())
	}
	client, err := p.clientFor(network)
	if err != nil {
		return nil, err
	}

	// Step 1: validate.
	if req.WalletName == "" {
		return nil, walleterr.Validation("INVALID_WALLET_NAME", "wallet_name is required")
	}
	if !client.ValidateAddress(req.ToAddress) {
		return nil, walleterr.Validation("INVALID_ADDRESS", "to_address does not match the selected network")
	}
	amountSmallestUnit, err := parseDecimalAmount(req.Amount, network.Decimals)
	if err != nil {
		return nil, err
	}

	// Step 2: idempotency check.
	if cached, idemErr := p.lookupIdempotent(req.ClientRequestID, req.WalletName, req.ToAddress, req.Amount, req.Network); idemErr != nil {
		return nil, walleterr.Conflict("IDEMPOTENCY_CONFLICT", idemErr.Error())
	} else if cached != "" {
		return &SendResult{TxHash: cached}, nil
	}

	// Step 3: load wallet.
	record, err := p.store.GetByName(req.WalletName)
	if err != nil {
		return nil, err
	}

	// Step 4: authenticate.
	if record.Info.LockedUntil != nil && time.Now().Before(*record.Info.LockedUntil) {
		return nil, walleterr.Locked("wallet is temporarily locked after repeated failed attempts")
	}
	if !pwhash.Verify(record.PasswordVerifier, req.Password) {
		p.recordFailedAuth(record)
		return nil, walleterr.Unauthorized("INVALID_CREDENTIALS")
	}
	if record.Info.FailedLoginCount > 0 {
		record.Info.FailedLoginCount = 0
		record.Info.LockedUntil = nil
		_ = p.store.Replace(record)
	}

	// Step 5: decrypt.
	masterSeed, err := walletcodec.Decrypt(record, p.kekProvider)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindCryptoError, "DECRYPT_FAILED", "could not decrypt wallet", err)
	}
	defer masterSeed.Close()

	// Step 6: derive signing key and from_address.
	signingKey, err := p.derive.DeriveSigningKey(masterSeed, network)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, "DERIVATION_FAILED", "could not derive signing key", err)
	}
	defer signingKey.Close()

	fromAddress, err := p.derive.DeriveAddress(masterSeed, network)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, "DERIVATION_FAILED", "could not derive address", err)
	}

	// Step 7: reserve nonce.
	nonce, err := p.nonces.Reserve(ctx, fromAddress, network.Name)
	if err != nil {
		return nil, err
	}

	txHash, submitErr := p.buildSignAndSubmit(ctx, client, fromAddress, req.ToAddress, amountSmallestUnit, nonce, signingKey)
	if submitErr != nil {
		if rbErr := p.nonces.Rollback(fromAddress, network.Name, nonce); rbErr != nil {
			return nil, walleterr.Wrap(walleterr.KindInternal, "ROLLBACK_FAILED", "submission failed and rollback also failed", rbErr)
		}
		return nil, submitErr
	}

	// Step 10 (success path): commit and cache.
	if err := p.nonces.Commit(fromAddress, network.Name, nonce); err != nil {
		return nil, walleterr.Internal(err)
	}
	p.rememberIdempotent(req.ClientRequestID, req.WalletName, req.ToAddress, req.Amount, req.Network, txHash)
	p.history.record(req.WalletName, TxRecord{
		ToAddress: req.ToAddress,
		Amount:    req.Amount,
		Network:   req.Network,
		TxHash:    txHash,
		SentAt:    time.Now().UTC(),
	})

	return &SendResult{TxHash: txHash}, nil
}

// buildSignAndSubmit covers steps 8-9; split out so Send's rollback logic
// stays linear regardless of which of the two steps fails.
func (p *Pipeline) buildSignAndSubmit(ctx context.Context, client chainclient.ChainClient, fromAddress, toAddress string, amount *big.Int, nonce uint64, signingKey *secretbuf.Buffer) (string, error) {
	fee, err := client.EstimateFee(ctx, toAddress, amount)
	if err != nil {
		return "", err
	}

	signed, err := client.BuildAndSign(ctx, chainclient.SignRequest{
		From:       fromAddress,
		To:         toAddress,
		AmountWei:  amount,
		Nonce:      nonce,
		Fee:        fee,
		SigningKey: signingKey,
	})
	if err != nil {
		return "", walleterr.Wrap(walleterr.KindCryptoError, "SIGN_FAILED", "transaction signing failed", err)
	}

	hash, err := client.Submit(ctx, signed)
	if err != nil {
		return "", walleterr.Wrap(walleterr.KindSubmissionFailed, "SUBMIT_FAILED", "transaction rejected by chain", err)
	}
	return hash, nil
}

// recordFailedAuth increments the wallet's failure counter and locks it
// after maxFailedWalletLogins consecutive failures. Persistence errors are
// swallowed: a missed counter increment degrades to
// "one fewer enforced lockout," never to a stuck-locked wallet.
func (p *Pipeline) recordFailedAuth(record *walletmodel.SecureWalletData) {
	record.Info.FailedLoginCount++
	if record.Info.FailedLoginCount >= maxFailedWalletLogins {
		until := time.Now().Add(walletLockoutDuration)
		record.Info.LockedUntil = &until
	}
	_ = p.store.Replace(record)
}

// RotateSigningKey generates a fresh mnemonic, re-encrypts it into the
// existing record, and invalidates the old address's nonce state.
// Idempotent on replay via
// WalletInfo.DerivationEpoch: a caller retrying after a timeout-but-
// committed rotation observes the epoch already advanced and the
// operation is a no-op.
func (p *Pipeline) RotateSigningKey(ctx context.Context, walletName, password string, expectedEpoch uint64) error {
	record, err := p.store.GetByName(walletName)
	if err != nil {
		return err
	}
	if record.Info.DerivationEpoch != expectedEpoch {
		// Already rotated by a previous call with this epoch; idempotent no-op.
		return nil
	}
	if !pwhash.Verify(record.PasswordVerifier, password) {
		return walleterr.Unauthorized("INVALID_CREDENTIALS")
	}

	oldAddresses := make(map[string]string) // network name -> old address
	oldMasterSeed, err := walletcodec.Decrypt(record, p.kekProvider)
	if err != nil {
		return walleterr.Wrap(walleterr.KindCryptoError, "DECRYPT_FAILED", "could not decrypt wallet", err)
	}
	for _, name := range record.Info.Networks {
		network, lookupErr := derivation.LookupNetwork(name)
		if lookupErr != nil {
			continue
		}
		addr, addrErr := p.derive.DeriveAddress(oldMasterSeed, network)
		if addrErr == nil {
			oldAddresses[name] = addr
		}
	}
	oldMasterSeed.Close()

	mnemonicPhrase, err := derivation.GenerateMnemonic(256)
	if err != nil {
		return walleterr.Wrap(walleterr.KindInternal, "MNEMONIC_FAILED", "could not generate mnemonic", err)
	}
	mnemonic := secretbuf.New([]byte(mnemonicPhrase))
	defer mnemonic.Close()

	seedBytes, err := derivation.SeedFromMnemonic(mnemonicPhrase, "")
	if err != nil {
		return walleterr.Wrap(walleterr.KindInternal, "SEED_FAILED", "could not derive seed", err)
	}
	newSeed := secretbuf.New(seedBytes)
	defer newSeed.Close()

	kekBuf, err := p.kekProvider.Get(p.kekProvider.CurrentID())
	if err != nil {
		return walleterr.Wrap(walleterr.KindInternal, "KEK_UNAVAILABLE", "key-encryption key unavailable", err)
	}
	defer kekBuf.Close()

	newInfo := record.Info
	newInfo.DerivationEpoch++

	var newRecord *walletmodel.SecureWalletData
	err = newSeed.With(func(plaintext []byte) error {
		rec, encErr := walletcodec.Encrypt(plaintext, newInfo, kekBuf, p.kekProvider.CurrentID())
		if encErr != nil {
			return encErr
		}
		rec.PasswordVerifier = record.PasswordVerifier
		newRecord = rec
		return nil
	})
	if err != nil {
		return err
	}

	if err := p.store.Replace(newRecord); err != nil {
		return err
	}

	for network, addr := range oldAddresses {
		p.nonces.InvalidateAddress(addr, network)
	}
	return nil
}
