package derivation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defisafe/walletd/internal/secretbuf"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testSeed(t *testing.T) *secretbuf.Buffer {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	return secretbuf.New(seed)
}

func TestGenerateMnemonicValidatesBits(t *testing.T) {
	for _, bits := range []int{128, 160, 192, 224, 256} {
		m, err := GenerateMnemonic(bits)
		require.NoError(t, err)
		require.NotEmpty(t, m)
	}
	_, err := GenerateMnemonic(100)
	require.Error(t, err)
}

func TestSeedFromMnemonicRejectsInvalid(t *testing.T) {
	_, err := SeedFromMnemonic("not a valid mnemonic at all", "")
	require.Error(t, err)
}

func TestSeedFromMnemonicDeterministic(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	seed2, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	require.Equal(t, seed1, seed2)
	require.Len(t, seed1, 64)
}

func TestDeriveAddressDeterministic(t *testing.T) {
	engine := NewEngine()
	for _, network := range []Network{Ethereum, Polygon, BSC, BitcoinLegacy, BitcoinSegwit, BitcoinTaproot} {
		network := network
		t.Run(network.Name, func(t *testing.T) {
			seed1 := testSeed(t)
			defer seed1.Close()
			addr1, err := engine.DeriveAddress(seed1, network)
			require.NoError(t, err)

			seed2 := testSeed(t)
			defer seed2.Close()
			addr2, err := engine.DeriveAddress(seed2, network)
			require.NoError(t, err)

			require.Equal(t, addr1, addr2)
			require.NotEmpty(t, addr1)
		})
	}
}

func TestDeriveAddressFormats(t *testing.T) {
	engine := NewEngine()

	seed := testSeed(t)
	defer seed.Close()
	ethAddr, err := engine.DeriveAddress(seed, Ethereum)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ethAddr, "0x"))
	require.Len(t, ethAddr, 42)
	require.Equal(t, strings.ToLower(ethAddr), ethAddr)

	legacyAddr, err := engine.DeriveAddress(seed, BitcoinLegacy)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(legacyAddr, "1"))

	segwitAddr, err := engine.DeriveAddress(seed, BitcoinSegwit)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(segwitAddr, "bc1q"))

	taprootAddr, err := engine.DeriveAddress(seed, BitcoinTaproot)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(taprootAddr, "bc1p"))
}

func TestDeriveAddressSharedByEVMNetworksDistinctFromBitcoin(t *testing.T) {
	engine := NewEngine()
	seed := testSeed(t)
	defer seed.Close()

	eth, err := engine.DeriveAddress(seed, Ethereum)
	require.NoError(t, err)
	polygon, err := engine.DeriveAddress(seed, Polygon)
	require.NoError(t, err)
	// Ethereum/Polygon/BSC share coin type 60 and the same derivation path,
	// so the derived address is intentionally identical; only the chain
	// submission target differs.
	require.Equal(t, eth, polygon)

	legacy, err := engine.DeriveAddress(seed, BitcoinLegacy)
	require.NoError(t, err)
	require.NotEqual(t, eth, legacy)
}

func TestDeriveSigningKeyReleasesIndependently(t *testing.T) {
	engine := NewEngine()
	seed := testSeed(t)
	defer seed.Close()

	key, err := engine.DeriveSigningKey(seed, Ethereum)
	require.NoError(t, err)
	require.Equal(t, 32, key.Len())
	key.Close()

	// seed must remain usable after the derived key is closed.
	require.Greater(t, seed.Len(), 0)
}

func TestLookupNetworkUnknown(t *testing.T) {
	_, err := LookupNetwork("dogecoin")
	require.Error(t, err)
}

func TestNetworkPaths(t *testing.T) {
	require.Equal(t, "m/44'/60'/0'/0/0", Ethereum.Path())
	require.Equal(t, "m/44'/0'/0'/0/0", BitcoinLegacy.Path())
	require.Equal(t, "m/84'/0'/0'/0/0", BitcoinSegwit.Path())
	require.Equal(t, "m/86'/0'/0'/0/0", BitcoinTaproot.Path())
}
