package storageKey

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alithHex = "0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac"

func Test_Hashers(t *testing.T) {
	alith := hexutil.MustDecode(alithHex)

	cases := []struct {
		hasher   Hasher
		data     []byte
		expected string
	}{
		{Identity, alith, alithHex},
		{Twox64Concat, alith, "0x4a6bb7c01d316509f24ff3a9cf04c71dbc94d0b566f7a27b94566cac"},
		{Twox64Concat, nil, "0x99e9d85137db46ef"},
		{Twox128, []byte("System"), "0x26aa394eea5630e07c48ae0c9558cef7"},
		{Twox128, []byte("Account"), "0xb99d880ec681799c0cf30e8886371da9"},
		{Twox256, []byte("System"), "0x26aa394eea5630e07c48ae0c9558cef714355510e01e85b83bb4d561945dad84"},
		{Blake2_128, alith, "0x9dfefc73f89d24437a9c2dce5572808a"},
		{Blake2_128Concat, alith, "0x9dfefc73f89d24437a9c2dce5572808af24ff3a9cf04c71dbc94d0b566f7a27b94566cac"},
		{Blake2_256, alith, "0x862592040f1e6a9945eb914c5105741a5149668f05130b8af164b98a6651d769"},
	}
	for _, c := range cases {
		t.Run(c.hasher.String(), func(t *testing.T) {
			hashed, err := c.hasher.Hash(c.data)
			require.NoError(t, err)
			assert.Equal(t, c.expected, hexutil.Encode(hashed))
		})
	}

	t.Run("Should reject unknown hashers", func(t *testing.T) {
		_, err := Hasher(42).Hash(alith)
		assert.Error(t, err)
		assert.Equal(t, "Hasher(42)", Hasher(42).String())
	})

	t.Run("Should parse hasher names", func(t *testing.T) {
		h, err := ParseHasher("Blake2_128Concat")
		require.NoError(t, err)
		assert.Equal(t, Blake2_128Concat, h)

		_, err = ParseHasher("Sha256")
		assert.Error(t, err)
	})
}

func Test_StorageKeys(t *testing.T) {
	t.Run("Should derive storage value keys", func(t *testing.T) {
		assert.Equal(t, "0xf0c365c3cf59d671eb72da0e7a4113c49f1f0515f462cdcf84e0f1d6045dfcbb", StorageValueKey("Timestamp", "Now").String())
	})

	t.Run("Should derive the System.Account key of an account", func(t *testing.T) {
		alith, err := account.ParseAccountId(alithHex)
		require.NoError(t, err)

		key := AccountInfoKey(alith)
		assert.Equal(t, "0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da99dfefc73f89d24437a9c2dce5572808af24ff3a9cf04c71dbc94d0b566f7a27b94566cac", key.String())
		assert.Len(t, key, 16+16+16+20)

		manual, err := StorageMapFinalKey("System", "Account", Blake2_128Concat, alith.Bytes())
		require.NoError(t, err)
		assert.Equal(t, key, manual)
	})

	t.Run("Should give distinct accounts distinct keys", func(t *testing.T) {
		a := AccountInfoKey(account.AccountId20{0x01})
		b := AccountInfoKey(account.AccountId20{0x02})
		assert.NotEqual(t, a, b)
		assert.Equal(t, a[:32], b[:32])
	})
}
