// Package storetest holds behaviour tests shared by every ISignedTransactionStore backend.
package storetest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Immortal remark(0x010203) from Alith with nonce 5 on a zero genesis hash.
	GoldenExtrinsicHex = "0x810184f24ff3a9cf04c71dbc94d0b566f7a27b94566cac9e13a9fad6facf3502bfa00d13dd0231d0d385ac1f2757ea7d7466f29d78a746197ba35bc3a365bafa1bf362b003b1ea7699eaf1c0552b2e5ca24c3b27526af5000014000000000c010203"
	GoldenHashHex      = "0x1e1a53fc8a8a2072abe22f579a419f70f659f49619ec43b76783a7bacd2bc348"
	AlithAddressHex    = "0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac"
)

// NewStoreFunc returns a fresh, empty store. Cleanup is the caller's responsibility.
type NewStoreFunc func(t *testing.T) persistence.ISignedTransactionStore

// Record builds a synthetic record whose hash is derived from seed.
func Record(signer account.AccountId20, nonce uint32, seed string) *persistence.SignedTransactionRecord {
	return &persistence.SignedTransactionRecord{
		Hash:             hexutil.Encode(crypto.Keccak256([]byte(seed))),
		Chain:            config.ChainName_Moonbeam,
		Signer:           signer,
		Nonce:            nonce,
		EncodedExtrinsic: hexutil.Encode([]byte(seed)),
		CreatedAt:        1700000000,
	}
}

// GoldenRecord records the golden extrinsic.
func GoldenRecord(t *testing.T) *persistence.SignedTransactionRecord {
	t.Helper()
	ext, err := extrinsic.DecodeUncheckedExtrinsicHex(GoldenExtrinsicHex)
	require.NoError(t, err)
	record, err := persistence.NewSignedTransactionRecord(config.ChainName_Moonbeam, ext)
	require.NoError(t, err)
	return record
}

// RunStoreTests exercises the ISignedTransactionStore contract against newStore.
func RunStoreTests(t *testing.T, newStore NewStoreFunc) {
	alith, err := account.ParseAccountId(AlithAddressHex)
	require.NoError(t, err)
	other := account.AccountId20{0x01}

	t.Run("Should save and load the golden extrinsic", func(t *testing.T) {
		store := newStore(t)
		record := GoldenRecord(t)
		assert.Equal(t, GoldenHashHex, record.Hash)
		assert.Equal(t, alith, record.Signer)
		assert.Equal(t, uint32(5), record.Nonce)

		require.NoError(t, store.SaveSignedTransaction(record))

		loaded, err := store.LoadSignedTransaction(GoldenHashHex)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, record, loaded)

		ext, err := loaded.Extrinsic()
		require.NoError(t, err)
		hex, err := ext.Hex()
		require.NoError(t, err)
		assert.Equal(t, GoldenExtrinsicHex, hex)
	})

	t.Run("Should look up hashes case insensitively", func(t *testing.T) {
		store := newStore(t)
		record := GoldenRecord(t)
		require.NoError(t, store.SaveSignedTransaction(record))

		loaded, err := store.LoadSignedTransaction("0x" + strings.ToUpper(GoldenHashHex[2:]))
		require.NoError(t, err)
		assert.NotNil(t, loaded)
	})

	t.Run("Should store hashes in lowercase", func(t *testing.T) {
		store := newStore(t)
		record := GoldenRecord(t)
		record.Hash = "0x" + strings.ToUpper(GoldenHashHex[2:])
		require.NoError(t, store.SaveSignedTransaction(record))
		assert.Equal(t, "0x"+strings.ToUpper(GoldenHashHex[2:]), record.Hash, "caller's record must not be mutated")

		loaded, err := store.LoadSignedTransaction(GoldenHashHex)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, GoldenHashHex, loaded.Hash)

		listed, err := store.ListSignedTransactions(alith)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, GoldenHashHex, listed[0].Hash)
	})

	t.Run("Should return nil for unknown hashes", func(t *testing.T) {
		store := newStore(t)
		loaded, err := store.LoadSignedTransaction(GoldenHashHex)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("Should reject invalid records", func(t *testing.T) {
		store := newStore(t)
		assert.Error(t, store.SaveSignedTransaction(nil))

		badHash := Record(alith, 0, "bad-hash")
		badHash.Hash = "0x1234"
		assert.Error(t, store.SaveSignedTransaction(badHash))

		badExtrinsic := Record(alith, 0, "bad-extrinsic")
		badExtrinsic.EncodedExtrinsic = "not hex"
		assert.Error(t, store.SaveSignedTransaction(badExtrinsic))
	})

	t.Run("Should not alias stored records", func(t *testing.T) {
		store := newStore(t)
		record := Record(alith, 1, "alias")
		require.NoError(t, store.SaveSignedTransaction(record))

		record.Nonce = 99
		loaded, err := store.LoadSignedTransaction(record.Hash)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), loaded.Nonce)

		loaded.Nonce = 42
		again, err := store.LoadSignedTransaction(record.Hash)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), again.Nonce)
	})

	t.Run("Should list a signer's records ordered by nonce", func(t *testing.T) {
		store := newStore(t)
		for _, nonce := range []uint32{3, 1, 2} {
			require.NoError(t, store.SaveSignedTransaction(Record(alith, nonce, fmt.Sprintf("alith-%d", nonce))))
		}
		require.NoError(t, store.SaveSignedTransaction(Record(other, 0, "other-0")))

		records, err := store.ListSignedTransactions(alith)
		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, record := range records {
			assert.Equal(t, uint32(i+1), record.Nonce)
			assert.Equal(t, alith, record.Signer)
		}

		records, err = store.ListSignedTransactions(other)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		records, err = store.ListSignedTransactions(account.AccountId20{0xff})
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Should move a record between signers on overwrite", func(t *testing.T) {
		store := newStore(t)
		record := Record(alith, 7, "moved")
		require.NoError(t, store.SaveSignedTransaction(record))

		moved := record.Copy()
		moved.Signer = other
		require.NoError(t, store.SaveSignedTransaction(moved))

		records, err := store.ListSignedTransactions(alith)
		require.NoError(t, err)
		assert.Empty(t, records)

		records, err = store.ListSignedTransactions(other)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, record.Hash, records[0].Hash)
	})

	t.Run("Should delete idempotently", func(t *testing.T) {
		store := newStore(t)
		record := Record(alith, 1, "delete")
		require.NoError(t, store.SaveSignedTransaction(record))

		require.NoError(t, store.DeleteSignedTransaction(record.Hash))
		require.NoError(t, store.DeleteSignedTransaction(record.Hash))

		loaded, err := store.LoadSignedTransaction(record.Hash)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		records, err := store.ListSignedTransactions(alith)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Should be safe for concurrent use", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				record := Record(alith, uint32(i), fmt.Sprintf("concurrent-%d", i))
				assert.NoError(t, store.SaveSignedTransaction(record))
				_, err := store.LoadSignedTransaction(record.Hash)
				assert.NoError(t, err)
				_, err = store.ListSignedTransactions(alith)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		records, err := store.ListSignedTransactions(alith)
		require.NoError(t, err)
		assert.Len(t, records, 10)
	})

	t.Run("Should refuse operations after close", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.HealthCheck(), persistence.ErrClosed)
		assert.ErrorIs(t, store.SaveSignedTransaction(Record(alith, 0, "closed")), persistence.ErrClosed)
		_, err := store.LoadSignedTransaction(GoldenHashHex)
		assert.ErrorIs(t, err, persistence.ErrClosed)
		_, err = store.ListSignedTransactions(alith)
		assert.ErrorIs(t, err, persistence.ErrClosed)
		assert.ErrorIs(t, store.DeleteSignedTransaction(GoldenHashHex), persistence.ErrClosed)
	})
}
