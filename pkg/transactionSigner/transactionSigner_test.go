package transactionSigner

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair/inMemoryKeyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/logger"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const (
	alithPrivateKeyHex = "5fb92d6e98884f76de468fa3f6278f8807c48bebc13595d45af5bdc4da702133"
	alithAddressHex    = "0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac"
	remarkCallHex      = "0x00000c010203"
	goldenExtrinsicHex = "0x810184f24ff3a9cf04c71dbc94d0b566f7a27b94566cac9e13a9fad6facf3502bfa00d13dd0231d0d385ac1f2757ea7d7466f29d78a746197ba35bc3a365bafa1bf362b003b1ea7699eaf1c0552b2e5ca24c3b27526af5000014000000000c010203"
	goldenHashHex      = "0x1e1a53fc8a8a2072abe22f579a419f70f659f49619ec43b76783a7bacd2bc348"
)

type failingKeyPair struct {
	*inMemoryKeyPair.InMemoryKeyPair
	err error
}

func (f failingKeyPair) SignPrehashed(ctx context.Context, digest [32]byte) (signature.EthereumSignature, error) {
	return signature.EthereumSignature{}, f.err
}

func setup(t *testing.T) (*TransactionSigner, *inMemoryKeyPair.InMemoryKeyPair) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: true})
	require.NoError(t, err)

	kp, err := inMemoryKeyPair.NewInMemoryKeyPairFromHex(alithPrivateKeyHex, l)
	require.NoError(t, err)
	return NewTransactionSigner(l), kp
}

func goldenParam(kp *inMemoryKeyPair.InMemoryKeyPair) SignParam {
	return SignParam{
		SpecVersion:        3700,
		TransactionVersion: 3,
		Signer:             kp,
	}
}

func remark() extrinsic.EncodedCall {
	return extrinsic.EncodedCall(hexutil.MustDecode(remarkCallHex))
}

func Test_SignTransaction(t *testing.T) {
	ts, kp := setup(t)
	ctx := context.Background()

	t.Run("Should produce the golden extrinsic", func(t *testing.T) {
		signed, err := ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 5))
		require.NoError(t, err)

		encoded, err := signed.Hex()
		require.NoError(t, err)
		assert.Equal(t, goldenExtrinsicHex, encoded)

		hash, err := signed.Hash()
		require.NoError(t, err)
		assert.Equal(t, goldenHashHex, hexutil.Encode(hash[:]))

		assert.Equal(t, alithAddressHex, signed.Signer.String())
		assert.Equal(t, uint32(5), signed.Extension.Nonce)
		assert.True(t, signed.Extension.Era.IsImmortal())
	})

	t.Run("Should match the package level signer", func(t *testing.T) {
		a, err := ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 5))
		require.NoError(t, err)
		b, err := SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 5))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Should verify what it signs", func(t *testing.T) {
		param := goldenParam(kp)
		anchor := crypto.Keccak256Hash([]byte("block 1000"))
		unsigned := NewUnsignedTransaction(remark(), 7).
			WithTip(big.NewInt(1_000_000)).
			WithEra(extension.Mortal(1000, anchor, 64))

		signed, err := ts.SignTransaction(ctx, param, unsigned)
		require.NoError(t, err)
		assert.True(t, ts.VerifyExtrinsic(signed, ImplicitFor(param, unsigned.Era)))
		assert.True(t, VerifyExtrinsic(signed, ImplicitFor(param, unsigned.Era)))

		t.Run("and reject a different anchor block", func(t *testing.T) {
			assert.False(t, ts.VerifyExtrinsic(signed, ImplicitFor(param, extension.Immortal())))
		})

		t.Run("and reject another runtime version", func(t *testing.T) {
			other := param
			other.SpecVersion++
			assert.False(t, ts.VerifyExtrinsic(signed, ImplicitFor(other, unsigned.Era)))
		})

		t.Run("and reject a modified nonce", func(t *testing.T) {
			tampered := *signed
			tampered.Extension.Nonce++
			assert.False(t, ts.VerifyExtrinsic(&tampered, ImplicitFor(param, unsigned.Era)))
		})

		t.Run("and survive an encode decode round trip", func(t *testing.T) {
			encoded, err := signed.Bytes()
			require.NoError(t, err)
			decoded, err := extrinsic.DecodeUncheckedExtrinsic(encoded)
			require.NoError(t, err)
			assert.True(t, ts.VerifyExtrinsic(decoded, ImplicitFor(param, unsigned.Era)))
		})
	})

	t.Run("Should hash long payloads with blake2b before keccak", func(t *testing.T) {
		call := extrinsic.EncodedCall(bytes.Repeat([]byte{0x42}, 300))
		param := goldenParam(kp)
		unsigned := NewUnsignedTransaction(call, 1)

		signed, err := ts.SignTransaction(ctx, param, unsigned)
		require.NoError(t, err)

		var payload bytes.Buffer
		encoder := scale.NewEncoder(&payload)
		require.NoError(t, encoder.Write(call))
		require.NoError(t, signed.Extension.Encode(*encoder))
		require.NoError(t, ImplicitFor(param, unsigned.Era).Encode(*encoder))
		require.Greater(t, payload.Len(), 256)

		hashed := blake2b.Sum256(payload.Bytes())
		digest := crypto.Keccak256Hash(hashed[:])

		recovered, err := signature.RecoverAccountFromDigest(digest, signed.Signature)
		require.NoError(t, err)
		assert.Equal(t, signed.Signer, recovered)
		assert.True(t, ts.VerifyExtrinsic(signed, ImplicitFor(param, unsigned.Era)))
	})

	t.Run("Should sign concurrently with identical results", func(t *testing.T) {
		expected, err := ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 5))
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]*extrinsic.UncheckedExtrinsic, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 5))
			}(i)
		}
		wg.Wait()
		for _, r := range results {
			assert.Equal(t, expected, r)
		}
	})
}

func Test_SignTransaction_Errors(t *testing.T) {
	ts, kp := setup(t)
	ctx := context.Background()

	t.Run("Should report encoding failures as SigningError", func(t *testing.T) {
		tooLarge := new(big.Int).Lsh(big.NewInt(1), 128)
		_, err := ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(remark(), 0).WithTip(tooLarge))

		var signingErr *SigningError
		require.ErrorAs(t, err, &signingErr)
		assert.Equal(t, StageEncode, signingErr.Stage)
	})

	t.Run("Should report key pair failures as SigningError", func(t *testing.T) {
		cause := errors.New("hsm unavailable")
		param := goldenParam(kp)
		param.Signer = failingKeyPair{InMemoryKeyPair: kp, err: cause}

		_, err := ts.SignTransaction(ctx, param, NewUnsignedTransaction(remark(), 0))
		var signingErr *SigningError
		require.ErrorAs(t, err, &signingErr)
		assert.Equal(t, StageKeyPair, signingErr.Stage)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Should reject incomplete parameters", func(t *testing.T) {
		_, err := ts.SignTransaction(ctx, SignParam{}, NewUnsignedTransaction(remark(), 0))
		assert.Error(t, err)

		_, err = ts.SignTransaction(ctx, goldenParam(kp), NewUnsignedTransaction(nil, 0))
		assert.Error(t, err)

		param := goldenParam(kp)
		param.MetadataHashMode = extension.MetadataHashModeEnabled
		_, err = ts.SignTransaction(ctx, param, NewUnsignedTransaction(remark(), 0))
		assert.Error(t, err)
	})

	t.Run("Should not verify malformed extrinsics", func(t *testing.T) {
		assert.False(t, ts.VerifyExtrinsic(nil, extension.Implicit{}))
		assert.False(t, ts.VerifyExtrinsic(&extrinsic.UncheckedExtrinsic{Signer: account.AccountId20{1}}, extension.Implicit{}))
	})
}
