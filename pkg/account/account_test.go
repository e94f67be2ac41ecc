package account

import (
	"bytes"
	"encoding/json"
	"sort"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// secp256k1 generator, i.e. the public key of private key 1
	generatorCompressedHex = "0x0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorAddressHex    = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"

	alithPrivateKeyHex = "5fb92d6e98884f76de468fa3f6278f8807c48bebc13595d45af5bdc4da702133"
	alithCompressedHex = "0x02509540919faacf9ab52146c9aa40db68172d83777250b28e4679176e49ccdd9f"
	alithAddressHex    = "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac"
)

func mustCompressed(t testing.TB, s string) CompressedPublicKey {
	t.Helper()
	b, err := hexutil.Decode(s)
	require.NoError(t, err)
	require.Len(t, b, CompressedPublicKeyLength)
	var pub CompressedPublicKey
	copy(pub[:], b)
	return pub
}

func Test_FromPublicKey(t *testing.T) {
	t.Run("Should derive known addresses", func(t *testing.T) {
		assert.Equal(t, generatorAddressHex, FromPublicKey(mustCompressed(t, generatorCompressedHex)).ChecksumHex())
		assert.Equal(t, alithAddressHex, FromPublicKey(mustCompressed(t, alithCompressedHex)).ChecksumHex())
	})

	t.Run("Should be deterministic and match keccak of the uncompressed key", func(t *testing.T) {
		pub := mustCompressed(t, alithCompressedHex)
		first := FromPublicKey(pub)
		for i := 0; i < 10; i++ {
			require.Equal(t, first, FromPublicKey(pub))
		}

		key, err := crypto.DecompressPubkey(pub[:])
		require.NoError(t, err)
		uncompressed := crypto.FromECDSAPub(key)
		expected := crypto.Keccak256(uncompressed[1:])[12:32]
		assert.Equal(t, expected, first.Bytes())
	})

	t.Run("Should agree with go-ethereum address derivation for random keys", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			priv, err := crypto.GenerateKey()
			require.NoError(t, err)

			var pub CompressedPublicKey
			copy(pub[:], crypto.CompressPubkey(&priv.PublicKey))
			assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), FromPublicKey(pub).Address())
		}
	})

	t.Run("Should panic on an invalid point", func(t *testing.T) {
		var bad CompressedPublicKey
		bad[0] = 0x05
		assert.Panics(t, func() { FromPublicKey(bad) })

		_, err := TryFromPublicKey(bad)
		assert.Error(t, err)
	})
}

func Test_FromUncompressedPublicKey(t *testing.T) {
	priv, err := crypto.HexToECDSA(alithPrivateKeyHex)
	require.NoError(t, err)
	uncompressed := crypto.FromECDSAPub(&priv.PublicKey)

	withPrefix, err := FromUncompressedPublicKey(uncompressed)
	require.NoError(t, err)
	withoutPrefix, err := FromUncompressedPublicKey(uncompressed[1:])
	require.NoError(t, err)

	assert.Equal(t, withPrefix, withoutPrefix)
	assert.Equal(t, alithAddressHex, withPrefix.ChecksumHex())

	_, err = FromUncompressedPublicKey(uncompressed[:40])
	assert.Error(t, err)

	bad := append([]byte{0x02}, uncompressed[1:]...)
	_, err = FromUncompressedPublicKey(bad)
	assert.Error(t, err)
}

func Test_FromGenericAccountLossy(t *testing.T) {
	var generic [GenericAccountIdLength]byte
	for i := range generic {
		generic[i] = byte(i + 1)
	}

	id := FromGenericAccountLossy(generic)
	assert.Equal(t, generic[:AccountIdLength], id.Bytes())

	// only the first 20 bytes survive, so accounts differing in the tail collide
	other := generic
	other[31] = 0xff
	assert.Equal(t, id, FromGenericAccountLossy(other))
}

func Test_RawBytesRoundTrip(t *testing.T) {
	raw := [AccountIdLength]byte{0xde, 0xad, 0xbe, 0xef}
	id := FromRaw(raw)
	assert.Equal(t, raw, id.Raw())

	fromBytes, err := FromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, fromBytes)

	_, err = FromBytes(make([]byte, 19))
	assert.ErrorIs(t, err, ErrInvalidAddressFormat)
}

func Test_ParseAccountId(t *testing.T) {
	t.Run("Should round trip the formatted address", func(t *testing.T) {
		id := FromPublicKey(mustCompressed(t, alithCompressedHex))
		assert.Equal(t, "0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac", id.String())

		parsed, err := ParseAccountId(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		parsed, err = ParseAccountId(id.ChecksumHex())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		parsed, err = ParseAccountId("f24ff3a9cf04c71dbc94d0b566f7a27b94566cac")
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("Should reject malformed input", func(t *testing.T) {
		for _, input := range []string{
			"not-hex",
			"",
			"0x",
			"0xf24ff3a9cf04c71dbc94d0b566f7a27b94566c",
			"0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac00",
			"0xz24ff3a9cf04c71dbc94d0b566f7a27b94566cac",
			" 0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac",
			"0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac\n",
		} {
			_, err := ParseAccountId(input)
			assert.ErrorIs(t, err, ErrInvalidAddressFormat, "input %q", input)
		}
	})
}

func Test_Ordering(t *testing.T) {
	a := AccountId20{0x01}
	b := AccountId20{0x01, 0x01}
	c := AccountId20{0x02}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.Equal(t, 0, b.Compare(b))
	assert.Equal(t, 1, c.Compare(a))

	ids := []AccountId20{c, a, b}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	assert.Equal(t, []AccountId20{a, b, c}, ids)

	seen := map[AccountId20]bool{a: true}
	assert.True(t, seen[AccountId20{0x01}])
}

func Test_Encoding(t *testing.T) {
	id := FromPublicKey(mustCompressed(t, alithCompressedHex))

	t.Run("Should SCALE encode as 20 raw bytes", func(t *testing.T) {
		encoded, err := codec.Encode(id)
		require.NoError(t, err)
		assert.Equal(t, id.Bytes(), encoded)

		var decoded AccountId20
		require.NoError(t, codec.Decode(encoded, &decoded))
		assert.Equal(t, id, decoded)
	})

	t.Run("Should SCALE decode when embedded in a struct", func(t *testing.T) {
		type transfer struct {
			From   AccountId20
			To     AccountId20
			Amount uint32
		}
		original := transfer{From: id, To: AccountId20{0x01}, Amount: 7}

		encoded, err := codec.Encode(original)
		require.NoError(t, err)
		require.Len(t, encoded, 2*AccountIdLength+4)

		var decoded transfer
		require.NoError(t, codec.Decode(encoded, &decoded))
		assert.Equal(t, original, decoded)

		assert.Error(t, codec.Decode(encoded[:AccountIdLength-1], &decoded))
	})

	t.Run("Should JSON encode as a hex string", func(t *testing.T) {
		data, err := json.Marshal(map[string]AccountId20{"who": id})
		require.NoError(t, err)
		assert.Equal(t, `{"who":"0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac"}`, string(data))

		var decoded map[string]AccountId20
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, id, decoded["who"])

		assert.Error(t, json.Unmarshal([]byte(`{"who":"nope"}`), &decoded))
	})
}

func Test_EthereumSigner(t *testing.T) {
	pub := mustCompressed(t, alithCompressedHex)
	signer := SignerFromPublicKey(pub)
	assert.Equal(t, FromPublicKey(pub), signer.IntoAccount())
	assert.Equal(t, "ethereum signature: 0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac", signer.String())

	priv, err := crypto.HexToECDSA(alithPrivateKeyHex)
	require.NoError(t, err)
	recovered, err := SignerFromUncompressedPublicKey(crypto.FromECDSAPub(&priv.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)

	assert.Equal(t, signer, SignerFromAddress(signer.IntoAccount().Raw()))
}

func FuzzParseAccountId(f *testing.F) {
	f.Add([]byte{0x01, 0x02, 0x03})
	f.Add(bytes.Repeat([]byte{0xff}, AccountIdLength))

	f.Fuzz(func(t *testing.T, data []byte) {
		var id AccountId20
		copy(id[:], data)

		parsed, err := ParseAccountId(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)

		parsed, err = ParseAccountId(id.ChecksumHex())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})
}
