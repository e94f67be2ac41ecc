package signature

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"go.uber.org/zap"
)

const SignatureLength = 65

// secp256k1 group order
var secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// EthereumSignature is a recoverable secp256k1 signature laid out as r || s || v.
// It carries no public key; the signer is recovered from the signed message.
type EthereumSignature [SignatureLength]byte

func FromBytes(b []byte) (EthereumSignature, error) {
	if len(b) != SignatureLength {
		return EthereumSignature{}, fmt.Errorf("invalid signature length: got %d, want %d", len(b), SignatureLength)
	}
	var sig EthereumSignature
	copy(sig[:], b)
	return sig, nil
}

// FromMultiSignature narrows a MultiSignature to the ECDSA variant. Passing an Ed25519
// or Sr25519 signature is a caller bug and panics.
func FromMultiSignature(sig types.MultiSignature) EthereumSignature {
	switch {
	case sig.IsEd25519:
		panic("Ed25519 not supported for EthereumSignature")
	case sig.IsSr25519:
		panic("Sr25519 not supported for EthereumSignature")
	case sig.IsEcdsa:
		return EthereumSignature(sig.AsEcdsa)
	default:
		panic("empty MultiSignature")
	}
}

func (s EthereumSignature) R() []byte { return s[0:32] }

func (s EthereumSignature) S() []byte { return s[32:64] }

func (s EthereumSignature) V() byte { return s[64] }

func (s EthereumSignature) Bytes() []byte {
	b := make([]byte, SignatureLength)
	copy(b, s[:])
	return b
}

func (s EthereumSignature) String() string {
	return hexutil.Encode(s[:])
}

func (s EthereumSignature) Encode(encoder scale.Encoder) error {
	return encoder.Write(s[:])
}

// Verify reports whether the signature over keccak256(msg) recovers to signer.
func (s EthereumSignature) Verify(msg []byte, signer account.AccountId20) bool {
	return defaultVerifier.Verify(msg, signer, s)
}

// RecoverAccount returns the account whose key produced the signature over keccak256(msg).
func (s EthereumSignature) RecoverAccount(msg []byte) (account.AccountId20, error) {
	return RecoverAccountFromDigest(crypto.Keccak256Hash(msg), s)
}

// RecoverAccountFromDigest recovers the signing account from a pre-hashed 32 byte digest.
// Failures are classified as ErrBadRS, ErrBadV or ErrBadSignature.
func RecoverAccountFromDigest(digest [32]byte, s EthereumSignature) (account.AccountId20, error) {
	v := s.V()
	if v >= 27 {
		v -= 27
	}
	if v > 3 {
		return account.AccountId20{}, ErrBadV
	}

	r := new(big.Int).SetBytes(s.R())
	ss := new(big.Int).SetBytes(s.S())
	if r.Sign() == 0 || ss.Sign() == 0 || r.Cmp(secp256k1N) >= 0 || ss.Cmp(secp256k1N) >= 0 {
		return account.AccountId20{}, ErrBadRS
	}

	normalized := s
	normalized[64] = v
	pub, err := crypto.Ecrecover(digest[:], normalized[:])
	if err != nil {
		return account.AccountId20{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	id, err := account.FromUncompressedPublicKey(pub)
	if err != nil {
		return account.AccountId20{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return id, nil
}

var defaultVerifier = NewVerifier(zap.NewNop())
