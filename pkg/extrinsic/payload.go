package extrinsic

import (
	"bytes"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// maxUnhashedPayloadLength is the largest payload that is signed as is. Longer payloads are
// replaced by their blake2b-256 hash before signing.
const maxUnhashedPayloadLength = 256

// SignedPayload is the data covered by an extrinsic signature: the call followed by the
// explicit and then the implicit extension values.
type SignedPayload struct {
	Call      Call
	Extension extension.TransactionExtension
	Implicit  extension.Implicit
}

func NewSignedPayload(call Call, ext extension.TransactionExtension, implicit extension.Implicit) SignedPayload {
	return SignedPayload{
		Call:      call,
		Extension: ext,
		Implicit:  implicit,
	}
}

func (p SignedPayload) Encode(encoder scale.Encoder) error {
	if p.Call == nil {
		return errors.New("signed payload has no call")
	}
	if err := p.Call.Encode(encoder); err != nil {
		return errors.Wrap(err, "failed to encode call")
	}
	if err := p.Extension.Encode(encoder); err != nil {
		return errors.Wrap(err, "failed to encode transaction extension")
	}
	if err := p.Implicit.Encode(encoder); err != nil {
		return errors.Wrap(err, "failed to encode implicit extension values")
	}
	return nil
}

// SigningBytes returns the bytes the signer commits to.
func (p SignedPayload) SigningBytes() ([]byte, error) {
	return UsingEncoded(p, func(b []byte) []byte {
		return bytes.Clone(b)
	})
}

// Digest is the keccak256 hash of SigningBytes, the value handed to a prehashed signer.
func (p SignedPayload) Digest() ([32]byte, error) {
	return UsingEncoded(p, func(b []byte) [32]byte {
		return crypto.Keccak256Hash(b)
	})
}

// Deconstruct drops the implicit values, which never go on the wire.
func (p SignedPayload) Deconstruct() (Call, extension.TransactionExtension) {
	return p.Call, p.Extension
}

// UsingEncoded encodes the payload and calls fn with it, substituting the blake2b-256
// hash when the encoding is longer than 256 bytes.
func UsingEncoded[T any](p SignedPayload, fn func([]byte) T) (T, error) {
	var zero T
	encoded, err := encodeToBytes(p)
	if err != nil {
		return zero, err
	}
	if len(encoded) > maxUnhashedPayloadLength {
		hash := blake2b.Sum256(encoded)
		return fn(hash[:]), nil
	}
	return fn(encoded), nil
}

func encodeToBytes(value interface{ Encode(scale.Encoder) error }) ([]byte, error) {
	var buf bytes.Buffer
	if err := value.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bigFromInt(v int) *big.Int {
	return new(big.Int).SetInt64(int64(v))
}
