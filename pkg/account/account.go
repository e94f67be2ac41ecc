package account

import (
	"bytes"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	AccountIdLength             = 20
	GenericAccountIdLength      = 32
	CompressedPublicKeyLength   = 33
	UncompressedPublicKeyLength = 64
)

// ErrInvalidAddressFormat is returned when a textual or raw address cannot be parsed
// into an AccountId20.
var ErrInvalidAddressFormat = errors.New("invalid address format")

// CompressedPublicKey is a SEC1 compressed secp256k1 public key (0x02/0x03 prefix + X).
type CompressedPublicKey [CompressedPublicKeyLength]byte

func (c CompressedPublicKey) String() string {
	return hexutil.Encode(c[:])
}

// AccountId20 is an Ethereum style account identifier: the low 20 bytes of
// keccak256(X || Y) of the account's secp256k1 public key.
type AccountId20 [AccountIdLength]byte

// FromPublicKey derives the account of a compressed public key.
// The key must be a valid curve point; an invalid key is a programming error and panics.
func FromPublicKey(pub CompressedPublicKey) AccountId20 {
	id, err := TryFromPublicKey(pub)
	if err != nil {
		panic(fmt.Sprintf("wrong compressed public key provided: %v", err))
	}
	return id
}

// TryFromPublicKey is FromPublicKey for keys that did not come from a trusted source.
func TryFromPublicKey(pub CompressedPublicKey) (AccountId20, error) {
	key, err := crypto.DecompressPubkey(pub[:])
	if err != nil {
		return AccountId20{}, errors.Wrapf(err, "failed to decompress public key %s", pub)
	}
	return FromUncompressedPublicKey(crypto.FromECDSAPub(key))
}

// FromUncompressedPublicKey hashes an uncompressed public key into an account.
// Both the 65 byte SEC1 form (0x04 prefix) and the raw 64 byte X || Y form are accepted.
//
// Address derivation and signature verification must both go through this function.
func FromUncompressedPublicKey(pub []byte) (AccountId20, error) {
	switch len(pub) {
	case UncompressedPublicKeyLength + 1:
		if pub[0] != 0x04 {
			return AccountId20{}, fmt.Errorf("unexpected uncompressed public key prefix 0x%02x", pub[0])
		}
		pub = pub[1:]
	case UncompressedPublicKeyLength:
	default:
		return AccountId20{}, fmt.Errorf("unexpected uncompressed public key length: %d", len(pub))
	}

	var id AccountId20
	copy(id[:], crypto.Keccak256(pub)[12:])
	return id, nil
}

// FromGenericAccountLossy keeps the first 20 bytes of a 32 byte Substrate account id.
//
// The conversion is one way and loses information. It exists only to map native
// 32 byte accounts onto 20 byte ones and must never be used to compare identities
// across the two account systems.
func FromGenericAccountLossy(generic [GenericAccountIdLength]byte) AccountId20 {
	var id AccountId20
	copy(id[:], generic[:AccountIdLength])
	return id
}

func FromRaw(raw [AccountIdLength]byte) AccountId20 {
	return AccountId20(raw)
}

// FromBytes copies exactly 20 bytes into an account.
func FromBytes(b []byte) (AccountId20, error) {
	if len(b) != AccountIdLength {
		return AccountId20{}, errors.Wrapf(ErrInvalidAddressFormat, "expected %d bytes, got %d", AccountIdLength, len(b))
	}
	var id AccountId20
	copy(id[:], b)
	return id, nil
}

// ParseAccountId parses a 40 character hex address, with or without the 0x prefix.
func ParseAccountId(s string) (AccountId20, error) {
	if !common.IsHexAddress(s) {
		return AccountId20{}, errors.Wrapf(ErrInvalidAddressFormat, "%q is not a 20 byte hex address", s)
	}
	return AccountId20(common.HexToAddress(s)), nil
}

func (id AccountId20) Raw() [AccountIdLength]byte {
	return id
}

func (id AccountId20) Bytes() []byte {
	b := make([]byte, AccountIdLength)
	copy(b, id[:])
	return b
}

// String renders the lowercase 0x prefixed form.
func (id AccountId20) String() string {
	return hexutil.Encode(id[:])
}

// ChecksumHex renders the EIP-55 mixed case form.
func (id AccountId20) ChecksumHex() string {
	return common.Address(id).Hex()
}

func (id AccountId20) Address() common.Address {
	return common.Address(id)
}

func (id AccountId20) IsZero() bool {
	return id == AccountId20{}
}

func (id AccountId20) Compare(other AccountId20) int {
	return bytes.Compare(id[:], other[:])
}

func (id AccountId20) Less(other AccountId20) bool {
	return id.Compare(other) < 0
}

func (id AccountId20) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountId20) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Encode writes the 20 raw bytes, as the runtime encodes AccountId20.
func (id AccountId20) Encode(encoder scale.Encoder) error {
	return encoder.Write(id[:])
}
