package extrinsic

import (
	"bytes"
	"fmt"
	"io"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	ExtrinsicFormatVersion = 4
	signedBit              = 0x80

	// SignedExtrinsicVersion is the leading byte of every signed v4 extrinsic.
	SignedExtrinsicVersion = signedBit | ExtrinsicFormatVersion
)

// UncheckedExtrinsic is a signed extrinsic as submitted to the chain. The address is the
// bare 20 byte account, the signature a 65 byte recoverable ECDSA signature.
type UncheckedExtrinsic struct {
	Call      Call
	Signer    account.AccountId20
	Signature signature.EthereumSignature
	Extension extension.TransactionExtension
}

func NewUncheckedExtrinsic(
	call Call,
	signer account.AccountId20,
	sig signature.EthereumSignature,
	ext extension.TransactionExtension,
) *UncheckedExtrinsic {
	return &UncheckedExtrinsic{
		Call:      call,
		Signer:    signer,
		Signature: sig,
		Extension: ext,
	}
}

// Encode writes Compact(len) || 0x84 || signer || signature || extension || call.
func (u UncheckedExtrinsic) Encode(encoder scale.Encoder) error {
	body, err := u.encodeBody()
	if err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*bigFromInt(len(body))); err != nil {
		return err
	}
	return encoder.Write(body)
}

func (u UncheckedExtrinsic) encodeBody() ([]byte, error) {
	if u.Call == nil {
		return nil, errors.New("extrinsic has no call")
	}

	var buf bytes.Buffer
	encoder := scale.NewEncoder(&buf)
	if err := encoder.PushByte(SignedExtrinsicVersion); err != nil {
		return nil, err
	}
	if err := u.Signer.Encode(*encoder); err != nil {
		return nil, errors.Wrap(err, "failed to encode signer")
	}
	if err := u.Signature.Encode(*encoder); err != nil {
		return nil, errors.Wrap(err, "failed to encode signature")
	}
	if err := u.Extension.Encode(*encoder); err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction extension")
	}
	if err := u.Call.Encode(*encoder); err != nil {
		return nil, errors.Wrap(err, "failed to encode call")
	}
	return buf.Bytes(), nil
}

func (u UncheckedExtrinsic) Bytes() ([]byte, error) {
	return encodeToBytes(u)
}

func (u UncheckedExtrinsic) Hex() (string, error) {
	b, err := u.Bytes()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

// Hash is the blake2b-256 hash of the full encoding, the hash the chain reports for the
// transaction.
func (u UncheckedExtrinsic) Hash() ([32]byte, error) {
	b, err := u.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(b), nil
}

// Decode reads a length prefixed signed extrinsic. The call is kept as an EncodedCall.
func (u *UncheckedExtrinsic) Decode(decoder scale.Decoder) error {
	length, err := decoder.DecodeUintCompact()
	if err != nil {
		return errors.Wrap(err, "failed to decode extrinsic length")
	}
	if !length.IsUint64() || length.Uint64() > uint64(maxExtrinsicLength) {
		return fmt.Errorf("extrinsic length %s is too large", length)
	}

	body := make([]byte, length.Uint64())
	if len(body) > 0 {
		if err := decoder.Read(body); err != nil {
			return errors.Wrap(err, "failed to read extrinsic body")
		}
	}
	return u.decodeBody(body)
}

// maxExtrinsicLength bounds the allocation made for a declared length.
const maxExtrinsicLength = 16 << 20

func (u *UncheckedExtrinsic) decodeBody(body []byte) error {
	reader := bytes.NewReader(body)
	decoder := scale.NewDecoder(reader)

	version, err := decoder.ReadOneByte()
	if err != nil {
		return errors.Wrap(err, "failed to decode extrinsic version")
	}
	if version&signedBit == 0 {
		return errors.New("unsigned extrinsics are not supported")
	}
	if version&^signedBit != ExtrinsicFormatVersion {
		return fmt.Errorf("unsupported extrinsic format version %d", version&^signedBit)
	}

	var decoded UncheckedExtrinsic
	if err := decoder.Decode(&decoded.Signer); err != nil {
		return errors.Wrap(err, "failed to decode signer")
	}
	if err := decoder.Decode(&decoded.Signature); err != nil {
		return errors.Wrap(err, "failed to decode signature")
	}
	if err := decoded.Extension.Decode(*decoder); err != nil {
		return errors.Wrap(err, "failed to decode transaction extension")
	}

	call, err := io.ReadAll(reader)
	if err != nil {
		return errors.Wrap(err, "failed to read call")
	}
	if len(call) == 0 {
		return errors.New("extrinsic has no call")
	}
	decoded.Call = EncodedCall(call)

	*u = decoded
	return nil
}

// DecodeUncheckedExtrinsic decodes a full extrinsic and rejects trailing bytes.
func DecodeUncheckedExtrinsic(b []byte) (*UncheckedExtrinsic, error) {
	reader := bytes.NewReader(b)
	var u UncheckedExtrinsic
	if err := u.Decode(*scale.NewDecoder(reader)); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after extrinsic", reader.Len())
	}
	return &u, nil
}

// DecodeUncheckedExtrinsicHex is DecodeUncheckedExtrinsic for 0x prefixed hex.
func DecodeUncheckedExtrinsicHex(s string) (*UncheckedExtrinsic, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid extrinsic hex")
	}
	return DecodeUncheckedExtrinsic(b)
}
