package transactionSigner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extension"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
	"go.uber.org/zap"
)

// ITransactionSigner turns unsigned transactions into signed extrinsics ready for submission.
type ITransactionSigner interface {
	// SignTransaction builds the signed payload, signs its keccak256 digest with the
	// signer from param and assembles the extrinsic.
	SignTransaction(ctx context.Context, param SignParam, unsigned UnsignedTransaction) (*extrinsic.UncheckedExtrinsic, error)

	// VerifyExtrinsic re-derives the signed payload of ext from implicit and checks the
	// signature against the extrinsic's signer.
	VerifyExtrinsic(ext *extrinsic.UncheckedExtrinsic, implicit extension.Implicit) bool
}

// SignParam holds the chain-wide values every signature commits to, and the key to sign with.
type SignParam struct {
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        [32]byte
	Signer             keyPair.IKeyPair

	// MetadataHashMode defaults to Disabled. Enabled requires MetadataHash.
	MetadataHashMode extension.MetadataHashMode
	MetadataHash     *[32]byte
}

type UnsignedTransaction struct {
	Call  extrinsic.Call
	Nonce uint32
	Tip   *big.Int
	Era   extension.TransactionEra
}

// NewUnsignedTransaction returns an immortal transaction without a tip.
func NewUnsignedTransaction(call extrinsic.Call, nonce uint32) UnsignedTransaction {
	return UnsignedTransaction{
		Call:  call,
		Nonce: nonce,
		Tip:   new(big.Int),
		Era:   extension.Immortal(),
	}
}

func (u UnsignedTransaction) WithTip(tip *big.Int) UnsignedTransaction {
	u.Tip = tip
	return u
}

func (u UnsignedTransaction) WithEra(era extension.TransactionEra) UnsignedTransaction {
	u.Era = era
	return u
}

// ImplicitFor returns the implicit extension values a transaction signed with param and
// era commits to.
func ImplicitFor(param SignParam, era extension.TransactionEra) extension.Implicit {
	_, implicit := extension.FromParams(
		param.SpecVersion,
		param.TransactionVersion,
		era,
		param.GenesisHash,
		0,
		nil,
		param.MetadataHashMode,
		param.MetadataHash,
	)
	return implicit
}

type TransactionSigner struct {
	logger   *zap.Logger
	verifier *signature.Verifier
}

func NewTransactionSigner(logger *zap.Logger) *TransactionSigner {
	return &TransactionSigner{
		logger:   logger,
		verifier: signature.NewVerifier(logger),
	}
}

var defaultSigner = NewTransactionSigner(zap.NewNop())

// SignTransaction signs with a signer that does not log.
func SignTransaction(ctx context.Context, param SignParam, unsigned UnsignedTransaction) (*extrinsic.UncheckedExtrinsic, error) {
	return defaultSigner.SignTransaction(ctx, param, unsigned)
}

// VerifyExtrinsic verifies with a verifier that does not log.
func VerifyExtrinsic(ext *extrinsic.UncheckedExtrinsic, implicit extension.Implicit) bool {
	return defaultSigner.VerifyExtrinsic(ext, implicit)
}

func (ts *TransactionSigner) SignTransaction(ctx context.Context, param SignParam, unsigned UnsignedTransaction) (*extrinsic.UncheckedExtrinsic, error) {
	if param.Signer == nil {
		return nil, newSigningError(StageKeyPair, fmt.Errorf("no signer configured"))
	}
	if unsigned.Call == nil {
		return nil, newSigningError(StageEncode, fmt.Errorf("transaction has no call"))
	}
	if param.MetadataHashMode == extension.MetadataHashModeEnabled && param.MetadataHash == nil {
		return nil, newSigningError(StageEncode, fmt.Errorf("metadata hash mode is enabled but no metadata hash is set"))
	}

	ext, implicit := extension.FromParams(
		param.SpecVersion,
		param.TransactionVersion,
		unsigned.Era,
		param.GenesisHash,
		unsigned.Nonce,
		unsigned.Tip,
		param.MetadataHashMode,
		param.MetadataHash,
	)
	payload := extrinsic.NewSignedPayload(unsigned.Call, ext, implicit)

	digest, err := payload.Digest()
	if err != nil {
		return nil, newSigningError(StageEncode, err)
	}

	sig, err := param.Signer.SignPrehashed(ctx, digest)
	if err != nil {
		return nil, newSigningError(StageKeyPair, err)
	}

	signer, err := account.TryFromPublicKey(param.Signer.Public())
	if err != nil {
		return nil, newSigningError(StageKeyPair, err)
	}

	call, extra := payload.Deconstruct()
	signed := extrinsic.NewUncheckedExtrinsic(call, signer, sig, extra)

	hash, err := signed.Hash()
	if err != nil {
		return nil, newSigningError(StageAssemble, err)
	}

	ts.logger.Sugar().Debugw("Signed transaction",
		"signer", signer.String(),
		"keyId", param.Signer.Id(),
		"nonce", unsigned.Nonce,
		"era", extra.Era.String(),
		"specVersion", param.SpecVersion,
		"transactionVersion", param.TransactionVersion,
		"hash", hexutil.Encode(hash[:]),
	)
	return signed, nil
}

func (ts *TransactionSigner) VerifyExtrinsic(ext *extrinsic.UncheckedExtrinsic, implicit extension.Implicit) bool {
	if ext == nil || ext.Call == nil {
		return false
	}

	payload := extrinsic.NewSignedPayload(ext.Call, ext.Extension, implicit)
	digest, err := payload.Digest()
	if err != nil {
		ts.logger.Sugar().Errorw("Failed to encode signed payload", "signer", ext.Signer.String(), "error", err)
		return false
	}
	return ts.verifier.VerifyDigest(digest, ext.Signer, ext.Signature)
}
