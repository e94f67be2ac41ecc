package extension

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// MetadataHashMode is the explicit value of the CheckMetadataHash extension.
type MetadataHashMode uint8

const (
	MetadataHashModeDisabled MetadataHashMode = 0
	MetadataHashModeEnabled  MetadataHashMode = 1
)

func (m MetadataHashMode) String() string {
	switch m {
	case MetadataHashModeDisabled:
		return "Disabled"
	case MetadataHashModeEnabled:
		return "Enabled"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

var maxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// TransactionExtension holds the explicit extension values carried in the extrinsic.
//
// Field order is the runtime's:
//
//	CheckNonZeroSender, CheckSpecVersion, CheckTxVersion, CheckGenesis  (no bytes)
//	CheckEra                              Era
//	CheckNonce                            Compact<u32>
//	CheckWeight                           (no bytes)
//	ChargeTransactionPayment              Compact<u128> tip
//	BridgeRejectObsoleteHeadersAndMessages (no bytes)
//	RefundBridgedParachainMessages        (no bytes)
//	CheckMetadataHash                     u8 mode
type TransactionExtension struct {
	Era              Era
	Nonce            uint32
	Tip              *big.Int
	MetadataHashMode MetadataHashMode
}

// Implicit holds the values that are signed but never transmitted. The order mirrors
// TransactionExtension.
type Implicit struct {
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        [32]byte
	EraBlockHash       [32]byte
	MetadataHash       *[32]byte
}

// FromParams builds both halves of the extension from the signing parameters.
func FromParams(
	specVersion uint32,
	transactionVersion uint32,
	era TransactionEra,
	genesisHash [32]byte,
	nonce uint32,
	tip *big.Int,
	mode MetadataHashMode,
	metadataHash *[32]byte,
) (TransactionExtension, Implicit) {
	ext := TransactionExtension{
		Era:              era.FrameEra(),
		Nonce:            nonce,
		Tip:              tip,
		MetadataHashMode: mode,
	}
	implicit := Implicit{
		SpecVersion:        specVersion,
		TransactionVersion: transactionVersion,
		GenesisHash:        genesisHash,
		EraBlockHash:       era.SignedPayload(genesisHash),
		MetadataHash:       metadataHash,
	}
	return ext, implicit
}

func (t TransactionExtension) TipOrZero() *big.Int {
	if t.Tip == nil {
		return new(big.Int)
	}
	return t.Tip
}

func (t TransactionExtension) Encode(encoder scale.Encoder) error {
	if err := t.Era.Encode(encoder); err != nil {
		return fmt.Errorf("failed to encode era: %w", err)
	}
	if err := encoder.EncodeUintCompact(*new(big.Int).SetUint64(uint64(t.Nonce))); err != nil {
		return fmt.Errorf("failed to encode nonce: %w", err)
	}

	tip := t.TipOrZero()
	if tip.Sign() < 0 || tip.Cmp(maxBalance) > 0 {
		return fmt.Errorf("tip %s does not fit a u128 balance", tip)
	}
	if err := encoder.EncodeUintCompact(*tip); err != nil {
		return fmt.Errorf("failed to encode tip: %w", err)
	}

	switch t.MetadataHashMode {
	case MetadataHashModeDisabled, MetadataHashModeEnabled:
	default:
		return fmt.Errorf("unknown metadata hash mode %d", uint8(t.MetadataHashMode))
	}
	return encoder.PushByte(byte(t.MetadataHashMode))
}

func (t *TransactionExtension) Decode(decoder scale.Decoder) error {
	var era Era
	if err := era.Decode(decoder); err != nil {
		return fmt.Errorf("failed to decode era: %w", err)
	}

	nonce, err := decoder.DecodeUintCompact()
	if err != nil {
		return fmt.Errorf("failed to decode nonce: %w", err)
	}
	if !nonce.IsUint64() || nonce.Uint64() > uint64(^uint32(0)) {
		return fmt.Errorf("nonce %s overflows u32", nonce)
	}

	tip, err := decoder.DecodeUintCompact()
	if err != nil {
		return fmt.Errorf("failed to decode tip: %w", err)
	}
	if tip.Cmp(maxBalance) > 0 {
		return fmt.Errorf("tip %s overflows u128", tip)
	}

	mode, err := decoder.ReadOneByte()
	if err != nil {
		return fmt.Errorf("failed to decode metadata hash mode: %w", err)
	}
	if MetadataHashMode(mode) != MetadataHashModeDisabled && MetadataHashMode(mode) != MetadataHashModeEnabled {
		return fmt.Errorf("unknown metadata hash mode %d", mode)
	}

	*t = TransactionExtension{
		Era:              era,
		Nonce:            uint32(nonce.Uint64()),
		Tip:              tip,
		MetadataHashMode: MetadataHashMode(mode),
	}
	return nil
}

func (i Implicit) Encode(encoder scale.Encoder) error {
	var versions [8]byte
	binary.LittleEndian.PutUint32(versions[0:4], i.SpecVersion)
	binary.LittleEndian.PutUint32(versions[4:8], i.TransactionVersion)
	if err := encoder.Write(versions[:]); err != nil {
		return err
	}
	if err := encoder.Write(i.GenesisHash[:]); err != nil {
		return err
	}
	if err := encoder.Write(i.EraBlockHash[:]); err != nil {
		return err
	}
	if i.MetadataHash == nil {
		return encoder.PushByte(0)
	}
	if err := encoder.PushByte(1); err != nil {
		return err
	}
	return encoder.Write(i.MetadataHash[:])
}
