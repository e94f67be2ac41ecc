package extension

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

const (
	minEraPeriod = 4
	// MaxEraPeriod is the longest validity window, in blocks, an era can encode.
	MaxEraPeriod = 1 << 16
)

// Era is the runtime's transaction validity window. A zero Period means immortal.
type Era struct {
	Period uint64
	Phase  uint64
}

func ImmortalEra() Era {
	return Era{}
}

// MortalEra builds an era starting at block current and lasting roughly period blocks.
// The period is rounded up to a power of two in [4, 65536] and the phase quantized
// so that it fits the two byte encoding.
func MortalEra(period uint64, current uint64) Era {
	p := nextPowerOfTwo(period)
	if p < minEraPeriod {
		p = minEraPeriod
	}
	if p > MaxEraPeriod {
		p = MaxEraPeriod
	}
	phase := current % p
	quantizeFactor := max(p>>12, 1)
	return Era{Period: p, Phase: phase / quantizeFactor * quantizeFactor}
}

func nextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	n := bits.Len64(v - 1)
	if n >= 64 {
		return MaxEraPeriod
	}
	return 1 << n
}

func (e Era) IsImmortal() bool {
	return e.Period == 0
}

// Birth is the first block at which a transaction with this era is valid, given any block
// current at or after it.
func (e Era) Birth(current uint64) uint64 {
	if e.IsImmortal() {
		return 0
	}
	return (max(current, e.Phase)-e.Phase)/e.Period*e.Period + e.Phase
}

// Death is the first block at which the transaction is no longer valid.
func (e Era) Death(current uint64) uint64 {
	if e.IsImmortal() {
		return math.MaxUint64
	}
	return e.Birth(current) + e.Period
}

func (e Era) Encode(encoder scale.Encoder) error {
	if e.IsImmortal() {
		return encoder.PushByte(0)
	}
	if e.Period < minEraPeriod || e.Period > MaxEraPeriod || bits.OnesCount64(e.Period) != 1 || e.Phase >= e.Period {
		return fmt.Errorf("invalid mortal era: period %d, phase %d", e.Period, e.Phase)
	}

	quantizeFactor := max(e.Period>>12, 1)
	low := uint64(bits.TrailingZeros64(e.Period) - 1)
	low = min(max(low, 1), 15)
	encoded := uint16(low) | uint16((e.Phase/quantizeFactor)<<4)

	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], encoded)
	return encoder.Write(buf[:])
}

func (e *Era) Decode(decoder scale.Decoder) error {
	first, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if first == 0 {
		*e = ImmortalEra()
		return nil
	}

	second, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	encoded := uint64(first) | uint64(second)<<8
	period := uint64(2) << (encoded % (1 << 4))
	quantizeFactor := max(period>>12, 1)
	phase := (encoded >> 4) * quantizeFactor
	if period < minEraPeriod || phase >= period {
		return fmt.Errorf("invalid period and phase: %d, %d", period, phase)
	}

	*e = Era{Period: period, Phase: phase}
	return nil
}

func (e Era) String() string {
	if e.IsImmortal() {
		return "Immortal"
	}
	return fmt.Sprintf("Mortal(period: %d, phase: %d)", e.Period, e.Phase)
}

// TransactionEra is the relayer's view of an era: either immortal, or mortal and
// anchored at a known block whose hash the signature commits to.
type TransactionEra struct {
	mortal      bool
	BlockNumber uint32
	BlockHash   [32]byte
	Period      uint32
}

func Immortal() TransactionEra {
	return TransactionEra{}
}

func Mortal(blockNumber uint32, blockHash [32]byte, period uint32) TransactionEra {
	return TransactionEra{
		mortal:      true,
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
		Period:      period,
	}
}

// NewTransactionEra returns an era anchored at the best block, or an immortal era when
// no mortality period is configured.
func NewTransactionEra(bestNumber uint32, bestHash [32]byte, mortalityPeriod *uint32) TransactionEra {
	if mortalityPeriod == nil {
		return Immortal()
	}
	return Mortal(bestNumber, bestHash, *mortalityPeriod)
}

func (e TransactionEra) IsMortal() bool {
	return e.mortal
}

func (e TransactionEra) FrameEra() Era {
	if !e.mortal {
		return ImmortalEra()
	}
	return MortalEra(uint64(e.Period), uint64(e.BlockNumber))
}

// SignedPayload is the block hash included in the signed data: the genesis hash for
// immortal transactions, otherwise the hash of the anchor block.
func (e TransactionEra) SignedPayload(genesisHash [32]byte) [32]byte {
	if !e.mortal {
		return genesisHash
	}
	return e.BlockHash
}
