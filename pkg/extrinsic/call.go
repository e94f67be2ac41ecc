package extrinsic

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is a runtime call in its SCALE form.
type Call interface {
	Encode(encoder scale.Encoder) error
}

// EncodedCall is a call that is already SCALE encoded. It is written verbatim.
type EncodedCall []byte

func (c EncodedCall) Encode(encoder scale.Encoder) error {
	return encoder.Write(c)
}

func (c EncodedCall) String() string {
	return hexutil.Encode(c)
}

// UtilityCall is a call to one of the utility pallet's batching dispatchables.
type UtilityCall struct {
	PalletIndex uint8
	CallIndex   uint8
	Calls       []Call
}

// BatchAll wraps calls into utility.batch_all, which dispatches them atomically.
func BatchAll(palletIndex uint8, callIndex uint8, calls ...Call) UtilityCall {
	return UtilityCall{
		PalletIndex: palletIndex,
		CallIndex:   callIndex,
		Calls:       calls,
	}
}

func (c UtilityCall) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(c.PalletIndex); err != nil {
		return err
	}
	if err := encoder.PushByte(c.CallIndex); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*bigFromInt(len(c.Calls))); err != nil {
		return err
	}
	for _, call := range c.Calls {
		if err := call.Encode(encoder); err != nil {
			return err
		}
	}
	return nil
}
