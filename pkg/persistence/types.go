package persistence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/extrinsic"
)

// SignedTransactionRecord is one journal entry.
type SignedTransactionRecord struct {
	// Hash is the blake2b-256 extrinsic hash, 0x prefixed. Primary key.
	Hash string `json:"hash"`

	Chain  config.ChainName    `json:"chain"`
	Signer account.AccountId20 `json:"signer"`
	Nonce  uint32              `json:"nonce"`

	// EncodedExtrinsic is the full SCALE encoded extrinsic, 0x prefixed, as submitted.
	EncodedExtrinsic string `json:"encodedExtrinsic"`

	// CreatedAt is the Unix timestamp the record was created.
	CreatedAt int64 `json:"createdAt"`
}

// NewSignedTransactionRecord captures ext as signed for chain.
func NewSignedTransactionRecord(chain config.ChainName, ext *extrinsic.UncheckedExtrinsic) (*SignedTransactionRecord, error) {
	if ext == nil {
		return nil, fmt.Errorf("cannot record nil extrinsic")
	}
	encoded, err := ext.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode extrinsic: %w", err)
	}
	hash, err := ext.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash extrinsic: %w", err)
	}

	return &SignedTransactionRecord{
		Hash:             hexutil.Encode(hash[:]),
		Chain:            chain,
		Signer:           ext.Signer,
		Nonce:            ext.Extension.Nonce,
		EncodedExtrinsic: hexutil.Encode(encoded),
		CreatedAt:        time.Now().Unix(),
	}, nil
}

// Extrinsic decodes the stored extrinsic.
func (r *SignedTransactionRecord) Extrinsic() (*extrinsic.UncheckedExtrinsic, error) {
	return extrinsic.DecodeUncheckedExtrinsicHex(r.EncodedExtrinsic)
}

// Validate checks the fields every backend relies on.
func (r *SignedTransactionRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("cannot save nil SignedTransactionRecord")
	}
	b, err := hexutil.Decode(r.Hash)
	if err != nil || len(b) != 32 {
		return fmt.Errorf("invalid extrinsic hash %q", r.Hash)
	}
	if _, err := hexutil.Decode(r.EncodedExtrinsic); err != nil {
		return fmt.Errorf("invalid encoded extrinsic: %w", err)
	}
	return nil
}

// Copy returns an independent copy of r.
func (r *SignedTransactionRecord) Copy() *SignedTransactionRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Normalized returns a copy of r with its hash lowercased, the form every backend stores.
func (r *SignedTransactionRecord) Normalized() *SignedTransactionRecord {
	c := r.Copy()
	if c != nil {
		c.Hash = strings.ToLower(c.Hash)
	}
	return c
}

// SortRecords orders records by nonce, then creation time, then hash.
func SortRecords(records []*SignedTransactionRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Nonce != b.Nonce {
			return a.Nonce < b.Nonce
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.Hash < b.Hash
	})
}
