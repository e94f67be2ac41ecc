package persistence

import (
	"errors"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
)

// ErrClosed is returned by every operation on a store after Close.
var ErrClosed = errors.New("persistence layer is closed")

// ISignedTransactionStore is a journal of the extrinsics a relayer has signed.
// All implementations must be thread-safe; signing happens concurrently.
//
// The journal lets an operator see what was signed for which nonce, and lets a relayer
// resubmit an extrinsic it signed before a restart instead of signing a second one for
// the same nonce.
type ISignedTransactionStore interface {
	// SaveSignedTransaction persists a record keyed by its extrinsic hash.
	// Saving the same hash again overwrites the record (idempotent).
	SaveSignedTransaction(record *SignedTransactionRecord) error

	// LoadSignedTransaction retrieves a record by extrinsic hash (0x prefixed hex).
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadSignedTransaction(hash string) (*SignedTransactionRecord, error)

	// ListSignedTransactions returns the records signed by signer sorted by nonce, then
	// creation time. Returns an empty slice if there are none.
	ListSignedTransactions(signer account.AccountId20) ([]*SignedTransactionRecord, error)

	// DeleteSignedTransaction removes a record by extrinsic hash.
	// Idempotent - returns nil if the record doesn't exist.
	DeleteSignedTransaction(hash string) error

	// Close cleanly shuts down the store.
	// Idempotent - safe to call multiple times. Afterwards other operations return ErrClosed.
	Close() error

	// HealthCheck verifies the store is operational.
	HealthCheck() error
}
