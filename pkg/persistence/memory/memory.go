package memory

import (
	"strings"
	"sync"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"go.uber.org/zap"
)

// MemoryPersistence is an in-memory ISignedTransactionStore.
// This implementation is intended for TESTING ONLY: the journal is lost when the
// process exits.
type MemoryPersistence struct {
	mu sync.RWMutex

	// hash -> record
	records map[string]*persistence.SignedTransactionRecord

	closed bool
}

// NewMemoryPersistence creates a new in-memory journal and warns that it is not durable.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	logger.Sugar().Warnw("Using in-memory persistence - the signed transaction journal will be lost on restart",
		"hint", "set BRIDGE_SIGNER_PERSISTENCE_TYPE=badger for a durable journal")

	return &MemoryPersistence{
		records: make(map[string]*persistence.SignedTransactionRecord),
	}
}

func (m *MemoryPersistence) SaveSignedTransaction(record *persistence.SignedTransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	normalized := record.Normalized()
	m.records[normalized.Hash] = normalized
	return nil
}

func (m *MemoryPersistence) LoadSignedTransaction(hash string) (*persistence.SignedTransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	record, exists := m.records[strings.ToLower(hash)]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return record.Copy(), nil
}

func (m *MemoryPersistence) ListSignedTransactions(signer account.AccountId20) ([]*persistence.SignedTransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*persistence.SignedTransactionRecord, 0)
	for _, record := range m.records {
		if record.Signer == signer {
			result = append(result, record.Copy())
		}
	}
	persistence.SortRecords(result)
	return result, nil
}

func (m *MemoryPersistence) DeleteSignedTransaction(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.records, strings.ToLower(hash))
	return nil
}

func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
