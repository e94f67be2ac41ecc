package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixTransaction = "tx:"
	keyPrefixSignerIndex = "signer:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"

	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// BadgerPersistence is a durable, disk-based ISignedTransactionStore.
//
// Records live under tx:<hash>. Each record also has an empty signer:<account>:<hash>
// index entry so a signer's records can be listed with a prefix scan.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerPersistence opens (or creates) the journal at dataPath with SyncWrites enabled
// and starts a background value log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)
	return bp, nil
}

func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func transactionKey(hash string) []byte {
	return []byte(keyPrefixTransaction + strings.ToLower(hash))
}

func signerPrefix(signer account.AccountId20) []byte {
	return []byte(keyPrefixSignerIndex + signer.String() + ":")
}

func signerIndexKey(signer account.AccountId20, hash string) []byte {
	return append(signerPrefix(signer), strings.ToLower(hash)...)
}

func (b *BadgerPersistence) SaveSignedTransaction(record *persistence.SignedTransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record = record.Normalized()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalSignedTransactionRecord(record)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		// A record saved again under another signer must not stay listed under the old one.
		previous, err := getRecord(txn, record.Hash)
		if err != nil {
			return err
		}
		if previous != nil && previous.Signer != record.Signer {
			if err := txn.Delete(signerIndexKey(previous.Signer, record.Hash)); err != nil {
				return err
			}
		}

		if err := txn.Set(transactionKey(record.Hash), data); err != nil {
			return err
		}
		return txn.Set(signerIndexKey(record.Signer, record.Hash), nil)
	})
}

func getRecord(txn *badgerdb.Txn, hash string) (*persistence.SignedTransactionRecord, error) {
	item, err := txn.Get(transactionKey(hash))
	if err == badgerdb.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := item.Value(func(val []byte) error {
		data = append([]byte{}, val...)
		return nil
	}); err != nil {
		return nil, err
	}
	return persistence.UnmarshalSignedTransactionRecord(data)
}

func (b *BadgerPersistence) LoadSignedTransaction(hash string) (*persistence.SignedTransactionRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var record *persistence.SignedTransactionRecord
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		record, err = getRecord(txn, hash)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load SignedTransactionRecord: %w", err)
	}
	return record, nil
}

func (b *BadgerPersistence) ListSignedTransactions(signer account.AccountId20) ([]*persistence.SignedTransactionRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	records := make([]*persistence.SignedTransactionRecord, 0)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		prefix := signerPrefix(signer)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			hash := string(it.Item().Key()[len(prefix):])

			record, err := getRecord(txn, hash)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to read SignedTransactionRecord, skipping", "hash", hash, "error", err)
				continue
			}
			if record == nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list SignedTransactionRecords: %w", err)
	}

	persistence.SortRecords(records)
	return records, nil
}

func (b *BadgerPersistence) DeleteSignedTransaction(hash string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		record, err := getRecord(txn, hash)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		if err := txn.Delete(signerIndexKey(record.Signer, hash)); err != nil {
			return err
		}
		return txn.Delete(transactionKey(hash))
	})
}

// Close stops the GC goroutine and closes the database.
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
