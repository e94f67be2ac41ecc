package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefixTransaction = "bridge-signer:tx:"
	keyPrefixSignerIndex = "bridge-signer:signer:"
	keySchemaVersion     = "bridge-signer:metadata:schema_version"
	currentSchemaVersion = "v1"

	connectTimeout = 5 * time.Second
)

// RedisPersistence is an ISignedTransactionStore backed by Redis, for relayers that
// share one journal.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "moonriver:" gives
	// "moonriver:bridge-signer:tx:0x...".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the journal schema.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) transactionKey(hash string) string {
	return r.prefixKey(keyPrefixTransaction + strings.ToLower(hash))
}

func (r *RedisPersistence) signerIndexKey(signer account.AccountId20) string {
	return r.prefixKey(keyPrefixSignerIndex + signer.String())
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) load(ctx context.Context, hash string) (*persistence.SignedTransactionRecord, error) {
	data, err := r.client.Get(ctx, r.transactionKey(hash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return persistence.UnmarshalSignedTransactionRecord(data)
}

func (r *RedisPersistence) SaveSignedTransaction(record *persistence.SignedTransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record = record.Normalized()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx := context.Background()

	data, err := persistence.MarshalSignedTransactionRecord(record)
	if err != nil {
		return err
	}

	previous, err := r.load(ctx, record.Hash)
	if err != nil {
		return fmt.Errorf("failed to read existing SignedTransactionRecord: %w", err)
	}

	hash := strings.ToLower(record.Hash)
	pipe := r.client.TxPipeline()
	if previous != nil && previous.Signer != record.Signer {
		pipe.SRem(ctx, r.signerIndexKey(previous.Signer), hash)
	}
	pipe.Set(ctx, r.transactionKey(hash), data, 0)
	pipe.SAdd(ctx, r.signerIndexKey(record.Signer), hash)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save SignedTransactionRecord: %w", err)
	}
	return nil
}

func (r *RedisPersistence) LoadSignedTransaction(hash string) (*persistence.SignedTransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	record, err := r.load(context.Background(), hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load SignedTransactionRecord: %w", err)
	}
	return record, nil
}

func (r *RedisPersistence) ListSignedTransactions(signer account.AccountId20) ([]*persistence.SignedTransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx := context.Background()
	indexKey := r.signerIndexKey(signer)

	hashes, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list SignedTransactionRecord hashes: %w", err)
	}

	records := make([]*persistence.SignedTransactionRecord, 0, len(hashes))
	if len(hashes) == 0 {
		return records, nil
	}

	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = r.transactionKey(hash)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SignedTransactionRecords: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// Indexed but gone, drop the stale index entry.
			r.client.SRem(ctx, indexKey, hashes[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for SignedTransactionRecord", "key", keys[i])
			continue
		}

		record, err := persistence.UnmarshalSignedTransactionRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal SignedTransactionRecord, skipping", "key", keys[i], "error", err)
			continue
		}
		records = append(records, record)
	}

	persistence.SortRecords(records)
	return records, nil
}

func (r *RedisPersistence) DeleteSignedTransaction(hash string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx := context.Background()
	record, err := r.load(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to read SignedTransactionRecord: %w", err)
	}
	if record == nil {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.transactionKey(hash))
	pipe.SRem(ctx, r.signerIndexKey(record.Signer), strings.ToLower(hash))

	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema marker is present.
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	return err
}
