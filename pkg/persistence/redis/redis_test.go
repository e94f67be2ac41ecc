package redis

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/logger"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestRedisAddress returns REDIS_TEST_ADDRESS, or localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis connects to the test database under a key prefix unique to t, and skips
// when no Redis server is reachable.
func requireRedis(t *testing.T) *RedisPersistence {
	t.Helper()

	testLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15,
		KeyPrefix: "test:" + strings.ReplaceAll(t.Name(), " ", "_") + ":",
	}

	rp, err := NewRedisPersistence(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	cleanupRedis(t, rp)
	t.Cleanup(func() {
		cleanupRedis(t, rp)
		_ = rp.Close()
	})
	return rp
}

// cleanupRedis deletes every key under the store's prefix except the schema marker.
func cleanupRedis(t *testing.T, rp *RedisPersistence) {
	t.Helper()
	if rp.closed {
		return
	}

	ctx := context.Background()
	iter := rp.client.Scan(ctx, 0, rp.keyPrefix+"bridge-signer:*", 0).Iterator()
	for iter.Next(ctx) {
		if iter.Val() == rp.prefixKey(keySchemaVersion) {
			continue
		}
		rp.client.Del(ctx, iter.Val())
	}
	require.NoError(t, iter.Err())
}

func TestRedisPersistence(t *testing.T) {
	storetest.RunStoreTests(t, func(t *testing.T) persistence.ISignedTransactionStore {
		return requireRedis(t)
	})
}

func TestRedisPersistence_InterfaceCompliance(t *testing.T) {
	var _ persistence.ISignedTransactionStore = (*RedisPersistence)(nil)
}

func TestRedisPersistence_KeyPrefix(t *testing.T) {
	rp := requireRedis(t)
	record := storetest.GoldenRecord(t)
	require.NoError(t, rp.SaveSignedTransaction(record))

	exists, err := rp.client.Exists(context.Background(), rp.keyPrefix+keyPrefixTransaction+storetest.GoldenHashHex).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

func TestRedisPersistence_DropsStaleIndexEntries(t *testing.T) {
	rp := requireRedis(t)
	record := storetest.GoldenRecord(t)
	require.NoError(t, rp.SaveSignedTransaction(record))

	ctx := context.Background()
	require.NoError(t, rp.client.Del(ctx, rp.transactionKey(record.Hash)).Err())

	records, err := rp.ListSignedTransactions(record.Signer)
	require.NoError(t, err)
	assert.Empty(t, records)

	members, err := rp.client.SMembers(ctx, rp.signerIndexKey(record.Signer)).Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRedisPersistence_Config_Nil(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	_, err := NewRedisPersistence(nil, testLogger)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}

func TestRedisPersistence_Config_EmptyAddress(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	_, err := NewRedisPersistence(&RedisConfig{}, testLogger)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "address cannot be empty")
}
