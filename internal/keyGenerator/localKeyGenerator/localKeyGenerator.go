package localKeyGenerator

import (
	"context"
	"fmt"
	"sync"

	"github.com/moonbeam-foundation/bridge-signer-go/internal/keyGenerator"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair/inMemoryKeyPair"
	"go.uber.org/zap"
)

type keyEntry struct {
	keyPair   *inMemoryKeyPair.InMemoryKeyPair
	keyName   string
	aliasName string
}

// LocalKeyGenerator creates in-memory key pairs and remembers them by id. Generated keys
// include their private key so they can be exported.
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyId -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func (l *LocalKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kp, err := inMemoryKeyPair.GenerateInMemoryKeyPair(l.logger)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.keyStore[kp.Id()] = &keyEntry{
		keyPair:   kp,
		keyName:   keyName,
		aliasName: aliasName,
	}
	l.mu.Unlock()

	generated := keyGenerator.NewGeneratedKey(kp)
	generated.PrivateKey = kp.PrivateKeyHex()

	l.logger.Info("Generated local signing key",
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
		zap.String("keyId", generated.KeyId),
		zap.String("account", generated.Account.String()),
	)
	return generated, nil
}

func (l *LocalKeyGenerator) GetKeyPair(ctx context.Context, keyId string) (keyPair.IKeyPair, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}
	return entry.keyPair, nil
}
