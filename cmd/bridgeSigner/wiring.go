package main

import (
	"context"
	"fmt"

	"github.com/moonbeam-foundation/bridge-signer-go/internal/aws"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/config"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair/awsKmsKeyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair/inMemoryKeyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence/badger"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence/memory"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/persistence/redis"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func parseConfig(c *cli.Context) *config.BridgeSignerConfig {
	return &config.BridgeSignerConfig{
		Chain:       config.ChainName(c.String("chain")),
		GenesisHash: c.String("genesis-hash"),
		KeyPair: config.KeyPairConfig{
			Type:                 config.KeyPairType(c.String("key-pair-type")),
			PrivateKey:           c.String("private-key"),
			KMSKeyId:             c.String("kms-key-id"),
			KMSRequestsPerSecond: c.Float64("kms-requests-per-second"),
			KMSBurst:             c.Int("kms-burst"),
			AWSRegion:            c.String("aws-region"),
			AWSProfile:           c.String("aws-profile"),
		},
		Persistence: config.PersistenceConfig{
			Type:           config.PersistenceType(c.String("persistence-type")),
			BadgerDir:      c.String("badger-dir"),
			RedisAddress:   c.String("redis-address"),
			RedisPassword:  c.String("redis-password"),
			RedisDB:        c.Int("redis-db"),
			RedisKeyPrefix: c.String("redis-key-prefix"),
		},
		Debug: c.Bool("debug"),
	}
}

func newKeyPair(ctx context.Context, cfg *config.KeyPairConfig, l *zap.Logger) (keyPair.IKeyPair, error) {
	switch cfg.Type {
	case config.KeyPairType_Memory:
		kp, err := inMemoryKeyPair.NewInMemoryKeyPairFromHex(cfg.PrivateKey, l)
		if err != nil {
			return nil, err
		}
		return kp, nil
	case config.KeyPairType_AWSKMS:
		awsCfg, err := aws.LoadAWSConfig(ctx, aws.LoadOptions{Region: cfg.AWSRegion, Profile: cfg.AWSProfile})
		if err != nil {
			return nil, err
		}
		kp, err := awsKmsKeyPair.NewAWSKMSKeyPairFromConfig(ctx, awsCfg, &awsKmsKeyPair.Config{
			KeyId:             cfg.KMSKeyId,
			RequestsPerSecond: cfg.KMSRequestsPerSecond,
			Burst:             cfg.KMSBurst,
		}, l)
		if err != nil {
			return nil, err
		}
		return kp, nil
	default:
		return nil, fmt.Errorf("unsupported key pair type %q", cfg.Type)
	}
}

func newStore(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.ISignedTransactionStore, error) {
	switch cfg.Type {
	case config.PersistenceType_Memory:
		return memory.NewMemoryPersistence(l), nil
	case config.PersistenceType_Badger:
		store, err := badger.NewBadgerPersistence(cfg.BadgerDir, l)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.PersistenceType_Redis:
		store, err := redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported persistence type %q", cfg.Type)
	}
}
