package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alithPrivateKeyHex = "0x5fb92d6e98884f76de468fa3f6278f8807c48bebc13595d45af5bdc4da702133"

func validConfig() *BridgeSignerConfig {
	return &BridgeSignerConfig{
		Chain:       ChainName_Moonbeam,
		GenesisHash: "0xfe58ea77779b7abda7da4ec526d14db9b1e9cd40a217c34892af80a9b332b76d",
		KeyPair: KeyPairConfig{
			Type:       KeyPairType_Memory,
			PrivateKey: alithPrivateKeyHex,
		},
		Persistence: PersistenceConfig{
			Type: PersistenceType_Memory,
		},
	}
}

func Test_ParseChainName(t *testing.T) {
	for _, name := range []string{"moonbeam", "Moonriver", " stagenet ", "BETANET"} {
		_, err := ParseChainName(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseChainName("polkadot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), GetSupportedChainNamesString())
}

func Test_BridgeSignerConfig_Validate(t *testing.T) {
	t.Run("Should accept a complete config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())

		cfg := validConfig()
		cfg.KeyPair = KeyPairConfig{Type: KeyPairType_AWSKMS, KMSKeyId: "alias/relayer", KMSRequestsPerSecond: 5}
		cfg.Persistence = PersistenceConfig{Type: PersistenceType_Redis, RedisAddress: "localhost:6379"}
		assert.NoError(t, cfg.Validate())

		cfg.Persistence = PersistenceConfig{Type: PersistenceType_Badger, BadgerDir: t.TempDir()}
		cfg.GenesisHash = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Should aggregate every invalid field", func(t *testing.T) {
		cfg := &BridgeSignerConfig{
			Chain:       "kusama",
			GenesisHash: "0x1234",
			KeyPair:     KeyPairConfig{Type: KeyPairType_AWSKMS, KMSRequestsPerSecond: -1},
			Persistence: PersistenceConfig{Type: PersistenceType_Badger},
		}
		err := cfg.Validate()
		require.Error(t, err)
		for _, path := range []string{"chain", "genesisHash", "keyPair.kmsKeyId", "keyPair.kmsRequestsPerSecond", "persistence.badgerDir"} {
			assert.Contains(t, err.Error(), path)
		}
	})

	t.Run("Should never echo the private key", func(t *testing.T) {
		cfg := validConfig()
		cfg.KeyPair.PrivateKey = "0xdeadbeef"
		err := cfg.Validate()
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "deadbeef")
	})

	t.Run("Should reject unknown types", func(t *testing.T) {
		cfg := validConfig()
		cfg.KeyPair.Type = "ledger"
		cfg.Persistence.Type = "postgres"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyPair.type")
		assert.Contains(t, err.Error(), "persistence.type")
	})
}

func Test_GenesisHashBytes(t *testing.T) {
	hash, err := validConfig().GenesisHashBytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0xfe), hash[0])
	assert.Equal(t, byte(0x6d), hash[31])

	cfg := validConfig()
	cfg.GenesisHash = "0x00"
	_, err = cfg.GenesisHashBytes()
	assert.Error(t, err)
}

func Test_PartialValidation(t *testing.T) {
	t.Run("Should validate the key pair without a journal", func(t *testing.T) {
		cfg := validConfig()
		cfg.Persistence.Type = "sqlite"
		assert.NoError(t, cfg.ValidateKeyPair())
		assert.Error(t, cfg.ValidatePersistence())
	})

	t.Run("Should validate the journal without a key pair", func(t *testing.T) {
		cfg := validConfig()
		cfg.KeyPair = KeyPairConfig{}
		assert.NoError(t, cfg.ValidatePersistence())

		err := cfg.ValidateKeyPair()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyPair.type")
	})

	t.Run("Should require a supported chain to sign", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chain = "kusama"
		assert.Error(t, cfg.ValidateKeyPair())
	})
}
