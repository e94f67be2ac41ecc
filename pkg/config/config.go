package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the bridge signer
const (
	EnvChain                = "BRIDGE_SIGNER_CHAIN"
	EnvGenesisHash          = "BRIDGE_SIGNER_GENESIS_HASH"
	EnvKeyPairType          = "BRIDGE_SIGNER_KEY_PAIR_TYPE"
	EnvPrivateKey           = "BRIDGE_SIGNER_PRIVATE_KEY"
	EnvKMSKeyId             = "BRIDGE_SIGNER_KMS_KEY_ID"
	EnvKMSRequestsPerSecond = "BRIDGE_SIGNER_KMS_REQUESTS_PER_SECOND"
	EnvAWSRegion            = "BRIDGE_SIGNER_AWS_REGION"
	EnvAWSProfile           = "BRIDGE_SIGNER_AWS_PROFILE"
	EnvPersistenceType      = "BRIDGE_SIGNER_PERSISTENCE_TYPE"
	EnvBadgerDir            = "BRIDGE_SIGNER_BADGER_DIR"
	EnvRedisAddress         = "BRIDGE_SIGNER_REDIS_ADDRESS"
	EnvRedisPassword        = "BRIDGE_SIGNER_REDIS_PASSWORD"
	EnvRedisDB              = "BRIDGE_SIGNER_REDIS_DB"
	EnvRedisKeyPrefix       = "BRIDGE_SIGNER_REDIS_KEY_PREFIX"
	EnvDebug                = "BRIDGE_SIGNER_DEBUG"
)

type ChainName string

func (c ChainName) String() string {
	return string(c)
}

const (
	ChainName_Moonbeam  ChainName = "moonbeam"
	ChainName_Moonriver ChainName = "moonriver"
	ChainName_Stagenet  ChainName = "stagenet"
	ChainName_Betanet   ChainName = "betanet"
)

// GetSupportedChainNames returns all chains a transaction can be signed for
func GetSupportedChainNames() []ChainName {
	return []ChainName{
		ChainName_Moonbeam,
		ChainName_Moonriver,
		ChainName_Stagenet,
		ChainName_Betanet,
	}
}

// GetSupportedChainNamesString returns supported chain names for CLI help
func GetSupportedChainNamesString() string {
	names := make([]string, 0, 4)
	for _, name := range GetSupportedChainNames() {
		names = append(names, name.String())
	}
	return strings.Join(names, ", ")
}

func ParseChainName(s string) (ChainName, error) {
	name := ChainName(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range GetSupportedChainNames() {
		if name == supported {
			return name, nil
		}
	}
	return "", fmt.Errorf("unsupported chain %q. Supported: %s", s, GetSupportedChainNamesString())
}

type KeyPairType string

const (
	KeyPairType_Memory KeyPairType = "memory"
	KeyPairType_AWSKMS KeyPairType = "aws-kms"
)

type PersistenceType string

const (
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

type KeyPairConfig struct {
	Type KeyPairType `json:"type" yaml:"type"`

	// PrivateKey is the hex encoded secp256k1 key for KeyPairType_Memory
	PrivateKey string `json:"privateKey" yaml:"privateKey"`

	// AWS KMS settings for KeyPairType_AWSKMS
	KMSKeyId             string  `json:"kmsKeyId" yaml:"kmsKeyId"`
	KMSRequestsPerSecond float64 `json:"kmsRequestsPerSecond" yaml:"kmsRequestsPerSecond"`
	KMSBurst             int     `json:"kmsBurst" yaml:"kmsBurst"`
	AWSRegion            string  `json:"awsRegion" yaml:"awsRegion"`
	AWSProfile           string  `json:"awsProfile" yaml:"awsProfile"`
}

func (k *KeyPairConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch k.Type {
	case KeyPairType_Memory:
		if k.PrivateKey == "" {
			allErrors = append(allErrors, field.Required(path.Child("privateKey"), "privateKey is required for in-memory key pairs"))
		} else if !isPrivateKeyHex(k.PrivateKey) {
			allErrors = append(allErrors, field.Invalid(path.Child("privateKey"), "<redacted>", "must be 32 bytes of hex"))
		}
	case KeyPairType_AWSKMS:
		if k.KMSKeyId == "" {
			allErrors = append(allErrors, field.Required(path.Child("kmsKeyId"), "kmsKeyId is required for AWS KMS key pairs"))
		}
		if k.KMSRequestsPerSecond < 0 {
			allErrors = append(allErrors, field.Invalid(path.Child("kmsRequestsPerSecond"), k.KMSRequestsPerSecond, "must not be negative"))
		}
		if k.KMSBurst < 0 {
			allErrors = append(allErrors, field.Invalid(path.Child("kmsBurst"), k.KMSBurst, "must not be negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), k.Type, []KeyPairType{KeyPairType_Memory, KeyPairType_AWSKMS}))
	}
	return allErrors
}

func isPrivateKeyHex(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == 32
}

type PersistenceConfig struct {
	Type PersistenceType `json:"type" yaml:"type"`

	BadgerDir string `json:"badgerDir" yaml:"badgerDir"`

	RedisAddress   string `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword  string `json:"redisPassword" yaml:"redisPassword"`
	RedisDB        int    `json:"redisDb" yaml:"redisDb"`
	RedisKeyPrefix string `json:"redisKeyPrefix" yaml:"redisKeyPrefix"`
}

func (p *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch p.Type {
	case PersistenceType_Memory:
	case PersistenceType_Badger:
		if p.BadgerDir == "" {
			allErrors = append(allErrors, field.Required(path.Child("badgerDir"), "badgerDir is required for badger persistence"))
		}
	case PersistenceType_Redis:
		if p.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis persistence"))
		}
		if p.RedisDB < 0 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), p.RedisDB, "must not be negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), p.Type,
			[]PersistenceType{PersistenceType_Memory, PersistenceType_Badger, PersistenceType_Redis}))
	}
	return allErrors
}

// BridgeSignerConfig is the configuration of the bridgeSigner CLI
type BridgeSignerConfig struct {
	Chain ChainName `json:"chain" yaml:"chain"`

	// GenesisHash of the target chain, 0x prefixed. Only needed for signing.
	GenesisHash string `json:"genesisHash" yaml:"genesisHash"`

	KeyPair     KeyPairConfig     `json:"keyPair" yaml:"keyPair"`
	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`

	Debug bool `json:"debug" yaml:"debug"`
}

// Validate reports every invalid field at once
func (c *BridgeSignerConfig) Validate() error {
	allErrors := c.validateChain()

	if c.GenesisHash != "" {
		if b, err := hexutil.Decode(c.GenesisHash); err != nil || len(b) != 32 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("genesisHash"), c.GenesisHash, "must be a 0x prefixed 32 byte hash"))
		}
	}

	allErrors = append(allErrors, c.KeyPair.validate(field.NewPath("keyPair"))...)
	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// GenesisHashBytes decodes GenesisHash. Call Validate first.
func (c *BridgeSignerConfig) GenesisHashBytes() ([32]byte, error) {
	var hash [32]byte
	b, err := hexutil.Decode(c.GenesisHash)
	if err != nil {
		return hash, fmt.Errorf("invalid genesis hash: %w", err)
	}
	if len(b) != len(hash) {
		return hash, fmt.Errorf("genesis hash must be 32 bytes, got %d", len(b))
	}
	copy(hash[:], b)
	return hash, nil
}

// ValidateKeyPair checks only the chain and key pair, for commands that sign but keep no journal.
func (c *BridgeSignerConfig) ValidateKeyPair() error {
	allErrors := c.validateChain()
	allErrors = append(allErrors, c.KeyPair.validate(field.NewPath("keyPair"))...)
	return allErrors.ToAggregate()
}

// ValidatePersistence checks only the journal settings.
func (c *BridgeSignerConfig) ValidatePersistence() error {
	return c.Persistence.validate(field.NewPath("persistence")).ToAggregate()
}

func (c *BridgeSignerConfig) validateChain() field.ErrorList {
	var allErrors field.ErrorList
	if c.Chain == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("chain"), "chain is required"))
	} else if _, err := ParseChainName(c.Chain.String()); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("chain"), c.Chain, GetSupportedChainNames()))
	}
	return allErrors
}
