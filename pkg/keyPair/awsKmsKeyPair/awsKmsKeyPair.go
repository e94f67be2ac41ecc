package awsKmsKeyPair

import (
	"bytes"
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// KMSAPI is the subset of the KMS client the key pair calls.
type KMSAPI interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

type Config struct {
	// KeyId is a key id, key ARN, alias name ("alias/...") or alias ARN.
	KeyId string

	// RequestsPerSecond caps calls to KMS. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// AWSKMSKeyPair signs with an ECC_SECG_P256K1 key that never leaves AWS KMS.
type AWSKMSKeyPair struct {
	logger    *zap.Logger
	client    KMSAPI
	keyId     string
	limiter   *rate.Limiter
	public    account.CompressedPublicKey
	publicRaw []byte
}

func NewAWSKMSKeyPairFromConfig(ctx context.Context, awsCfg aws.Config, cfg *Config, logger *zap.Logger) (*AWSKMSKeyPair, error) {
	return NewAWSKMSKeyPair(ctx, kms.NewFromConfig(awsCfg), cfg, logger)
}

// NewAWSKMSKeyPair fetches and caches the public key of cfg.KeyId.
func NewAWSKMSKeyPair(ctx context.Context, client KMSAPI, cfg *Config, logger *zap.Logger) (*AWSKMSKeyPair, error) {
	if cfg.KeyId == "" {
		return nil, errors.New("KMS key id is required")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}

	kp := &AWSKMSKeyPair{
		logger:  logger,
		client:  client,
		keyId:   cfg.KeyId,
		limiter: limiter,
	}

	if err := kp.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(cfg.KeyId)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", cfg.KeyId)
	}
	if out.KeySpec != "" && out.KeySpec != types.KeySpecEccSecgP256k1 {
		return nil, fmt.Errorf("key %s has spec %s, want %s", cfg.KeyId, out.KeySpec, types.KeySpecEccSecgP256k1)
	}

	pub, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", cfg.KeyId)
	}
	copy(kp.public[:], crypto.CompressPubkey(pub))
	kp.publicRaw = crypto.FromECDSAPub(pub)

	logger.Info("Loaded AWS KMS key pair",
		zap.String("keyId", cfg.KeyId),
		zap.String("account", account.FromPublicKey(kp.public).String()),
	)
	return kp, nil
}

func (k *AWSKMSKeyPair) Id() string {
	return k.keyId
}

func (k *AWSKMSKeyPair) Public() account.CompressedPublicKey {
	return k.public
}

// SignPrehashed asks KMS to sign the digest, normalizes s to the lower half of the curve
// order and finds the recovery id that yields this key.
func (k *AWSKMSKeyPair) SignPrehashed(ctx context.Context, digest [32]byte) (signature.EthereumSignature, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return signature.EthereumSignature{}, err
	}

	out, err := k.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(k.keyId),
		Message:          digest[:],
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return signature.EthereumSignature{}, errors.Wrapf(err, "failed to sign digest with key %s", k.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(out.Signature, &sigAsn1); err != nil {
		return signature.EthereumSignature{}, errors.Wrap(err, "failed to parse DER signature")
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)
	if r.Sign() == 0 || s.Sign() == 0 || r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return signature.EthereumSignature{}, errors.New("KMS returned an out of range signature")
	}
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	var sig signature.EthereumSignature
	r.FillBytes(sig[0:32])
	s.FillBytes(sig[32:64])

	// crypto.Ecrecover expects 0..3, which is also the form the runtime verifies.
	for recoveryId := byte(0); recoveryId < 4; recoveryId++ {
		sig[64] = recoveryId
		recovered, err := crypto.Ecrecover(digest[:], sig[:])
		if err != nil {
			k.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err),
			)
			continue
		}
		if bytes.Equal(recovered, k.publicRaw) {
			k.logger.Debug("Signed digest with AWS KMS key",
				zap.String("keyId", k.keyId),
				zap.String("digest", fmt.Sprintf("%x", digest)),
			)
			return sig, nil
		}
	}

	return signature.EthereumSignature{}, fmt.Errorf("could not determine recovery id for signature from key %s", k.keyId)
}

// parseECDSAPublicKey parses the DER SubjectPublicKeyInfo KMS returns.
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	rest, err := asn1.Unmarshal(derBytes, &asn1pubk)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing data after ASN.1 public key")
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}
