package awsKms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/moonbeam-foundation/bridge-signer-go/internal/keyGenerator"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair/awsKmsKeyPair"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// KMSClient is what key provisioning needs from KMS.
type KMSClient interface {
	awsKmsKeyPair.KMSAPI
	awsKmsKeyPair.KeyCreatorAPI
}

type AWSKMSKeyGenerator struct {
	logger    *zap.Logger
	kmsClient KMSClient
	awsRegion string
	chainName string
}

var _ keyGenerator.IKeyGenerator = (*AWSKMSKeyGenerator)(nil)

func NewAWSKMSKeyGenerator(awsCfg aws.Config, chainName string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return NewAWSKMSKeyGeneratorWithClient(kms.NewFromConfig(awsCfg), awsCfg.Region, chainName, logger)
}

func NewAWSKMSKeyGeneratorWithClient(client KMSClient, awsRegion string, chainName string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return &AWSKMSKeyGenerator{
		logger:    logger,
		kmsClient: client,
		awsRegion: awsRegion,
		chainName: chainName,
	}
}

func (a *AWSKMSKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	keyId, err := awsKmsKeyPair.CreateSigningKey(ctx, a.kmsClient, keyName, aliasName, a.chainName, a.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create signing key %s in region %s", keyName, a.awsRegion)
	}

	kp, err := a.GetKeyPair(ctx, keyId)
	if err != nil {
		return nil, err
	}
	return keyGenerator.NewGeneratedKey(kp), nil
}

func (a *AWSKMSKeyGenerator) GetKeyPair(ctx context.Context, keyId string) (keyPair.IKeyPair, error) {
	kp, err := awsKmsKeyPair.NewAWSKMSKeyPair(ctx, a.kmsClient, &awsKmsKeyPair.Config{KeyId: keyId}, a.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load key %s in region %s", keyId, a.awsRegion)
	}
	return kp, nil
}
