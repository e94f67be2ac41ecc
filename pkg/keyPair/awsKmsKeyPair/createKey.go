package awsKmsKeyPair

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// KeyCreatorAPI is the subset of the KMS client used to provision relayer keys.
type KeyCreatorAPI interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
}

// CreateSigningKey provisions a secp256k1 signing key for a relayer on chainName and, when
// aliasName is set, points alias/<aliasName> at it. It returns the new key id.
func CreateSigningKey(ctx context.Context, client KeyCreatorAPI, keyName string, aliasName string, chainName string, logger *zap.Logger) (string, error) {
	out, err := client.CreateKey(ctx, &kms.CreateKeyInput{
		KeyUsage:    types.KeyUsageTypeSignVerify,
		KeySpec:     types.KeySpecEccSecgP256k1,
		Description: aws.String(fmt.Sprintf("Bridge relayer signing key - %s", keyName)),
		Tags: []types.Tag{
			{TagKey: aws.String("Name"), TagValue: aws.String(keyName)},
			{TagKey: aws.String("Chain"), TagValue: aws.String(chainName)},
			{TagKey: aws.String("Purpose"), TagValue: aws.String("bridge-relayer")},
			{TagKey: aws.String("Curve"), TagValue: aws.String("secp256k1")},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to create KMS key %s", keyName)
	}
	if out.KeyMetadata == nil || out.KeyMetadata.KeyId == nil {
		return "", errors.Errorf("KMS returned no key id for key %s", keyName)
	}
	keyId := aws.ToString(out.KeyMetadata.KeyId)

	if aliasName != "" {
		_, err := client.CreateAlias(ctx, &kms.CreateAliasInput{
			AliasName:   aws.String(fmt.Sprintf("alias/%s", aliasName)),
			TargetKeyId: aws.String(keyId),
		})
		if err != nil {
			return "", errors.Wrapf(err, "failed to create alias %s for key %s", aliasName, keyId)
		}
	}

	logger.Info("Created AWS KMS signing key",
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
		zap.String("keyId", keyId),
		zap.String("chain", chainName),
	)
	return keyId, nil
}
