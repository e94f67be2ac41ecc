package awsKms

import (
	"context"
	"encoding/asn1"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyId = "1234abcd-12ab-34cd-56ef-1234567890ab"

// provisioningKMS creates a single key backed by the Alith private key.
type provisioningKMS struct {
	createErr error
	aliases   []string
	tags      map[string]string
}

func (p *provisioningKMS) CreateKey(ctx context.Context, in *kms.CreateKeyInput, _ ...func(*kms.Options)) (*kms.CreateKeyOutput, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.tags = make(map[string]string)
	for _, tag := range in.Tags {
		p.tags[aws.ToString(tag.TagKey)] = aws.ToString(tag.TagValue)
	}
	return &kms.CreateKeyOutput{KeyMetadata: &types.KeyMetadata{KeyId: aws.String(testKeyId)}}, nil
}

func (p *provisioningKMS) CreateAlias(ctx context.Context, in *kms.CreateAliasInput, _ ...func(*kms.Options)) (*kms.CreateAliasOutput, error) {
	p.aliases = append(p.aliases, aws.ToString(in.AliasName))
	return &kms.CreateAliasOutput{}, nil
}

func (p *provisioningKMS) GetPublicKey(ctx context.Context, in *kms.GetPublicKeyInput, _ ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	if aws.ToString(in.KeyId) != testKeyId {
		return nil, errors.Errorf("key %s not found", aws.ToString(in.KeyId))
	}
	key, err := crypto.HexToECDSA("5fb92d6e98884f76de468fa3f6278f8807c48bebc13595d45af5bdc4da702133")
	if err != nil {
		return nil, err
	}
	pub := crypto.FromECDSAPub(&key.PublicKey)

	type algorithm struct {
		Algorithm  asn1.ObjectIdentifier
		Parameters asn1.ObjectIdentifier
	}
	der, err := asn1.Marshal(struct {
		Algorithm algorithm
		PublicKey asn1.BitString
	}{
		Algorithm: algorithm{
			Algorithm:  asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1},
			Parameters: asn1.ObjectIdentifier{1, 3, 132, 0, 10},
		},
		PublicKey: asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{KeyId: in.KeyId, KeySpec: types.KeySpecEccSecgP256k1, PublicKey: der}, nil
}

func (p *provisioningKMS) Sign(ctx context.Context, in *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
	return nil, errors.New("signing is not provisioned")
}

func Test_AWSKMSKeyGenerator(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: true})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Should create, alias and load a key", func(t *testing.T) {
		client := &provisioningKMS{}
		generator := NewAWSKMSKeyGeneratorWithClient(client, "us-east-1", "moonriver", l)

		generated, err := generator.GenerateKey(ctx, "relayer", "moonriver-relayer")
		require.NoError(t, err)

		alith, err := account.ParseAccountId("0xf24ff3a9cf04c71dbc94d0b566f7a27b94566cac")
		require.NoError(t, err)
		assert.Equal(t, testKeyId, generated.KeyId)
		assert.Equal(t, alith, generated.Account)
		assert.Empty(t, generated.PrivateKey)

		assert.Equal(t, []string{"alias/moonriver-relayer"}, client.aliases)
		assert.Equal(t, "moonriver", client.tags["Chain"])
		assert.Equal(t, "relayer", client.tags["Name"])
	})

	t.Run("Should surface creation failures", func(t *testing.T) {
		client := &provisioningKMS{createErr: errors.New("AccessDeniedException")}
		generator := NewAWSKMSKeyGeneratorWithClient(client, "us-east-1", "moonbeam", l)

		_, err := generator.GenerateKey(ctx, "relayer", "")
		assert.ErrorContains(t, err, "AccessDeniedException")
		assert.ErrorContains(t, err, "us-east-1")
	})

	t.Run("Should fail to load unknown keys", func(t *testing.T) {
		generator := NewAWSKMSKeyGeneratorWithClient(&provisioningKMS{}, "us-east-1", "moonbeam", l)
		_, err := generator.GetKeyPair(ctx, "missing")
		assert.Error(t, err)
	})
}
