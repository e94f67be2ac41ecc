package inMemoryKeyPair

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
	"go.uber.org/zap"
)

// InMemoryKeyPair signs with a private key held in process memory. Signatures are
// deterministic (RFC 6979) and low-S.
type InMemoryKeyPair struct {
	logger     *zap.Logger
	id         string
	privateKey *ecdsa.PrivateKey
	public     account.CompressedPublicKey
}

func NewInMemoryKeyPair(privateKey *ecdsa.PrivateKey, logger *zap.Logger) *InMemoryKeyPair {
	var public account.CompressedPublicKey
	copy(public[:], crypto.CompressPubkey(&privateKey.PublicKey))

	kp := &InMemoryKeyPair{
		logger:     logger,
		id:         fmt.Sprintf("local-key-%s", uuid.New().String()),
		privateKey: privateKey,
		public:     public,
	}

	logger.Debug("Loaded in-memory key pair",
		zap.String("keyId", kp.id),
		zap.String("account", account.FromPublicKey(public).String()),
	)
	return kp
}

// NewInMemoryKeyPairFromHex loads a 32 byte private key given as hex, with or without 0x.
func NewInMemoryKeyPairFromHex(privateKeyHex string, logger *zap.Logger) (*InMemoryKeyPair, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return NewInMemoryKeyPair(privateKey, logger), nil
}

func GenerateInMemoryKeyPair(logger *zap.Logger) (*InMemoryKeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}
	return NewInMemoryKeyPair(privateKey, logger), nil
}

func (k *InMemoryKeyPair) Id() string {
	return k.id
}

func (k *InMemoryKeyPair) Public() account.CompressedPublicKey {
	return k.public
}

func (k *InMemoryKeyPair) SignPrehashed(ctx context.Context, digest [32]byte) (signature.EthereumSignature, error) {
	if err := ctx.Err(); err != nil {
		return signature.EthereumSignature{}, err
	}

	raw, err := crypto.Sign(digest[:], k.privateKey)
	if err != nil {
		return signature.EthereumSignature{}, fmt.Errorf("failed to sign digest with key %s: %w", k.id, err)
	}

	k.logger.Debug("Signed digest with in-memory key",
		zap.String("keyId", k.id),
		zap.String("digest", fmt.Sprintf("%x", digest)),
	)
	return signature.FromBytes(raw)
}

// Sign hashes msg with keccak256 and signs the result.
func (k *InMemoryKeyPair) Sign(ctx context.Context, msg []byte) (signature.EthereumSignature, error) {
	return k.SignPrehashed(ctx, crypto.Keccak256Hash(msg))
}

// PrivateKeyHex exports the private key as 0x prefixed hex.
func (k *InMemoryKeyPair) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(k.privateKey))
}
