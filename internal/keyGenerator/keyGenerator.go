package keyGenerator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/keyPair"
)

// GeneratedKey describes a freshly provisioned relayer signing key.
type GeneratedKey struct {
	KeyId   string
	Public  account.CompressedPublicKey
	Account account.AccountId20

	// PrivateKey is only set by generators that hand key material back to the caller.
	PrivateKey string
}

// NewGeneratedKey describes kp.
func NewGeneratedKey(kp keyPair.IKeyPair) *GeneratedKey {
	return &GeneratedKey{
		KeyId:   kp.Id(),
		Public:  kp.Public(),
		Account: keyPair.AccountOf(kp),
	}
}

// GetPublicKeyHexUnprefixed returns the 64 byte X || Y public key, the form account
// derivation hashes.
func (gk *GeneratedKey) GetPublicKeyHexUnprefixed() (string, error) {
	pub, err := crypto.DecompressPubkey(gk.Public[:])
	if err != nil {
		return "", fmt.Errorf("failed to decompress public key: %w", err)
	}
	return hexutil.Encode(crypto.FromECDSAPub(pub)[1:]), nil
}

type IKeyGenerator interface {
	GenerateKey(ctx context.Context, keyName string, aliasName string) (*GeneratedKey, error)
	GetKeyPair(ctx context.Context, keyId string) (keyPair.IKeyPair, error)
}
