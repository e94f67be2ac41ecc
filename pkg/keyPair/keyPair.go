package keyPair

import (
	"context"

	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/signature"
)

// IKeyPair is a secp256k1 key able to sign 32 byte digests.
type IKeyPair interface {
	// Id identifies the key in logs: a local id for in-memory keys, the key id or ARN for KMS.
	Id() string

	// Public returns the compressed public key. Implementations resolve it once at construction.
	Public() account.CompressedPublicKey

	// SignPrehashed signs digest as is, without hashing it again. The returned signature
	// carries a recovery id in 0..3.
	SignPrehashed(ctx context.Context, digest [32]byte) (signature.EthereumSignature, error)
}

// AccountOf returns the account the key pair signs for.
func AccountOf(kp IKeyPair) account.AccountId20 {
	return account.FromPublicKey(kp.Public())
}
