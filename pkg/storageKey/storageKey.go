package storageKey

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
)

// StorageKey is a full key into the runtime's storage trie.
type StorageKey []byte

func (k StorageKey) String() string {
	return hexutil.Encode(k)
}

// StorageValueKey returns twox128(pallet) || twox128(item).
func StorageValueKey(pallet string, item string) StorageKey {
	key := make([]byte, 0, 32)
	key = append(key, twox([]byte(pallet), 2)...)
	key = append(key, twox([]byte(item), 2)...)
	return key
}

// StorageMapFinalKey returns twox128(pallet) || twox128(item) || hasher(encodedKey).
// encodedKey must already be SCALE encoded.
func StorageMapFinalKey(pallet string, item string, hasher Hasher, encodedKey []byte) (StorageKey, error) {
	hashed, err := hasher.Hash(encodedKey)
	if err != nil {
		return nil, err
	}
	return append(StorageValueKey(pallet, item), hashed...), nil
}

// AccountInfoKey is the key of System.Account for id.
func AccountInfoKey(id account.AccountId20) StorageKey {
	key, err := StorageMapFinalKey("System", "Account", Blake2_128Concat, id.Bytes())
	if err != nil {
		panic(err)
	}
	return key
}
