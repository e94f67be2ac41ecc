package account

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EthereumSigner is the public half of an ECDSA key pair as the runtime sees it:
// the address the key hashes to.
type EthereumSigner [AccountIdLength]byte

func SignerFromPublicKey(pub CompressedPublicKey) EthereumSigner {
	return EthereumSigner(FromPublicKey(pub))
}

// SignerFromUncompressedPublicKey accepts a recovered key in 64 or 65 byte form.
func SignerFromUncompressedPublicKey(pub []byte) (EthereumSigner, error) {
	id, err := FromUncompressedPublicKey(pub)
	if err != nil {
		return EthereumSigner{}, err
	}
	return EthereumSigner(id), nil
}

func SignerFromAddress(addr [AccountIdLength]byte) EthereumSigner {
	return EthereumSigner(addr)
}

func (s EthereumSigner) IntoAccount() AccountId20 {
	return AccountId20(s)
}

func (s EthereumSigner) String() string {
	return fmt.Sprintf("ethereum signature: %s", hexutil.Encode(s[:]))
}
