package signature

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/moonbeam-foundation/bridge-signer-go/pkg/account"
	"go.uber.org/zap"
)

var (
	ErrBadRS        = errors.New("incorrect value of R or S")
	ErrBadV         = errors.New("incorrect value of V")
	ErrBadSignature = errors.New("invalid signature")
)

// Verifier checks signatures by recovering the signer instead of holding public keys.
// Recovery failures are logged and reported as a failed verification.
type Verifier struct {
	logger *zap.Logger
}

func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify hashes msg with keccak256, recovers the signing key and compares the derived
// account with signer. It never panics on malformed signatures.
func (v *Verifier) Verify(msg []byte, signer account.AccountId20, sig EthereumSignature) bool {
	return v.VerifyDigest(crypto.Keccak256Hash(msg), signer, sig)
}

func (v *Verifier) VerifyDigest(digest [32]byte, signer account.AccountId20, sig EthereumSignature) bool {
	recovered, err := RecoverAccountFromDigest(digest, sig)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadRS):
			v.logger.Sugar().Errorw("Error recovering: Incorrect value of R or S", "signer", signer.String())
		case errors.Is(err, ErrBadV):
			v.logger.Sugar().Errorw("Error recovering: Incorrect value of V", "signer", signer.String())
		default:
			v.logger.Sugar().Errorw("Error recovering: Invalid signature", "signer", signer.String(), "error", err)
		}
		return false
	}
	return recovered == signer
}
