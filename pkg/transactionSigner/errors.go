package transactionSigner

import "fmt"

type SigningStage string

const (
	// StageEncode covers building and encoding the signed payload.
	StageEncode SigningStage = "encode"
	// StageKeyPair covers the key pair: signing and reading its public key.
	StageKeyPair SigningStage = "keyPair"
	// StageAssemble covers encoding the final extrinsic.
	StageAssemble SigningStage = "assemble"
)

// SigningError reports why SignTransaction failed. Match it with errors.As.
type SigningError struct {
	Stage SigningStage
	Err   error
}

func newSigningError(stage SigningStage, err error) *SigningError {
	return &SigningError{Stage: stage, Err: err}
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign transaction (%s): %v", e.Stage, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
