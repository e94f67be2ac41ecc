package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalSignedTransactionRecord serializes a record to JSON bytes.
func MarshalSignedTransactionRecord(r *SignedTransactionRecord) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot marshal nil SignedTransactionRecord")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SignedTransactionRecord to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalSignedTransactionRecord deserializes a record from JSON bytes.
func UnmarshalSignedTransactionRecord(data []byte) (*SignedTransactionRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var r SignedTransactionRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to SignedTransactionRecord: %w", err)
	}
	return &r, nil
}
