package storageKey

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hasher is a storage map key hasher as declared in runtime metadata.
type Hasher uint8

const (
	Identity Hasher = iota
	Twox64Concat
	Twox128
	Twox256
	Blake2_128
	Blake2_128Concat
	Blake2_256
)

var hasherNames = map[Hasher]string{
	Identity:         "Identity",
	Twox64Concat:     "Twox64Concat",
	Twox128:          "Twox128",
	Twox256:          "Twox256",
	Blake2_128:       "Blake2_128",
	Blake2_128Concat: "Blake2_128Concat",
	Blake2_256:       "Blake2_256",
}

func (h Hasher) String() string {
	if name, ok := hasherNames[h]; ok {
		return name
	}
	return fmt.Sprintf("Hasher(%d)", uint8(h))
}

func ParseHasher(name string) (Hasher, error) {
	for h, n := range hasherNames {
		if n == name {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown storage hasher %q", name)
}

// Hash applies the hasher to data. Concat hashers append data after the hash so the key
// can be read back from the storage key.
func (h Hasher) Hash(data []byte) ([]byte, error) {
	switch h {
	case Identity:
		return append([]byte(nil), data...), nil
	case Twox64Concat:
		return append(twox(data, 1), data...), nil
	case Twox128:
		return twox(data, 2), nil
	case Twox256:
		return twox(data, 4), nil
	case Blake2_128:
		return blake2b128(data), nil
	case Blake2_128Concat:
		return append(blake2b128(data), data...), nil
	case Blake2_256:
		sum := blake2b.Sum256(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unknown storage hasher %d", uint8(h))
	}
}

// twox concatenates xxhash64 with seeds 0..rounds-1, each little endian.
func twox(data []byte, rounds int) []byte {
	out := make([]byte, 0, rounds*8)
	for seed := 0; seed < rounds; seed++ {
		d := xxhash.NewWithSeed(uint64(seed))
		_, _ = d.Write(data)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

func blake2b128(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// only fails for invalid sizes or keys
		panic(err)
	}
	_, _ = h.Write(data)
	return h.Sum(nil)
}
