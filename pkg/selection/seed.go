package selection

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/zeebo/blake3"
)

// Hash selects the digest used to derive seeds.
type Hash int

const (
	SHA256 Hash = iota
	BLAKE3
)

func (h Hash) String() string {
	if h == BLAKE3 {
		return "blake3"
	}
	return "sha256"
}

// ParseHash accepts "sha256" (or empty) and "blake3".
func ParseHash(s string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sha256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return SHA256, fmt.Errorf("unknown seed hash %q", s)
	}
}

// pcgStream is the fixed second PCG word; only the seed varies per root.
const pcgStream = 0x636f6e6c616e6721

// Seeder maps root words to stable seeds.
type Seeder struct {
	Offset int32
	Hash   Hash
}

// Seed upper-cases root, hashes it, reads the first four bytes as a
// little-endian int32 and adds the offset, wrapping on overflow. The result
// depends only on the root text and the seeder configuration.
func (s Seeder) Seed(root string) int32 {
	data := []byte(strings.ToUpper(root))
	var first [4]byte
	switch s.Hash {
	case BLAKE3:
		sum := blake3.Sum256(data)
		copy(first[:], sum[:4])
	default:
		sum := sha256.Sum256(data)
		copy(first[:], sum[:4])
	}
	return int32(binary.LittleEndian.Uint32(first[:])) + s.Offset
}

// Rand returns a fresh generator seeded from root.
func (s Seeder) Rand(root string) *rand.Rand {
	return NewRand(s.Seed(root))
}

// NewRand returns a reproducible generator for seed.
func NewRand(seed int32) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(uint32(seed)), pcgStream))
}
