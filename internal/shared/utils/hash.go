package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	// XXHash64 is fast and non-cryptographic. Used for cache keys.
	XXHash64 HashAlgorithm = "xxh64"
	SHA256   HashAlgorithm = "sha256"
)

// FingerprintLength is the length of every string returned by Fingerprint.
const FingerprintLength = 16

// Hasher provides hashing with a selectable algorithm
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(XXHash64)
}

// Hash computes a lowercase hex hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		return xxhex(xxhash.Sum64(data))
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	if h.algorithm == SHA256 {
		return h.Hash([]byte(s))
	}
	return xxhex(xxhash.Sum64String(s))
}

// HashFields computes a hash from multiple fields
// Fields are sorted and joined with a delimiter for consistent hashing
func (h *Hasher) HashFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	return h.HashString(strings.Join(sorted, "|"))
}

// Fingerprint returns a fixed-length, deterministic, non-cryptographic hash
// of text. It discriminates cache entries and is not a security boundary.
func Fingerprint(text string) string {
	return xxhex(xxhash.Sum64String(text))
}

func xxhex(sum uint64) string {
	s := strconv.FormatUint(sum, 16)
	if len(s) < FingerprintLength {
		s = strings.Repeat("0", FingerprintLength-len(s)) + s
	}
	return s
}
