package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		u := "https://example.com/path?q=1"
		assert.Equal(t, Fingerprint(u), Fingerprint(u))
	})

	t.Run("fixed length hex", func(t *testing.T) {
		for _, in := range []string{"", "a", "https://example.com/", string(make([]byte, 10000))} {
			fp := Fingerprint(in)
			assert.Len(t, fp, FingerprintLength)
			assert.Regexp(t, "^[0-9a-f]+$", fp)
		}
	})

	t.Run("distinct inputs", func(t *testing.T) {
		seen := make(map[string]string)
		for i := 0; i < 1000; i++ {
			u := fmt.Sprintf("https://example.com/item/%d", i)
			fp := Fingerprint(u)
			prev, dup := seen[fp]
			assert.False(t, dup, "collision between %s and %s", u, prev)
			seen[fp] = u
		}
	})

	t.Run("matches default hasher", func(t *testing.T) {
		u := "wss://example.com/socket"
		assert.Equal(t, DefaultHasher().HashString(u), Fingerprint(u))
		assert.Equal(t, DefaultHasher().Hash([]byte(u)), Fingerprint(u))
	})
}

func TestHasherAlgorithms(t *testing.T) {
	sha := NewHasher(SHA256)
	assert.Len(t, sha.HashString("x"), 64)
	assert.Equal(t, sha.Hash([]byte("x")), sha.HashString("x"))

	xx := DefaultHasher()
	assert.Equal(t, xx.HashFields("b", "a"), xx.HashFields("a", "b"))
	assert.NotEqual(t, xx.HashFields("a", "b"), xx.HashFields("a", "c"))
}
