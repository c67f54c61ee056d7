package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
)

func TestString_MatchesXXHash(t *testing.T) {
	for _, s := range []string{"", "a", "shared string", "日本語"} {
		assert.Equal(t, xxhash.Sum64([]byte(s)), String(s), "hash of %q", s)
	}
	assert.Equal(t, uint64(0xef46db3751d8e999), String(""))
}

func TestString_Distinct(t *testing.T) {
	assert.NotEqual(t, String("a"), String("b"))
	assert.Equal(t, String("same"), String("same"))
}
