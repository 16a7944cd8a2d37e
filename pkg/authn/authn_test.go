package authn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey_ProducesUniqueHighEntropyKeys(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, a, keyBytes*2)
	assert.NotEqual(t, a, b)
}

func TestHashAPIKey_DeterministicAndDistinguishing(t *testing.T) {
	assert.Equal(t, HashAPIKey("same-key"), HashAPIKey("same-key"))
	assert.NotEqual(t, HashAPIKey("key-a"), HashAPIKey("key-b"))
}

func TestEqualHash(t *testing.T) {
	h := HashAPIKey("a-key")
	assert.True(t, EqualHash(h, h))
	assert.False(t, EqualHash(h, HashAPIKey("different")))
}
