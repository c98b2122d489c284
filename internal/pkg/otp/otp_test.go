package otp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewCryptoGenerator()

	for i := 0; i < 50; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("483920")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "483920", hash)

	assert.True(t, Verify("483920", hash))
	assert.False(t, Verify("483921", hash))
	assert.False(t, Verify("", hash))
}

func TestVerifyRejectsGarbageHash(t *testing.T) {
	assert.False(t, Verify("483920", "not-a-bcrypt-hash"))
	assert.False(t, Verify("483920", ""))
}
