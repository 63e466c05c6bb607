package safe_random

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomBytes(t *testing.T) {
	a, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	b, err := GenerateRandomBytes(32)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.False(t, bytes.Equal(a, b))
	assert.False(t, bytes.Equal(a, make([]byte, 32)))
}

func TestGenerateRandomBytesRejectsNonPositive(t *testing.T) {
	_, err := GenerateRandomBytes(0)
	assert.Error(t, err)
	_, err = GenerateRandomBytes(-1)
	assert.Error(t, err)
}
