package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorchain/compliance-node/internal/config"
)

func TestResolveSecretLiteral(t *testing.T) {
	ctx := context.Background()

	value, err := ResolveSecret(ctx, config.Configuration{}, "plain-pinning-token")
	require.NoError(t, err)
	assert.Equal(t, "plain-pinning-token", value)

	value, err = ResolveSecret(ctx, config.Configuration{}, "")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSplitKey(t *testing.T) {
	path, key, err := splitKey("secret/pinning#token")
	require.NoError(t, err)
	assert.Equal(t, "secret/pinning", path)
	assert.Equal(t, "token", key)

	_, _, err = splitKey("secret/pinning")
	assert.Error(t, err)
	_, _, err = splitKey("secret/pinning#")
	assert.Error(t, err)
}

func TestSplitOptionalKey(t *testing.T) {
	name, key, err := splitOptionalKey("pinning-credentials#token")
	require.NoError(t, err)
	assert.Equal(t, "pinning-credentials", name)
	assert.Equal(t, "token", key)

	name, key, err = splitOptionalKey("pinning-credentials")
	require.NoError(t, err)
	assert.Equal(t, "pinning-credentials", name)
	assert.Empty(t, key)

	_, _, err = splitOptionalKey("#token")
	assert.Error(t, err)
}
