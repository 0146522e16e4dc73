package redis

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	_, err := options(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	opts, err := options(Config{URL: "redis://:inurl@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "inurl", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	opts, err = options(Config{URL: "rediss://cache:6379", Password: "override"})
	require.NoError(t, err)
	assert.Equal(t, "override", opts.Password)
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), opts.TLSConfig.MinVersion)

	_, err = options(Config{URL: "http://nope"})
	assert.Error(t, err)
}
