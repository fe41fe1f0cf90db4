package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fishfarm/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()

	rc, err := New(ctx, config.RedisConfig{TTL: time.Minute}, nil)
	require.NoError(t, err)
	assert.False(t, rc.Enabled())

	rc.SetJSON(ctx, PondsKey, []int{1, 2})
	var out []int
	assert.False(t, rc.GetJSON(ctx, PondsKey, &out))
	assert.Empty(t, out)

	rc.Invalidate(ctx, PondsKey)
	assert.NoError(t, rc.Close())
}

func TestNilCacheIsNoop(t *testing.T) {
	var rc *ReferenceCache
	var out string

	assert.False(t, rc.Enabled())
	assert.False(t, rc.GetJSON(context.Background(), SpeciesKey, &out))
	rc.SetJSON(context.Background(), SpeciesKey, "x")
	assert.NoError(t, rc.Close())
}

func TestUnreachableRedisDegrades(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rc, err := New(ctx, config.RedisConfig{Addr: "127.0.0.1:1", TTL: time.Minute}, nil)
	assert.Error(t, err)
	require.NotNil(t, rc)
	assert.False(t, rc.Enabled())
}
