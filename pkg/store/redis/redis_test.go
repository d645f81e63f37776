package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
)

func TestBackend(t *testing.T) {
	url := os.Getenv("MENUMERGE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MENUMERGE_TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := Open(ctx, url, 2)
	require.NoError(t, err)
	b.prefix = "menumerge-test:"
	t.Cleanup(func() {
		_ = b.client.Del(context.Background(), b.redisKey(store.KeySnapshot)).Err()
		_ = b.Close()
	})
	require.NoError(t, b.client.Del(ctx, b.redisKey(store.KeySnapshot)).Err())

	_, err = b.Load(ctx, store.KeySnapshot)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, b.Save(ctx, store.KeySnapshot, []byte(`{"data":{}}`)))
	got, err := b.Load(ctx, store.KeySnapshot)
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, string(got))
	require.NoError(t, b.Ping(ctx))
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "http://localhost:6379", 0)
	require.Error(t, err)
}
