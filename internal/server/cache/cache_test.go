package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesBuildsOnce(t *testing.T) {
	c := New(time.Minute, time.Minute)

	builds := 0
	build := func() ([]byte, error) {
		builds++
		return []byte(`{"data":{}}`), nil
	}

	for i := 0; i < 3; i++ {
		b, err := c.Bytes("data_c:1", build)
		require.NoError(t, err)
		assert.Equal(t, `{"data":{}}`, string(b))
	}
	assert.Equal(t, 1, builds)

	st := c.GetStats()
	assert.Equal(t, 1, st.ItemCount)
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestBytesDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, err := c.Bytes("k", func() ([]byte, error) { return nil, errors.New("encode failed") })
	require.Error(t, err)
	assert.Zero(t, c.ItemCount())

	b, err := c.Bytes("k", func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))
}

func TestExpiryAndClear(t *testing.T) {
	c := New(20*time.Millisecond, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Set("c", 3)
	c.Clear()
	assert.Zero(t, c.ItemCount())
}
