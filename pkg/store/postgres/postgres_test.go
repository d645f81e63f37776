package postgres

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
	dsn := os.Getenv("MENUMERGE_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("MENUMERGE_TEST_POSTGRES_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Open(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = b.pool.Exec(ctx, `DELETE FROM storage WHERE key = ANY($1)`, []string{"data_a", "data_c"})
	require.NoError(t, err)

	_, err = b.Load(ctx, store.KeyPrimary)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, b.Save(ctx, store.KeyPrimary, []byte(`{"menus":{}}`)))
	require.NoError(t, b.Save(ctx, store.KeyPrimary, []byte(`{"menus":{"x":[]}}`)))

	got, err := b.Load(ctx, store.KeyPrimary)
	require.NoError(t, err)
	assert.Equal(t, `{"menus":{"x":[]}}`, string(got))
	require.NoError(t, b.Ping(ctx))
}

func TestOpenRejectsBadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", 1)
	require.Error(t, err)
}
