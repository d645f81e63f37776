package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/menus"
)

const secondaryJSON = `{
	"data": {"mains": [{"id": 1, "sysName": "pizza", "name": {"en": "Pizza"}, "price": 8.00, "vatRate": "normal"}]},
	"vatRates": {"normal": {"ratePct": 21, "isDefault": true}}
}`

const primaryJSON = `{
	"menus": [{"id": 1, "sysName": "pizza", "name": {"en": "Pizza Margherita"}, "price": 9.50, "vatRate": "normal"}],
	"vatRates": {"normal": {"ratePct": 21, "isDefault": true}}
}`

func newTestApp(t *testing.T, sourceURL string) *App {
	t.Helper()
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.DatabaseURL = "memory"
	cfg.SourceURL = sourceURL
	cfg.RetryDelay = 0
	cfg.LogOutput = "discard"

	a, err := New("1.2.3", "abc", "2025-01-01", "test", WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func run(t *testing.T, a *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type fakeUpstream struct {
	*httptest.Server
	status atomic.Int32
}

func upstream(t *testing.T, status int, body string) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{}
	u.status.Store(int32(status))
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(u.status.Load()))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func TestVersionCommand(t *testing.T) {
	a := newTestApp(t, "")
	out, err := run(t, a, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "menumerge version 1.2.3")
	assert.Contains(t, out, "commit: abc")
}

func TestSubmitUpdateShow(t *testing.T) {
	src := upstream(t, http.StatusOK, secondaryJSON)
	a := newTestApp(t, src.URL)

	path := filepath.Join(t.TempDir(), "data-a.json")
	require.NoError(t, os.WriteFile(path, []byte(primaryJSON), 0o600))

	out, err := run(t, a, "", "submit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 items")

	_, err = run(t, a, "", "show")
	assert.True(t, errors.IsNotFound(err))

	out, err = run(t, a, "", "update", "--format", "json")
	require.NoError(t, err)
	var stats map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats["overridden"])

	out, err = run(t, a, "", "show", "--format", "json")
	require.NoError(t, err)
	var snap menus.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "Pizza Margherita", snap.Data["mains"][0].Name["en"])

	out, err = run(t, a, "", "show", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza Margherita")
	assert.Contains(t, out, "9.50")
}

func TestSubmitFromStdinRejectsInvalid(t *testing.T) {
	a := newTestApp(t, "")

	_, err := run(t, a, `{"menus": [{"id": -1}]}`, "submit", "-")
	assert.True(t, errors.IsValidationError(err))

	_, err = run(t, a, `not json`, "submit", "-")
	assert.Error(t, err)

	_, err = run(t, a, "", "show", "--primary")
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateRequiresSource(t *testing.T) {
	a := newTestApp(t, "")
	_, err := run(t, a, "", "update")
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestUpdateFailureKeepsSnapshot(t *testing.T) {
	src := upstream(t, http.StatusOK, secondaryJSON)
	a := newTestApp(t, src.URL)

	_, err := run(t, a, "", "update", "--format", "json")
	require.NoError(t, err)

	src.status.Store(http.StatusBadGateway)
	_, err = run(t, a, "", "update")
	assert.True(t, errors.IsFetchFailed(err))

	out, err := run(t, a, "", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	src := upstream(t, http.StatusOK, secondaryJSON)
	a := newTestApp(t, src.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := a.Client(ctx, true)
	require.NoError(t, err)

	// Port 0 picks a free port; validation already ran when the client was built.
	a.config.Host = "127.0.0.1"
	a.config.Port = 0
	a.config.RateLimit = 0

	done := make(chan error, 1)
	go func() { done <- a.runServe(ctx) }()

	require.Eventually(t, func() bool {
		_, err := client.Snapshot(context.Background())
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Equal(t, "stopped", client.Status().State.String())
}
