package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/internal/transport"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/fetcher"
	"github.com/agentstation/menumerge/pkg/logging"
)

const validBody = `{
	"data": {"lunch": [{"id": 1, "sysName": "soup", "name": {"en": "Soup"}, "price": 3.5, "vatRate": "reduced"}]},
	"vatRates": {"reduced": {"ratePct": 12, "isDefault": true}},
	"products": [{"en": "Kitchen"}]
}`

// scriptedServer answers with the given statuses in order, then repeats the last one.
func scriptedServer(t *testing.T, statuses []int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(body))
			return
		}
		_, _ = w.Write([]byte("failure"))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newFetcher(t *testing.T, url string, opts ...fetcher.Option) *fetcher.Fetcher {
	t.Helper()
	logging.DisableLoggingForTest(t)
	opts = append([]fetcher.Option{fetcher.WithRetryDelay(time.Millisecond)}, opts...)
	f, err := fetcher.New(url, opts...)
	require.NoError(t, err)
	return f
}

func TestFetchSuccess(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusOK}, validBody)
	f := newFetcher(t, srv.URL)

	ds, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	require.Len(t, ds.Data["lunch"], 1)
	assert.Equal(t, "Soup", ds.Data["lunch"][0].Name["en"])
	assert.True(t, ds.VatRates["reduced"].IsDefault)
	assert.Len(t, ds.Products, 1)
}

func TestFetchRetryBound(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusInternalServerError}, "")
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(3))

	ds, err := f.Fetch(context.Background())
	assert.Nil(t, ds)
	require.Error(t, err)
	assert.True(t, errors.IsFetchFailed(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "exactly maxAttempts requests")

	var failed *errors.FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 3, failed.Attempts)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestFetchRecoversAfterTransientFailures(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusBadGateway, http.StatusTooManyRequests, http.StatusOK}, validBody)
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(3))

	ds, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ds)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestFetchSingleAttemptMeansNoRetry(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusServiceUnavailable}, "")
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(1))

	_, err := f.Fetch(context.Background())
	assert.True(t, errors.IsFetchFailed(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchInvalidIsNotRetried(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"data": {"lunch": [`},
		{name: "wrong shape", body: `{"data": ["not", "a", "map"]}`},
		{name: "schema violation", body: `{"data": {"lunch": [{"id": 0, "sysName": "x", "name": {"en": "X"}, "price": 1, "vatRate": "normal"}]}}`},
		{name: "negative price", body: `{"data": {"lunch": [{"id": 1, "sysName": "x", "name": {"en": "X"}, "price": -1, "vatRate": "normal"}]}}`},
		{name: "undeclared rate", body: `{"data": {"lunch": [{"id": 1, "sysName": "x", "name": {"en": "X"}, "price": 1, "vatRate": "normal"}]}}`},
		{name: "two defaults", body: `{"data": {}, "vatRates": {"a": {"ratePct": 1, "isDefault": true}, "b": {"ratePct": 2, "isDefault": true}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := scriptedServer(t, []int{http.StatusOK}, tt.body)
			f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(5))

			_, err := f.Fetch(context.Background())
			assert.True(t, errors.IsFetchInvalid(err), "got %v", err)
			assert.False(t, errors.IsFetchFailed(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusNotFound}, "")
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(3))

	_, err := f.Fetch(context.Background())
	assert.True(t, errors.IsFetchFailed(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestFetchConnectionErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFetcher(t, url, fetcher.WithMaxAttempts(2))
	_, err := f.Fetch(context.Background())

	var failed *errors.FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 2, failed.Attempts)
}

func TestFetchStopsWhenContextEndsDuringDelay(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusInternalServerError}, "")
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(10), fetcher.WithRetryDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, errors.IsFetchFailed(err))
	assert.True(t, errors.IsTimeout(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchSendsCredentials(t *testing.T) {
	keys := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("X-API-Key")
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	f := newFetcher(t, srv.URL, fetcher.WithAuth(&transport.HeaderAuth{Header: "X-API-Key"}, "s3cret"))
	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", <-keys)
}

func TestNewValidation(t *testing.T) {
	for _, u := range []string{"", "not a url", "ftp://example.com/data", "/relative"} {
		_, err := fetcher.New(u)
		assert.True(t, errors.IsValidationError(err), "url %q", u)
	}

	_, err := fetcher.New("http://example.com", fetcher.WithMaxAttempts(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = fetcher.New("http://example.com", fetcher.WithRetryDelay(-time.Second))
	assert.True(t, errors.IsValidationError(err))

	f, err := fetcher.New("https://example.com/data-b", fetcher.WithName("upstream"))
	require.NoError(t, err)
	assert.Equal(t, "upstream", f.Name())
}

func TestFetchRateLimitedIsReported(t *testing.T) {
	srv, calls := scriptedServer(t, []int{http.StatusTooManyRequests}, "")
	tl := logging.NewTestLogger(t)
	f := newFetcher(t, srv.URL, fetcher.WithMaxAttempts(2), fetcher.WithLogger(tl.Logger))

	_, err := f.Fetch(context.Background())
	assert.True(t, errors.IsFetchFailed(err))
	assert.True(t, errors.IsRateLimited(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	tl.AssertContains(t, `"rate_limited":true`)
}
