package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcalc/server/config"
)

func newTestFetcher(maxRetries int) *Fetcher {
	cfg := &config.Config{}
	cfg.Fetch.Timeout = 5
	cfg.Fetch.MaxRetries = maxRetries
	cfg.Fetch.BackoffBase = 1
	cfg.Fetch.BackoffMax = 2

	f := NewFetcher(cfg, nil)
	f.SetBackoff(nil)
	return f
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/csv", r.Header.Get("Accept"))
		w.Write([]byte("transaction_id,price\nT001,1000000\n"))
	}))
	defer server.Close()

	f := newTestFetcher(3)
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "T001")
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(3)
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFetcher(3)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, server.URL, fetchErr.URL)
	assert.Contains(t, fetchErr.Error(), "unexpected status 500")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFetcher(5)
	f.SetBackoff(func(int) time.Duration { return time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, server.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("header\nrow1\nrow2\n"))
	}))
	defer server.Close()

	f := newTestFetcher(3)
	stream, err := f.Stream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Close()

	line, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "header", line)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(100*time.Millisecond, time.Second)

	for attempt, base := range []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	} {
		delay := backoff(attempt)
		assert.GreaterOrEqual(t, delay, base)
		assert.LessOrEqual(t, delay, base+base/2)
	}

	// Far past the doubling range, the delay is capped at max plus jitter.
	delay := backoff(20)
	assert.GreaterOrEqual(t, delay, time.Second)
	assert.LessOrEqual(t, delay, time.Second+time.Second/2)
}
