package fetcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/config"
)

// FetchError is returned after all fetch attempts for a URL are exhausted.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// BackoffFunc maps a zero-based attempt number to the delay before the next
// attempt.
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff returns a backoff function doubling from base per
// attempt, capped at max, with up to 50% random jitter added.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		delay := base << uint(attempt)
		if delay > max || delay <= 0 {
			delay = max
		}
		jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
		return delay + jitter
	}
}

// Fetcher downloads CSV resources over HTTP with bounded retries.
type Fetcher struct {
	client     *http.Client
	logger     *logrus.Logger
	maxRetries int
	backoff    BackoffFunc
}

func NewFetcher(cfg *config.Config, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.Fetch.Timeout) * time.Second,
		},
		logger:     logger,
		maxRetries: cfg.Fetch.MaxRetries,
		backoff: ExponentialBackoff(
			time.Duration(cfg.Fetch.BackoffBase)*time.Millisecond,
			time.Duration(cfg.Fetch.BackoffMax)*time.Millisecond,
		),
	}
}

// SetBackoff overrides the delay function; nil restores no delay between
// attempts.
func (f *Fetcher) SetBackoff(backoff BackoffFunc) {
	f.backoff = backoff
}

// Fetch downloads the full resource body as text. Non-2xx statuses and
// transport errors are retried up to the configured limit.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, err := f.open(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(data), nil
}

// Stream opens the resource for chunked line-by-line consumption. The caller
// owns the returned stream and must Close it. A stream cannot be resumed
// mid-way; restarting means fetching again from the start.
func (f *Fetcher) Stream(ctx context.Context, url string) (*LineStream, error) {
	body, err := f.open(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewLineStream(body), nil
}

func (f *Fetcher) open(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 && f.backoff != nil {
			delay := f.backoff(attempt - 1)
			f.logger.WithFields(logrus.Fields{
				"url":     url,
				"attempt": attempt + 1,
				"delay":   delay.String(),
			}).Info("Retrying fetch")

			select {
			case <-ctx.Done():
				return nil, &FetchError{URL: url, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "PropCalc DLD Ingestion/1.0")
		req.Header.Set("Accept", "text/csv")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			f.logger.WithError(err).WithField("url", url).Warn("Fetch attempt failed")
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			f.logger.WithFields(logrus.Fields{
				"url":    url,
				"status": resp.StatusCode,
			}).Warn("Fetch attempt failed")
			continue
		}

		return resp.Body, nil
	}

	return nil, &FetchError{URL: url, Attempts: f.maxRetries, Err: lastErr}
}
