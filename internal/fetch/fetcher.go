// Package fetch performs polite, rate-limited HTTP fetches against
// third-party sites.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/Coderopp/vc-thesis-scraper/internal/config"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/retry"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 10 << 20 // 10 MiB

// ErrStatus is returned when a fetch completes with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError is the concrete error for a non-2xx response. It carries
// the status code so callers can classify without parsing messages.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d for %s", e.Code, e.URL)
}

// Is makes errors.Is(err, ErrStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// userAgents is the pool of browser User-Agent strings rotated per request.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:89.0) Gecko/20100101 Firefox/89.0",
}

// Fetcher issues sequential, header-randomized GET requests with a
// politeness delay after every request. It is not safe for concurrent
// use and is not meant to be: requests must stay strictly sequential.
type Fetcher struct {
	client   *http.Client
	logger   logger.Interface
	retryCfg retry.Config
	delayMin time.Duration
	delayMax time.Duration
	rand     *rand.Rand
}

// New creates a Fetcher from the fetch configuration.
func New(cfg *config.FetchConfig, log logger.Interface) *Fetcher {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries
	retryCfg.IsRetryable = isRetryable

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   log,
		retryCfg: retryCfg,
		delayMin: cfg.DelayMin,
		delayMax: cfg.DelayMax,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get fetches the URL and returns the response body. Transient failures
// are retried a bounded number of times; afterwards the error is final
// and the caller is expected to skip the URL for this run.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, f.retryCfg, func() error {
		data, fetchErr := f.doRequest(ctx, url)
		if fetchErr != nil {
			return fetchErr
		}
		body = data
		return nil
	})

	// Politeness delay applies whether or not the fetch succeeded:
	// the remote host saw a request either way.
	f.sleep(ctx)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// doRequest performs a single GET with randomized browser headers.
func (f *Fetcher) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgents[f.rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: res.StatusCode, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// sleep pauses for a random duration within the configured delay range.
func (f *Fetcher) sleep(ctx context.Context) {
	delay := randomDelay(f.rand, f.delayMin, f.delayMax)
	if delay <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// isRetryable treats network errors and 5xx/429 responses as transient.
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return retry.DefaultIsRetryable(err)
}

// randomDelay picks a uniform random duration in [min, max].
func randomDelay(r *rand.Rand, minD, maxD time.Duration) time.Duration {
	if maxD <= minD {
		return minD
	}
	return minD + time.Duration(r.Int63n(int64(maxD-minD)))
}
