// Package imagefetch downloads listing images for embedding.
package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/retry"
)

// Defaults for Config zero values.
const (
	DefaultTimeout  = 20 * time.Second
	DefaultMaxBytes = 10 << 20
)

var errTooLarge = errors.New("image exceeds size limit")

// Config holds the fetcher settings.
type Config struct {
	Timeout    time.Duration
	MaxBytes   int64
	UserAgent  string
	Retry      retry.Policy
	HTTPClient *http.Client
}

// Fetcher downloads images with a size cap. Safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	policy    retry.Policy
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.Policy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second}
	}
	return &Fetcher{client: client, maxBytes: cfg.MaxBytes, userAgent: cfg.UserAgent, policy: cfg.Retry}
}

// Fetch returns the image body at url. Failures wrap domain.ErrExternalFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty image url: %w", domain.ErrInvalidInput)
	}
	var body []byte
	err := retry.Do(ctx, f.policy, func(ctx context.Context, _ int) error {
		data, err := f.fetch(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w: %w", url, domain.ErrExternalFetch, err)
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, retry.Permanent(fmt.Errorf("%w: %d bytes", errTooLarge, resp.ContentLength))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, retry.Permanent(errTooLarge)
	}
	if len(data) == 0 {
		return nil, retry.Permanent(errors.New("empty image body"))
	}
	return data, nil
}
