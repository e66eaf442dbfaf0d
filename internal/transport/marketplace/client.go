// Package marketplace fetches search result pages from secondhand marketplaces.
package marketplace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/findfit/internal/domain"
	"github.com/kailas-cloud/findfit/internal/metrics"
	"github.com/kailas-cloud/findfit/internal/retry"
)

const (
	// DefaultTimeout bounds one HTTP exchange.
	DefaultTimeout = 15 * time.Second
	// DefaultMinDelay is the minimum spacing between requests to one marketplace.
	DefaultMinDelay = 1500 * time.Millisecond

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	maxBodyBytes     = 8 << 20
)

// StatusError is a non-200 marketplace response.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("marketplace responded %d (endpoint: %s)", e.StatusCode, e.Endpoint)
}

// Client performs polite, retried GETs against one marketplace. Safe for concurrent use.
type Client struct {
	source     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	logger     *zap.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMinDelay spaces requests at least d apart. Zero disables the limit.
func WithMinDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetry sets the backoff policy for 429 and 5xx responses.
func WithRetry(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets a logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func newClient(source, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		source:     source,
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultMinDelay), 1),
		policy: retry.Policy{
			MaxAttempts: 4,
			BaseDelay:   5 * time.Second,
			MaxDelay:    40 * time.Second,
			Jitter:      0.2,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("source", source))
	return c
}

// get fetches path with params. 429 and 5xx are retried with backoff; any other
// non-200 status fails at once. Both end in domain.ErrExternalFetch.
func (c *Client) get(ctx context.Context, path string, params url.Values, accept string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body []byte
	err := retry.Do(ctx, c.policy, func(ctx context.Context, _ int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		data, err := c.do(ctx, endpoint, accept)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("Marketplace request failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		metrics.IngestFetchErrorsTotal.WithLabelValues(c.source).Inc()
		return nil, fmt.Errorf("%s %s: %w: %w", c.source, path, domain.ErrExternalFetch, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	c.logger.Debug("Marketplace request", zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, statusErr
		}
		return nil, retry.Permanent(statusErr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
