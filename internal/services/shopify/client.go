package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"productpager/internal/catalog"
	"productpager/internal/logger"
	"productpager/internal/metrics"
)

const (
	DefaultAPIVersion = "2024-10"
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 2
	defaultBackoff    = 250 * time.Millisecond
)

// Client talks to the Admin GraphQL API of a single shop.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	endpoint    string
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration
	cb          *gobreaker.CircuitBreaker
	logger      *logger.Logger
}

type Option func(*Client)

// WithEndpoint overrides the GraphQL URL derived from the shop domain.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets how many times a transient failure is retried and the
// initial backoff, which doubles on every attempt.
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

func NewClient(shopDomain, accessToken string, logger *logger.Logger, opts ...Option) *Client {
	c := &Client{
		shopDomain:  NormalizeShopDomain(shopDomain),
		accessToken: accessToken,
		apiVersion:  DefaultAPIVersion,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: defaultRetries,
		backoff:    defaultBackoff,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.shopDomain,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A revoked token or a caller giving up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, catalog.ErrAuth) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerTransitions.WithLabelValues(to.String()).Inc()
			logger.Warn("Circuit breaker for %s changed from %s to %s", name, from, to)
		},
	})

	return c
}

func (c *Client) ShopDomain() string {
	return c.shopDomain
}

// retryable marks a failure worth another attempt.
type retryable struct {
	err error
}

func (r *retryable) Error() string { return r.err.Error() }
func (r *retryable) Unwrap() error { return r.err }

// Do posts a GraphQL query and decodes the data payload into out.
// Authentication failures are returned as catalog.ErrAuth; everything else
// that goes wrong is a *catalog.FetchError.
func (c *Client) Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		backoff := c.backoff
		var lastErr error
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if attempt > 0 {
				metrics.UpstreamRetries.Inc()
				c.logger.Info("Retrying GraphQL request to %s (attempt %d/%d): %v", c.shopDomain, attempt, c.maxRetries, lastErr)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
					backoff *= 2
				}
			}

			err := c.post(ctx, body, out)
			if err == nil {
				return nil, nil
			}
			var r *retryable
			if !errors.As(err, &r) {
				return nil, err
			}
			lastErr = r.err
		}
		return nil, lastErr
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &catalog.FetchError{Op: "graphql", StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	return catalog.AsFetchError("graphql", err)
}

func (c *Client) post(ctx context.Context, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &catalog.FetchError{Op: "graphql", Timeout: errors.Is(ctxErr, context.DeadlineExceeded), Err: ctxErr}
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return &retryable{err: &catalog.FetchError{Op: "graphql", Timeout: true, Err: err}}
		}
		return &retryable{err: &catalog.FetchError{Op: "graphql", Err: fmt.Errorf("failed to make request: %w", err)}}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return catalog.ErrAuth
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &retryable{err: &catalog.FetchError{Op: "graphql", StatusCode: resp.StatusCode, Err: fmt.Errorf("API request failed: %s", msg)}}
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &catalog.FetchError{Op: "graphql", StatusCode: resp.StatusCode, Err: fmt.Errorf("API request failed: %s", msg)}
	}

	var gqlResp GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return &catalog.FetchError{Op: "graphql", Err: fmt.Errorf("%w: failed to decode response: %v", catalog.ErrMalformedResponse, err)}
	}

	if len(gqlResp.Errors) > 0 {
		switch {
		case gqlResp.Errors.Unauthorized():
			return catalog.ErrAuth
		case gqlResp.Errors.Throttled():
			return &retryable{err: &catalog.FetchError{Op: "graphql", StatusCode: http.StatusTooManyRequests, Err: gqlResp.Errors}}
		default:
			return &catalog.FetchError{Op: "graphql", Err: gqlResp.Errors}
		}
	}

	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return &catalog.FetchError{Op: "graphql", Err: fmt.Errorf("%w: missing data", catalog.ErrMalformedResponse)}
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return &catalog.FetchError{Op: "graphql", Err: fmt.Errorf("%w: %v", catalog.ErrMalformedResponse, err)}
	}

	return nil
}
