// Package client provides the HTTP core used to talk to the dashboard REST
// API: bearer authentication, request ids, retries with backoff, error
// classification, and the optional Redis-backed response cache and
// rate limit tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/admin-dashboard/pkg/cache"
	"github.com/Sternrassler/admin-dashboard/pkg/logging"
	"github.com/Sternrassler/admin-dashboard/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_requests_total",
		Help: "Total API requests by route and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_api_request_duration_seconds",
		Help:    "API request duration in seconds by route",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_api_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// HeaderRequestID is set on every outgoing request.
const HeaderRequestID = "X-Request-ID"

// maxErrorBody bounds how much of an error answer is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for outgoing requests.
// An empty token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

type routeKey struct{}

// WithRoute labels requests made with ctx for metrics and logs
// (e.g. "employees.list"). Without a label the URL path is used.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(req *http.Request) string {
	if route, ok := req.Context().Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return req.URL.Path
}

// Client is the API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the REST API, e.g. "http://localhost:3000".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Tokens supplies the bearer token. May be set later with SetTokenSource.
	Tokens TokenSource

	// Redis enables the response cache and shared rate limit state.
	// Nil disables both.
	Redis *redis.Client

	// Thresholds for the rate limit tracker.
	Thresholds ratelimit.Thresholds

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry applies to idempotent methods only.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		Thresholds: ratelimit.DefaultThresholds(),
		Timeout:    15 * time.Second,
		Retry:      DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Thresholds == (ratelimit.Thresholds{}) {
		cfg.Thresholds = ratelimit.DefaultThresholds()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := logging.NewLogger("api-client")

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		config:     cfg,
		logger:     logger,
		tokens:     cfg.Tokens,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger, cfg.Thresholds)
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// SetTokenSource replaces the bearer token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// Do performs an HTTP request with rate limiting, caching, retries and error
// classification.
//
// Network failures, 5xx and 429 answers are returned as errors (after
// retries for idempotent methods). Other 4xx answers are returned as the
// response for the caller to interpret.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	route := routeFrom(req)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(route).Observe(time.Since(startTime).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, err
		case err != nil:
			c.logger.Warn().Err(err).Msg("Rate limit check failed, sending request anyway")
		case !allowed:
			c.logger.Warn().Str("route", route).Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(route, "rate_limited").Inc()
			return nil, &APIError{
				StatusCode: http.StatusTooManyRequests,
				ErrorClass: ErrorClassRateLimit,
				Message:    "request blocked: upstream rate limit exhausted",
			}
		}
	}

	token := c.token()
	scope := cache.ScopeForToken(token)

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	cacheable := c.cache != nil && req.Method == http.MethodGet
	cacheKey := cache.CacheKey{
		Scope:       scope,
		Endpoint:    req.URL.Path,
		QueryParams: req.URL.Query(),
	}

	var cachedEntry *cache.CacheEntry
	if cacheable {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("route", route).Msg("Cache get error")
		}
		if cache.ShouldMakeConditionalRequest(entry) {
			cachedEntry = entry
			cache.AddConditionalHeaders(req, entry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("route", route).
				Str("etag", entry.ETag).
				Msg("Making conditional request")
		}
	}

	retry := c.config.Retry
	if !isIdempotent(req.Method) {
		retry = NoRetry()
	}

	c.logger.Debug().
		Str("route", route).
		Str("method", req.Method).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Msg("Executing API request")

	var resp *http.Response
	err := retryWithBackoff(ctx, c.logger, retry, func(attempt int) (ErrorClass, error) {
		attemptReq, err := cloneForAttempt(req, attempt)
		if err != nil {
			return "", err
		}

		r, err := c.httpClient.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Error().Err(err).Str("route", route).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(route, "network_error").Inc()
			return ErrorClassNetwork, &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        err,
			}
		}

		c.trackRateLimit(ctx, r.Header)
		requestsTotal.WithLabelValues(route, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode < 400 {
			resp = r
			return "", nil
		}

		errClass := ClassifyStatus(r.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("route", route).
			Int("status", r.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		if !shouldRetry(errClass) {
			resp = r
			return "", nil
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
		r.Body.Close()
		apiErr := newStatusError(r.StatusCode, body)
		if wait, ok := parseRetryAfter(r.Header); ok {
			return errClass, retryAfterError{error: apiErr, wait: wait}
		}
		return errClass, apiErr
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("route", route).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		c.storeInCache(ctx, cacheKey, resp)
	}

	if c.cache != nil && !isSafe(req.Method) && resp.StatusCode < 300 {
		if n, err := c.cache.InvalidateScope(ctx, scope); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to invalidate cache after write")
		} else if n > 0 {
			c.logger.Debug().Int("entries", n).Str("route", route).Msg("Invalidated cached lists")
		}
	}

	return resp, nil
}

func (c *Client) storeInCache(ctx context.Context, key cache.CacheKey, resp *http.Response) {
	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if !cache.ShouldMakeConditionalRequest(entry) || entry.TTL() <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().
		Str("endpoint", key.Endpoint).
		Dur("ttl", entry.TTL()).
		Msg("Cached response")
}

func (c *Client) trackRateLimit(ctx context.Context, h http.Header) {
	if c.rateLimiter == nil {
		return
	}
	if err := c.rateLimiter.UpdateFromHeaders(ctx, h); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}
}

// cloneForAttempt returns the request to send for the given attempt.
// Later attempts get a fresh body from GetBody.
func cloneForAttempt(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	r := req.Clone(req.Context())
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, fmt.Errorf("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}

func parseRetryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get(ratelimit.HeaderRetryAfter)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func isSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// NewRequest builds a request for path (relative to the base URL) with an
// optional query and JSON body.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// DoJSON sends a JSON request and decodes a JSON answer into out (if non-nil).
// Any status >= 400 is returned as an *APIError.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req, err := c.NewRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(resp.StatusCode, body)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Get performs a GET request to an API path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, or nil without Redis (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
