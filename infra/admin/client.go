// Package admin is the client for the commerce platform's privileged Admin API.
//
// Every call goes through Client.Request, which sanitizes the outbound payload,
// retries rate-limited responses and normalizes every failure into a
// result.Result. Nothing in this package returns a Go error across its boundary.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/storefront/pkg/result"
	"github.com/amirasaad/storefront/pkg/sanitize"
	"github.com/cenkalti/backoff/v4"
)

const (
	defaultAPIVersion  = "2024-10"
	defaultTokenHeader = "X-Shopify-Access-Token"
	maxErrorBody       = 64 << 10
)

// Config holds the Admin API connection settings.
type Config struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	TokenHeader string
	Timeout     time.Duration
	MaxRetries  int
	RetryBase   time.Duration
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client talks to the Admin REST and GraphQL endpoints.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	sanitizer  sanitize.Func
	sleep      Sleeper
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSanitizer replaces the string sanitizer applied to outbound payloads.
func WithSanitizer(fn sanitize.Func) Option {
	return func(c *Client) { c.sanitizer = fn }
}

// WithSleeper replaces the wait used between rate-limit retries.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithBaseURL points the client at an explicit API root, e.g. a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/") + "/"); err == nil {
			c.baseURL = u
		}
	}
}

// New creates a Client for https://{shop}/admin/api/{version}/.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = defaultTokenHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sanitizer:  sanitize.ASCII,
		sleep:      sleepContext,
		logger:     logger.With("component", "admin"),
	}
	shop := strings.TrimSuffix(strings.TrimPrefix(cfg.ShopDomain, "https://"), "/")
	if shop != "" {
		c.baseURL, _ = url.Parse(fmt.Sprintf("https://%s/admin/api/%s/", shop, cfg.APIVersion))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Request sends one call to endpoint (e.g. "draft_orders/12" or
// "customers/search?query=email:a@b.c"). REST endpoints get the ".json" suffix;
// "graphql" is posted as is. HTTP 429 is retried up to MaxRetries times.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any) result.Result[json.RawMessage] {
	token := sanitize.Header(c.cfg.AccessToken)
	if token == "" || c.baseURL == nil {
		c.logger.Error("Admin API is not configured", "shop", c.cfg.ShopDomain, "has_token", token != "")
		return result.Fail[json.RawMessage](result.Error{
			Code:    result.CodeConfiguration,
			Message: "admin API credentials are not configured: set ADMIN_SHOP_DOMAIN and ADMIN_ACCESS_TOKEN",
		})
	}

	target, err := c.endpointURL(endpoint)
	if err != nil {
		return result.Failure[json.RawMessage](result.CodeValidation, fmt.Sprintf("invalid endpoint %q: %v", endpoint, err))
	}

	var payload []byte
	if body != nil {
		payload, err = c.encode(body)
		if err != nil {
			return result.Failure[json.RawMessage](result.CodeValidation, fmt.Sprintf("encode request body: %v", err))
		}
	}

	policy := c.retryPolicy()
	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, method, target, token, payload)
		if err != nil {
			c.logger.Warn("Admin API transport error", "method", method, "endpoint", endpoint, "error", err)
			return result.Failure[json.RawMessage](result.CodeTransport, fmt.Sprintf("request %s %s failed: %v", method, endpoint, err))
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return c.handle(resp, method, endpoint)
		}

		hint := retryAfter(resp.Header.Get("Retry-After"), time.Now())
		drain(resp)
		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			c.logger.Warn("Admin API rate limit retries exhausted", "endpoint", endpoint, "retries", attempt)
			return result.Fail[json.RawMessage](result.Error{
				Code:    result.CodeRateLimited,
				Status:  http.StatusTooManyRequests,
				Message: fmt.Sprintf("rate limited by the platform after %d retries", attempt),
			})
		}
		if hint > 0 {
			delay = hint
		}
		c.logger.Warn("Admin API rate limited, retrying",
			"endpoint", endpoint, "retry", attempt+1, "delay", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return result.Failure[json.RawMessage](result.CodeTransport, fmt.Sprintf("request %s %s cancelled: %v", method, endpoint, err))
		}
	}
}

// retryPolicy yields base, 2*base, 4*base ... for at most MaxRetries retries.
func (c *Client) retryPolicy() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.RetryBase
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = c.cfg.RetryBase << 20
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithMaxRetries(exp, uint64(c.cfg.MaxRetries))
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, token string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(c.cfg.TokenHeader, token)
	return c.httpClient.Do(req)
}

func (c *Client) handle(resp *http.Response, method, endpoint string) result.Result[json.RawMessage] {
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return result.Failure[json.RawMessage](result.CodeTransport, fmt.Sprintf("read response: %v", err))
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = []byte("{}")
		}
		return result.OK(json.RawMessage(raw))
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	errs := c.diagnose(resp.StatusCode, method, endpoint, raw)
	return result.Fail[json.RawMessage](errs...)
}

// diagnose turns a non-2xx response into errors an operator can act on.
func (c *Client) diagnose(status int, method, endpoint string, body []byte) []result.Error {
	platform := platformErrors(body)
	detail := ""
	if len(platform) > 0 {
		detail = ": " + platform[0].Error()
	}

	switch {
	case status == http.StatusUnauthorized:
		c.logger.Error("Admin API rejected credentials", "shop", c.cfg.ShopDomain, "endpoint", endpoint)
		return []result.Error{{
			Code:    result.CodeUnauthorized,
			Status:  status,
			Message: "authentication failed: the admin access token is missing, revoked or belongs to another shop" + detail,
		}}
	case status == http.StatusForbidden:
		c.logger.Error("Admin API denied access", "shop", c.cfg.ShopDomain, "endpoint", endpoint)
		return []result.Error{{
			Code:    result.CodeForbidden,
			Status:  status,
			Message: fmt.Sprintf("access denied for %s %s: the app is missing the permission scope this resource requires%s", method, endpoint, detail),
		}}
	case status == http.StatusNotFound:
		c.logger.Warn("Admin API resource not found", "endpoint", endpoint)
		return []result.Error{{
			Code:    result.CodeNotFound,
			Status:  status,
			Message: fmt.Sprintf("resource not found: %s does not exist on this shop or API version %s", endpoint, c.cfg.APIVersion),
		}}
	case status == http.StatusUnprocessableEntity && len(platform) > 0:
		for i := range platform {
			platform[i].Code = result.CodeValidation
			platform[i].Status = status
		}
		return platform
	case status >= 500:
		c.logger.Warn("Admin API upstream failure", "endpoint", endpoint, "status", status)
		return []result.Error{{
			Code:    result.CodeUpstream,
			Status:  status,
			Message: fmt.Sprintf("platform returned %d for %s %s%s", status, method, endpoint, detail),
		}}
	default:
		if len(platform) == 0 {
			platform = []result.Error{{Message: fmt.Sprintf("platform returned %d for %s %s", status, method, endpoint)}}
		}
		for i := range platform {
			platform[i].Code = result.CodeBusiness
			platform[i].Status = status
		}
		return platform
	}
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

// decode unmarshals a successful response into T.
func decode[T any](r result.Result[json.RawMessage], fn func(json.RawMessage) (T, error)) result.Result[T] {
	if r.Failed() {
		return result.Forward[T](r)
	}
	v, err := fn(r.Data)
	if err != nil {
		return result.Failure[T](result.CodeDecode, fmt.Sprintf("decode response: %v", err))
	}
	return result.Result[T]{Data: v, Warnings: r.Warnings}
}

// field decodes the object stored under key, e.g. {"draft_order": {...}}.
func field[T any](key string) func(json.RawMessage) (T, error) {
	return func(raw json.RawMessage) (T, error) {
		var envelope map[string]json.RawMessage
		var v T
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return v, err
		}
		inner, ok := envelope[key]
		if !ok {
			return v, errors.New("missing " + key)
		}
		err := json.Unmarshal(inner, &v)
		return v, err
	}
}
