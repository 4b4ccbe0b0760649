package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jonwraymond/clubcache/cache"
	"github.com/jonwraymond/clubcache/observe"
)

// Config configures the HTTP side of a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://club.example/api.
	BaseURL string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// RetryMax is the number of retries after the first attempt for
	// connection errors, 429 and 5xx responses.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	UserAgent string

	// WeatherTTL caches the weather report. Zero means 10 minutes.
	WeatherTTL time.Duration

	// FeedTTL caches external feeds. Zero means 30 minutes.
	FeedTTL time.Duration
}

// DefaultConfig returns the defaults used for zero Config fields.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 250 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		UserAgent:    "clubcache/1.0",
		WeatherTTL:   10 * time.Minute,
		FeedTTL:      30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = d.RetryWaitMin
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = d.RetryWaitMax
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.WeatherTTL <= 0 {
		c.WeatherTTL = d.WeatherTTL
	}
	if c.FeedTTL <= 0 {
		c.FeedTTL = d.FeedTTL
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for request failures and retry diagnostics.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.HTTPClient = hc
		}
	}
}

// WithClock overrides the time source used for session expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithToken starts the client with an admin session token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// Client talks to the club CMS API.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Public reads are served through the shared cache.Store.
//   - Admin calls require a session token and invalidate affected keys.
type Client struct {
	base   *url.URL
	cfg    Config
	http   *retryablehttp.Client
	store  *cache.Store
	logger observe.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
}

// New creates a Client reading through store.
func New(store *cache.Store, cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	if store == nil {
		store = cache.NewStore()
	}
	cfg = cfg.withDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.HTTPClient.Timeout = cfg.Timeout
	// Hand the last response back so its status can be classified.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		base:   base,
		cfg:    cfg,
		http:   rc,
		store:  store,
		logger: observe.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	rc.Logger = leveledLogger{logger: c.logger}
	return c, nil
}

// Store returns the cache the client reads through.
func (c *Client) Store() *cache.Store {
	return c.store
}

// request is one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
}

// do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(raw)
	}

	hreq, err := retryablehttp.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", req.method, req.path, err)
	}
	requestID := uuid.NewString()
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.cfg.UserAgent)
	hreq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		c.logger.Warn(ctx, "api request failed",
			observe.F("method", req.method),
			observe.F("path", req.path),
			observe.F("request_id", requestID),
			observe.F("error", err),
		)
		return transportError(err, req.method, req.path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp, req.method, req.path)
		c.logger.Warn(ctx, "api request rejected",
			observe.F("method", req.method),
			observe.F("path", req.path),
			observe.F("status", resp.StatusCode),
			observe.F("request_id", requestID),
		)
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal, "decode response", map[string]interface{}{
			"method": req.method,
			"path":   req.path,
		})
	}
	return nil
}

// leveledLogger adapts observe.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger observe.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) {
	l.logger.Error(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Info(msg string, kv ...interface{}) {
	l.logger.Info(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Debug(msg string, kv ...interface{}) {
	l.logger.Debug(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Warn(msg string, kv ...interface{}) {
	l.logger.Warn(context.Background(), msg, kvFields(kv)...)
}

func kvFields(kv []interface{}) []observe.Field {
	fields := make([]observe.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, observe.F(key, kv[i+1]))
	}
	return fields
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

// Ping checks that the API answers on its health endpoint. It bypasses the
// cache.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "health"}, nil)
}
