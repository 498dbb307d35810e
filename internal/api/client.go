// Package api is the typed client for the trip-planning backend. Every
// method performs one request, checks the response shape and returns a
// classified *core.Error on failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"travelapp/internal/cache"
	"travelapp/internal/core"
	applog "travelapp/internal/log"
)

const (
	defaultTimeout            = 15 * time.Second
	defaultSubLocationTimeout = 3 * time.Second
	defaultPhotoMaxWidth      = 400
	maxResponseBytes          = 4 << 20

	headerRequestID = "X-Request-ID"
)

// User-facing fallback messages.
const (
	msgUnreachable    = "Unable to reach the server. Please check your connection."
	msgTimeout        = "The request timed out. Please try again."
	msgUnexpected     = "Unexpected response from server."
	msgNotLoggedIn    = "You need to log in first."
	msgSessionExpired = "Your session has expired. Please log in again."
	msgNotFound       = "The requested item was not found."
)

// TokenSource yields the bearer token of the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL            string
	Timeout            time.Duration
	SubLocationTimeout time.Duration
	PhotoMaxWidth      int
	Tokens             TokenSource
	Logger             *applog.Logger
	HTTPClient         *http.Client
	Registerer         prometheus.Registerer
	CacheSize          int
	CacheTTL           time.Duration
}

type Client struct {
	baseURL       string
	http          *http.Client
	subTimeout    time.Duration
	photoMaxWidth int
	tokens        TokenSource
	logger        *applog.Logger
	metrics       *metrics

	searchCache *cache.LRUCache[[]core.Place]
	photoCache  *cache.LRUCache[string]
	inflight    singleflight.Group
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	subTimeout := opts.SubLocationTimeout
	if subTimeout <= 0 {
		subTimeout = defaultSubLocationTimeout
	}
	maxWidth := opts.PhotoMaxWidth
	if maxWidth <= 0 {
		maxWidth = defaultPhotoMaxWidth
	}
	size, ttl := opts.CacheSize, opts.CacheTTL
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:       base,
		http:          httpClient,
		subTimeout:    subTimeout,
		photoMaxWidth: maxWidth,
		tokens:        opts.Tokens,
		logger:        logger.WithComponent(applog.ComponentAPI),
		metrics:       m,
		searchCache:   cache.NewLRUCache[[]core.Place](size, ttl),
		photoCache:    cache.NewLRUCache[string](size, ttl),
	}, nil
}

// RegisterCaches hands the lookup caches to a cleanup manager.
func (c *Client) RegisterCaches(m *cache.Manager) {
	m.Register(c.searchCache)
	m.Register(c.photoCache)
}

// CacheStats reports the search and photo cache counters.
func (c *Client) CacheStats() (search, photo cache.Stats) {
	return c.searchCache.Stats(), c.photoCache.Stats()
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	bearer bool
	// failKind classifies non-2xx responses; ErrTransport when empty.
	failKind    core.ErrorKind
	failMessage string
}

// do sends r and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	requestID := uuid.NewString()
	ctx = applog.WithRequestID(ctx, requestID)

	var token string
	if r.bearer {
		t, err := c.bearerToken(ctx, r.op)
		if err != nil {
			return nil, err
		}
		token = t
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var payload io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, c.fail(ctx, r, 0, 0, core.NewError(core.ErrValidation, r.op, "The request could not be encoded.", err))
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return nil, c.fail(ctx, r, 0, 0, core.NewError(core.ErrTransport, r.op, msgUnreachable, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, c.fail(ctx, r, 0, elapsed, transportError(r.op, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(ctx, r, resp.StatusCode, elapsed, transportError(r.op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(ctx, r, resp.StatusCode, elapsed, statusError(r, resp.StatusCode, body))
	}

	c.metrics.observe(r.op, "ok", elapsed)
	c.logger.DebugContext(ctx, "API request completed",
		applog.NewFields().
			WithRequestID(requestID).
			WithOperation(r.op).
			WithHTTP(r.method, r.path, resp.StatusCode, elapsed.Milliseconds()).
			ToSlice()...)
	return body, nil
}

func (c *Client) bearerToken(ctx context.Context, op string) (string, error) {
	if c.tokens == nil {
		return "", c.logFailure(ctx, op, core.NewError(core.ErrAuth, op, msgNotLoggedIn, nil))
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		var ce *core.Error
		if errors.As(err, &ce) {
			return "", c.logFailure(ctx, op, core.NewError(ce.Kind, op, ce.Message, err))
		}
		return "", c.logFailure(ctx, op, core.NewError(core.ErrAuth, op, msgNotLoggedIn, err))
	}
	if strings.TrimSpace(token) == "" {
		return "", c.logFailure(ctx, op, core.NewError(core.ErrAuth, op, msgNotLoggedIn, nil))
	}
	return token, nil
}

// fail records metrics and logs err at the boundary before returning it.
func (c *Client) fail(ctx context.Context, r request, status int, elapsed time.Duration, err *core.Error) error {
	c.metrics.observe(r.op, string(err.Kind), elapsed)
	c.logger.ErrorContext(ctx, "API request failed",
		applog.NewFields().
			WithRequestID(applog.RequestIDFromContext(ctx)).
			WithOperation(r.op).
			WithHTTP(r.method, r.path, status, elapsed.Milliseconds()).
			WithError(err).
			ToSlice()...)
	return err
}

func (c *Client) logFailure(ctx context.Context, op string, err *core.Error) error {
	c.metrics.observe(op, string(err.Kind), 0)
	c.logger.WarnContext(ctx, "API request rejected before sending",
		applog.FieldOperation, op,
		applog.FieldErrorKind, string(err.Kind),
		applog.FieldError, err.Error())
	return err
}

// decode unmarshals body into out, classifying a mismatch as ErrFormat.
func (c *Client) decode(ctx context.Context, op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		ce := core.NewError(core.ErrFormat, op, msgUnexpected, err)
		c.metrics.observe(op, string(ce.Kind), 0)
		c.logger.ErrorContext(ctx, "API response did not match the expected shape",
			applog.FieldOperation, op,
			applog.FieldError, err.Error())
		return ce
	}
	return nil
}

func (c *Client) formatError(ctx context.Context, op string, cause error) error {
	ce := core.NewError(core.ErrFormat, op, msgUnexpected, cause)
	c.metrics.observe(op, string(ce.Kind), 0)
	c.logger.ErrorContext(ctx, "API response did not match the expected shape",
		applog.FieldOperation, op,
		applog.FieldError, cause.Error())
	return ce
}

func transportError(op string, err error) *core.Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return core.NewError(core.ErrTimeout, op, msgTimeout, err)
	}
	return core.NewError(core.ErrTransport, op, msgUnreachable, err)
}

func statusError(r request, status int, body []byte) *core.Error {
	cause := fmt.Errorf("unexpected status %d", status)
	msg := serverMessage(body)

	switch {
	case r.bearer && status == http.StatusUnauthorized:
		return core.NewError(core.ErrSessionExpired, r.op, msgSessionExpired, cause)
	case r.method == http.MethodGet && status == http.StatusNotFound:
		return core.NewError(core.ErrNotFound, r.op, firstNonEmpty(msg, msgNotFound), cause)
	}

	kind := r.failKind
	if kind == "" {
		kind = core.ErrTransport
	}
	fallback := r.failMessage
	if fallback == "" {
		fallback = msgUnreachable
	}
	return core.NewError(kind, r.op, firstNonEmpty(msg, fallback), cause)
}

// serverMessage extracts {"message": "..."} or {"error": "..."} from an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{payload.Message, payload.Error} {
		var s string
		if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// unwrap returns the value under the first present key of a JSON object
// body, or body itself when none is present.
func unwrap(body []byte, keys ...string) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return body
}

func isJSONArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func pathID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
