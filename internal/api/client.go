package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackwell-systems/bookctl/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every call end to end.
const DefaultTimeout = 30 * time.Second

// SessionStore is the slice of the session store the client needs: the
// bearer token to attach, and a way to drop the session on a 401.
type SessionStore interface {
	Token() (string, bool)
	Clear()
}

// Client is the single dispatch point for backend calls.
type Client struct {
	baseURL      string
	origin       string // scheme://host:port of baseURL, "" if unparsable
	http         *http.Client
	session      SessionStore
	logger       *zap.Logger
	interceptors []RequestInterceptor
	expiry       expiryHub
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithSessionStore supplies the token source and the store cleared on 401.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.session = s }
}

// WithLogger sets the dispatch logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l).Named("api") }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.Transport = &boundaryTransport{base: rt}
		}
	}
}

// WithRequestInterceptor appends a caller-supplied request interceptor.
// These run before the built-in stage.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, fn) }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &boundaryTransport{base: http.DefaultTransport},
		},
		logger: logging.Nop(),
	}
	c.origin = originOf(c.baseURL)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// originOf returns the lowercased scheme://host:port of raw, with the
// default port filled in, or "" when raw has no scheme or host.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return scheme + "://" + strings.ToLower(u.Hostname()) + ":" + port
}

// ownsURL reports whether u points at the backend. Only such requests
// carry the bearer token and only their 401s expire the session.
func (c *Client) ownsURL(u *url.URL) bool {
	return c.origin != "" && u != nil && originOf(u.String()) == c.origin
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// url builds an API URL from path segments.
func (c *Client) url(parts ...string) string {
	return c.baseURL + "/" + strings.Join(parts, "/")
}

// newRequest builds a request for body: nil, *FormData, or a value to be
// JSON encoded.
func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *FormData:
		ctx = withForm(ctx, b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if form, ok := body.(*FormData); ok {
		req.Body = form.reader()
		req.ContentLength = -1
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do runs the request stage, dispatches, and runs the response stage. On
// success the caller owns resp.Body; on failure err is always an *Error.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	for _, fn := range append(append([]RequestInterceptor{}, c.interceptors...), c.requestStage()...) {
		if err := fn(req); err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, configError(err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	log := c.logger.With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return nil, networkError(err)
	}
	log.Debug("response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	apiErr := statusError(resp)
	if apiErr.Kind == KindAuthExpired {
		if !c.ownsURL(req.URL) {
			apiErr.Kind, apiErr.Message = KindUnmapped, MsgForeignAuth
			return nil, apiErr
		}
		c.expire(req.Context())
	}
	return nil, apiErr
}

// expire clears the stored session and notifies subscribers.
func (c *Client) expire(ctx context.Context) {
	c.logger.Info("session expired, clearing stored credentials")
	if c.session != nil {
		c.session.Clear()
	}
	c.expiry.publish(context.WithoutCancel(ctx))
}

// doJSON sends body and decodes a JSON response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return configError(err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeBody(resp, out)
}

// decodeBody decodes a 2xx JSON body. An undecodable success body is
// reported as an unmapped response.
func decodeBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{
			Kind:       KindUnmapped,
			Message:    "unexpected response from server",
			StatusCode: resp.StatusCode,
			cause:      err,
		}
	}
	return nil
}
