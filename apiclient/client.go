// Package apiclient issues authenticated calls to the payment backend.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	rest    *resty.Client
	metrics *metrics.Metrics

	mu     sync.RWMutex
	tokens oauth2.TokenSource
}

type options struct {
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	tokens     oauth2.TokenSource
}

type Option func(*options)

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the underlying transport, e.g. an httptest server client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) { o.tokens = ts }
}

func New(baseURL string, opts ...Option) *Client {
	o := options{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	rc := resty.New()
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")

	return &Client{rest: rc, metrics: o.metrics, tokens: o.tokens}
}

// UseTokenSource sets the bearer token source after construction.
func (c *Client) UseTokenSource(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// Do sends a JSON request and decodes the success payload into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := c.execute(req, method, path)
	if err != nil {
		return StatusOf(err), err
	}
	if err := decodePayload(resp.Body(), out); err != nil {
		return resp.StatusCode(), &Error{Status: resp.StatusCode(), Err: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return resp.StatusCode(), nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, http.MethodPost, path, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, http.MethodPut, path, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Upload posts a single file as multipart form data.
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	req := c.request(ctx).SetFileReader(field, filename, r)
	resp, err := c.execute(req, http.MethodPost, path)
	if err != nil {
		return err
	}
	return decodePayload(resp.Body(), out)
}

// Download fetches a binary resource such as a QR image.
func (c *Client) Download(ctx context.Context, path string) ([]byte, string, error) {
	req := c.request(ctx).SetHeader("Accept", "image/*")
	resp, err := c.execute(req, http.MethodGet, path)
	if err != nil {
		return nil, "", err
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

type tokenKey struct{}

// ContextWithToken makes calls using ctx authenticate with tok instead of the client's token source.
func ContextWithToken(ctx context.Context, tok *oauth2.Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rest.R().SetContext(ctx)

	if tok, ok := ctx.Value(tokenKey{}).(*oauth2.Token); ok && tok != nil && tok.AccessToken != "" {
		return req.SetAuthScheme(tok.Type()).SetAuthToken(tok.AccessToken)
	}

	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return req
	}
	tok, err := ts.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return req
	}
	return req.SetAuthScheme(tok.Type()).SetAuthToken(tok.AccessToken)
}

func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.metrics.RecordAPIRequest(method, 0, time.Since(start).Seconds())
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, &Error{Err: err}
	}
	c.metrics.RecordAPIRequest(method, resp.StatusCode(), time.Since(start).Seconds())
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode()).Msg("backend rejected request")
		return nil, newStatusError(resp.StatusCode(), resp.Body())
	}
	return resp, nil
}
