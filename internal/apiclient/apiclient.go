// Package apiclient talks to the remote backend over JSON HTTP.
//
// Response bodies are normalized before decoding: every object key is converted to
// lowerCamelCase, recursively, and a body that is itself a JSON-encoded string is
// unwrapped first.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
)

// DefaultTimeout bounds a single backend round trip.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnauthorized is matched by an *APIError with status 401.
	ErrUnauthorized = errors.New("backend rejected credentials")
	// ErrNotFound is matched by an *APIError with status 404.
	ErrNotFound = errors.New("backend resource not found")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is matches ErrUnauthorized and ErrNotFound by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Opts configures a Client.
type Opts struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Opts)

// WithBaseURL sets the backend root, e.g. https://api.example.com.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client is a backend client. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client. A base URL is required.
func New(opts ...Option) (*Client, error) {
	cfg := Opts{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL not set")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	slog.Debug("apiclient.New: client created", "baseURL", cfg.BaseURL, "hasToken", cfg.Token != "")
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
	}, nil
}

// Get fetches path and decodes the response into out. out may be nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends payload as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

// Patch sends payload as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPatch, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("apiclient request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		slog.Warn("apiclient non-2xx response", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}
	slog.Debug("apiclient request succeeded", "method", method, "path", path, "status", resp.StatusCode)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeCamelized(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeCamelized(data []byte, out any) error {
	v, err := decodeAny(data)
	if err != nil {
		return err
	}
	// Some endpoints return the JSON document wrapped in a string.
	if s, ok := v.(string); ok {
		if v, err = decodeAny([]byte(s)); err != nil {
			return err
		}
	}
	normalized, err := json.Marshal(CamelizeKeys(v))
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, out)
}

func decodeAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// CamelizeKeys returns a copy of v with every map key converted to lowerCamelCase.
// Slices are walked; other values are returned unchanged.
func CamelizeKeys(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CamelizeKeys(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[strcase.ToLowerCamel(k)] = CamelizeKeys(item)
		}
		return out
	default:
		return v
	}
}
