package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Agent is an HTTP client bound to the harness server. Paths are relative to
// the issuer.
type Agent struct {
	baseURL string
	client  *http.Client
}

func newAgent(baseURL string, client *http.Client) *Agent {
	return &Agent{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// RequestOption modifies an outgoing request.
type RequestOption func(*http.Request)

// WithBasicAuth sets HTTP basic credentials.
func WithBasicAuth(username, password string) RequestOption {
	return func(r *http.Request) {
		r.SetBasicAuth(username, password)
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// URL returns the absolute URL for path.
func (a *Agent) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.baseURL + path
}

// Get sends a GET request for path.
func (a *Agent) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return a.Do(ctx, http.MethodGet, path, nil, opts...)
}

// PostForm sends form as an application/x-www-form-urlencoded POST.
func (a *Agent) PostForm(ctx context.Context, path string, form url.Values, opts ...RequestOption) (*Response, error) {
	opts = append([]RequestOption{WithHeader("Content-Type", "application/x-www-form-urlencoded")}, opts...)
	return a.Do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), opts...)
}

// Do sends a request for path and reads the whole response.
func (a *Agent) Do(ctx context.Context, method, path string, body io.Reader, opts ...RequestOption) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.URL(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
