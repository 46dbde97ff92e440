package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a remote Tokenbridge server.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

type Option func(*Client)

// WithAuthToken sets the bearer token used for admin endpoints.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// urlBuilder assembles request URLs from route constants with {param}
// placeholders and query parameters.
type urlBuilder struct {
	base   string
	path   string
	params map[string]string
	query  url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{
		base:   c.baseURL,
		params: make(map[string]string),
		query:  url.Values{},
	}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

func (b *urlBuilder) setPathParam(key, value string) *urlBuilder {
	b.params[key] = value
	return b
}

func (b *urlBuilder) addQueryParam(key string, value any) *urlBuilder {
	b.query.Add(key, fmt.Sprint(value))
	return b
}

func (b *urlBuilder) build() string {
	path := b.path
	for key, value := range b.params {
		path = strings.ReplaceAll(path, "{"+key+"}", url.PathEscape(value))
	}
	out := b.base + path
	if len(b.query) > 0 {
		out += "?" + b.query.Encode()
	}
	return out
}
