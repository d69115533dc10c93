package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// Client talks to a maker-checker server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// actor is sent with every request in the actor headers
	actor core.Actor
}

type Option func(*Client)

// WithActor makes the client act as the given actor.
func WithActor(actor core.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

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

type urlBuilder struct {
	base  string
	path  string
	query url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{
		base:  c.baseURL,
		query: url.Values{},
	}
}

func (u *urlBuilder) setPath(path string) *urlBuilder {
	u.path = path
	return u
}

// setPathParam replaces the {name} wildcard of the route.
func (u *urlBuilder) setPathParam(name, value string) *urlBuilder {
	u.path = strings.ReplaceAll(u.path, "{"+name+"}", url.PathEscape(value))
	return u
}

func (u *urlBuilder) addQueryParam(key string, value any) *urlBuilder {
	u.query.Add(key, fmt.Sprint(value))
	return u
}

func (u *urlBuilder) build() string {
	s := u.base + u.path
	if len(u.query) > 0 {
		s += "?" + u.query.Encode()
	}
	return s
}
