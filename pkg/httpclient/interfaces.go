package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// BasicAuth is a username/password pair sent with a request.
type BasicAuth struct {
	User     string
	Password string
}

// Request describes a single outbound call. Body is passed to the transport untouched.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Auth    *BasicAuth
	Body    any
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
