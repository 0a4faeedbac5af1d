package wrappers

import (
	"context"
	"net/http"
	"time"

	"github.com/samvad-hq/lnk/pkg/httpclient"
	"github.com/samvad-hq/lnk/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// RequestWrapper issues GET/POST/PUT calls against a fixed base URL, attaching the same
// headers and basic-auth credentials to every call.
//
// The URL of each call is baseURL + path, concatenated verbatim: no slash handling,
// no escaping. An empty path targets the bare base URL.
type RequestWrapper struct {
	baseURL  string
	user     string
	password string
	headers  map[string]string
	client   httpclient.Client
	log      Logger
}

// RequestOption customizes a RequestWrapper at construction time.
type RequestOption func(*RequestWrapper)

// WithClient injects the transport collaborator.
func WithClient(c httpclient.Client) RequestOption {
	return func(w *RequestWrapper) {
		if c != nil {
			w.client = c
		}
	}
}

// WithHeaders merges extra static headers into the derived header set.
func WithHeaders(headers map[string]string) RequestOption {
	return func(w *RequestWrapper) {
		for k, v := range headers {
			w.headers[k] = v
		}
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(log Logger) RequestOption {
	return func(w *RequestWrapper) { w.log = logging.Ensure(log) }
}

// NewRequestWrapper stores baseURL and credentials verbatim. It performs no connectivity check.
func NewRequestWrapper(baseURL, user, password string, opts ...RequestOption) *RequestWrapper {
	w := &RequestWrapper{
		baseURL:  baseURL,
		user:     user,
		password: password,
		headers:  map[string]string{"Content-Type": "application/json"},
		log:      logging.Nop{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		w.client = httpclient.NewRestyClient(defaultTimeout)
	}
	return w
}

// BaseURL returns the stored base URL.
func (w *RequestWrapper) BaseURL() string { return w.baseURL }

// Auth returns the basic-auth credentials sent with every call.
func (w *RequestWrapper) Auth() (user, password string) { return w.user, w.password }

// Headers returns a copy of the static headers sent with every call.
func (w *RequestWrapper) Headers() map[string]string {
	out := make(map[string]string, len(w.headers))
	for k, v := range w.headers {
		out[k] = v
	}
	return out
}

// Get issues GET baseURL+path.
func (w *RequestWrapper) Get(ctx context.Context, path string) (*ResponseWrapper, error) {
	return w.do(ctx, http.MethodGet, path, nil)
}

// Post issues POST baseURL+path with data as the body. data is not encoded here.
func (w *RequestWrapper) Post(ctx context.Context, path string, data any) (*ResponseWrapper, error) {
	return w.do(ctx, http.MethodPost, path, data)
}

// Put issues PUT baseURL+path with data as the body. data is not encoded here.
func (w *RequestWrapper) Put(ctx context.Context, path string, data any) (*ResponseWrapper, error) {
	return w.do(ctx, http.MethodPut, path, data)
}

func (w *RequestWrapper) do(ctx context.Context, method, path string, data any) (*ResponseWrapper, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url := w.baseURL + path

	resp, err := w.client.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     url,
		Headers: w.Headers(),
		Auth:    &httpclient.BasicAuth{User: w.user, Password: w.password},
		Body:    data,
	})
	if err != nil {
		w.log.WarnObj("api request failed", "api_request_error", map[string]any{
			"method": method,
			"url":    url,
			"error":  err.Error(),
		})
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	w.log.DebugObj("api request completed", "api_request", map[string]any{
		"method": method,
		"url":    url,
		"status": resp.StatusCode(),
	})
	return NewResponseWrapper(resp), nil
}
