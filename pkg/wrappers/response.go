package wrappers

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/PuerkitoBio/goquery"
	json "github.com/goccy/go-json"
	"github.com/samvad-hq/lnk/pkg/httpclient"
)

// ResponseWrapper presents memoized JSON, XML and HTML views of one HTTP response body.
//
// The wrapped response is treated as immutable: each view is parsed at most once, on first
// access, and the outcome (value or ParseError) is returned unchanged on every later call.
// Views are guarded independently, so concurrent first access is safe.
type ResponseWrapper struct {
	resp httpclient.Response

	jsonOnce sync.Once
	jsonVal  any
	jsonErr  error

	xmlOnce sync.Once
	xmlRoot *Element
	xmlErr  error

	htmlOnce sync.Once
	htmlDoc  *goquery.Document
	htmlErr  error
}

// NewResponseWrapper stores a reference to resp. No parsing happens here.
func NewResponseWrapper(resp httpclient.Response) *ResponseWrapper {
	return &ResponseWrapper{resp: resp}
}

// Raw returns the wrapped transport response.
func (r *ResponseWrapper) Raw() httpclient.Response { return r.resp }

// Content returns the raw body bytes.
func (r *ResponseWrapper) Content() []byte {
	if r.resp == nil {
		return nil
	}
	return r.resp.Body()
}

// Text returns the body as a string.
func (r *ResponseWrapper) Text() string { return string(r.Content()) }

// StatusCode returns the HTTP status, or 0 for a detached wrapper.
func (r *ResponseWrapper) StatusCode() int {
	if r.resp == nil {
		return 0
	}
	return r.resp.StatusCode()
}

// Header returns the response headers.
func (r *ResponseWrapper) Header() http.Header {
	if r.resp == nil {
		return nil
	}
	return r.resp.Header()
}

// IsError reports a 4xx or 5xx status.
func (r *ResponseWrapper) IsError() bool { return r.StatusCode() >= http.StatusBadRequest }

// JSON decodes the body as JSON into maps, slices and scalars.
// Bodies outside the RFC 8259 grammar, such as numbers with leading zeros, are rejected.
func (r *ResponseWrapper) JSON() (any, error) {
	r.jsonOnce.Do(func() {
		body := r.Content()
		if err := checkJSON(body); err != nil {
			r.jsonErr = &ParseError{Format: FormatJSON, Err: err}
			return
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			r.jsonErr = &ParseError{Format: FormatJSON, Err: err}
			return
		}
		r.jsonVal = v
	})
	return r.jsonVal, r.jsonErr
}

// checkJSON runs the strict grammar scan go-json skips for number literals.
func checkJSON(body []byte) error {
	if stdjson.Valid(body) {
		return nil
	}
	var v any
	if err := stdjson.Unmarshal(body, &v); err != nil {
		return err
	}
	return errors.New("invalid JSON")
}

// XML parses the body as an XML document and returns its root element.
func (r *ResponseWrapper) XML() (*Element, error) {
	r.xmlOnce.Do(func() {
		root, err := parseXMLTree(r.Content())
		if err != nil {
			r.xmlErr = &ParseError{Format: FormatXML, Err: err}
			return
		}
		r.xmlRoot = root
	})
	return r.xmlRoot, r.xmlErr
}

// HTML parses the body with an HTML5 parser. Unlike XML it tolerates unbalanced markup.
func (r *ResponseWrapper) HTML() (*goquery.Document, error) {
	r.htmlOnce.Do(func() {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Content()))
		if err != nil {
			r.htmlErr = &ParseError{Format: FormatHTML, Err: err}
			return
		}
		r.htmlDoc = doc
	})
	return r.htmlDoc, r.htmlErr
}
