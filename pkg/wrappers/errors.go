package wrappers

import "fmt"

// Format names a body interpretation offered by ResponseWrapper.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
)

// ParseError reports that a response body does not conform to the grammar of Format.
// Content is immutable, so the same body always yields the same ParseError.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s body: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError reports that the underlying HTTP call failed before a response was produced.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
