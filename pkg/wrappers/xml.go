package wrappers

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Element is one node of a parsed XML document. Text holds the character data before the
// first child and Tail the character data after the element's end tag, up to the next sibling.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Tail     string
	Children []*Element
}

// Tag returns the local element name.
func (e *Element) Tag() string {
	if e == nil {
		return ""
	}
	return e.Name.Local
}

// Attr returns the value of the first attribute with the given local name.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the i-th child or nil when out of range.
func (e *Element) Child(i int) *Element {
	if e == nil || i < 0 || i >= len(e.Children) {
		return nil
	}
	return e.Children[i]
}

// Find returns the first descendant (depth-first, excluding e) with the given local name.
func (e *Element) Find(tag string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name.Local == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// InnerText concatenates all character data below e in document order.
func (e *Element) InnerText() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	e.writeText(&sb)
	return sb.String()
}

func (e *Element) writeText(sb *strings.Builder) {
	sb.WriteString(e.Text)
	for _, c := range e.Children {
		c.writeText(sb)
		sb.WriteString(c.Tail)
	}
}

var (
	errNoRoot        = errors.New("document has no root element")
	errMultipleRoots = errors.New("junk after document element")
	errUnclosed      = errors.New("unclosed element at end of document")
)

const (
	xmlnsPrefix = "xmlns"
	xmlPrefix   = "xml"
	xmlURL      = "http://www.w3.org/XML/1998/namespace"
)

// nsScope holds the prefix bindings visible inside one open element.
type nsScope struct {
	raw      xml.Name
	bindings map[string]string
}

func (s *nsScope) lookup(prefix string) (string, bool) {
	if prefix == xmlPrefix {
		return xmlURL, true
	}
	url, ok := s.bindings[prefix]
	return url, ok
}

// openScope applies the xmlns declarations of t on top of parent and checks that no
// attribute appears twice.
func openScope(parent *nsScope, t xml.StartElement) (*nsScope, error) {
	scope := &nsScope{raw: t.Name, bindings: parent.bindings}
	seen := make(map[xml.Name]struct{}, len(t.Attr))
	copied := false
	for _, a := range t.Attr {
		if _, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("duplicate attribute %s on <%s>", rawName(a.Name), rawName(t.Name))
		}
		seen[a.Name] = struct{}{}

		prefix, declares := "", false
		switch {
		case a.Name.Space == xmlnsPrefix:
			prefix, declares = a.Name.Local, true
			if prefix == xmlnsPrefix || (prefix == xmlPrefix) != (a.Value == xmlURL) {
				return nil, fmt.Errorf("reserved prefix %q bound to %q", prefix, a.Value)
			}
			if a.Value == "" {
				return nil, fmt.Errorf("prefix %q bound to empty namespace", prefix)
			}
		case a.Name.Space == "" && a.Name.Local == xmlnsPrefix:
			declares = true
		}
		if !declares {
			continue
		}
		if !copied {
			scope.bindings = make(map[string]string, len(parent.bindings)+1)
			for k, v := range parent.bindings {
				scope.bindings[k] = v
			}
			copied = true
		}
		scope.bindings[prefix] = a.Value
	}
	return scope, nil
}

// resolve maps the raw names of t to namespace URLs. Unprefixed attributes stay
// in no namespace and xmlns declarations are kept as written.
func (s *nsScope) resolve(t xml.StartElement) (xml.Name, []xml.Attr, error) {
	name := t.Name
	switch name.Space {
	case "":
		name.Space = s.bindings[""]
	case xmlnsPrefix:
		return name, nil, fmt.Errorf("element <%s> uses the reserved xmlns prefix", rawName(t.Name))
	default:
		url, ok := s.lookup(name.Space)
		if !ok {
			return name, nil, fmt.Errorf("unbound namespace prefix %q on <%s>", name.Space, rawName(t.Name))
		}
		name.Space = url
	}

	attrs := make([]xml.Attr, len(t.Attr))
	seen := make(map[xml.Name]struct{}, len(t.Attr))
	for i, a := range t.Attr {
		if a.Name.Space != "" && a.Name.Space != xmlnsPrefix {
			url, ok := s.lookup(a.Name.Space)
			if !ok {
				return name, nil, fmt.Errorf("unbound namespace prefix %q on attribute %s", a.Name.Space, rawName(a.Name))
			}
			a.Name.Space = url
		}
		if _, dup := seen[a.Name]; dup {
			return name, nil, fmt.Errorf("duplicate attribute {%s}%s on <%s>", a.Name.Space, a.Name.Local, rawName(t.Name))
		}
		seen[a.Name] = struct{}{}
		attrs[i] = a
	}
	return name, attrs, nil
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// parseXMLTree builds an element tree from a complete, namespace-well-formed XML document.
// Directives, comments and processing instructions are dropped.
func parseXMLTree(body []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root   *Element
		stack  []*Element
		scopes = []*nsScope{{}}
	)
	for {
		// RawToken keeps prefixes as written so bindings can be checked here.
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope, err := openScope(scopes[len(scopes)-1], t)
			if err != nil {
				return nil, err
			}
			name, attrs, err := scope.resolve(t)
			if err != nil {
				return nil, err
			}
			el := &Element{Name: name, Attrs: attrs}
			if len(stack) == 0 {
				if root != nil {
					return nil, errMultipleRoots
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			scopes = append(scopes, scope)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", rawName(t.Name))
			}
			if open := scopes[len(scopes)-1].raw; open != t.Name {
				return nil, fmt.Errorf("element <%s> closed by </%s>", rawName(open), rawName(t.Name))
			}
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if root != nil && len(bytes.TrimSpace(t)) > 0 {
					return nil, errMultipleRoots
				}
				continue
			}
			cur := stack[len(stack)-1]
			if n := len(cur.Children); n > 0 {
				cur.Children[n-1].Tail += string(t)
			} else {
				cur.Text += string(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, errUnclosed
	}
	if root == nil {
		return nil, errNoRoot
	}
	return root, nil
}
