package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Method is one of the HTTP methods the client dispatches.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ParseMethod returns the Method for s, ignoring case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported method: %s", s)
	}
}

type bodyKind int

const (
	bodyText bodyKind = iota
	bodyJSON
)

// Body is either raw text or a value that is marshalled to JSON when the
// request is sent. The zero value is an empty text body.
type Body struct {
	kind  bodyKind
	text  string
	value any
}

// TextBody returns a body sent (or, for GET, parsed) verbatim.
func TextBody(s string) Body {
	return Body{kind: bodyText, text: s}
}

// JSONBody returns a body holding v, marshalled with encoding/json.
func JSONBody(v any) Body {
	return Body{kind: bodyJSON, value: v}
}

// IsJSON reports whether the body was built with JSONBody.
func (b Body) IsJSON() bool {
	return b.kind == bodyJSON
}

// String renders the body as the text that goes on the wire.
func (b Body) String() (string, error) {
	if b.kind == bodyText {
		return b.text, nil
	}
	data, err := json.Marshal(b.value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal body: %w", err)
	}
	return string(data), nil
}

type headerKind int

const (
	headerMap headerKind = iota
	headerText
	headerJSON
)

// HeaderSource describes the one-time headers of a request: a plain map,
// "Name: value" lines, or a flat JSON object.
type HeaderSource struct {
	kind headerKind
	m    map[string]string
	raw  string
}

// MapHeaders uses m as is.
func MapHeaders(m map[string]string) HeaderSource {
	return HeaderSource{kind: headerMap, m: m}
}

// TextHeaders parses one "Name: value" header per line. Blank lines are
// ignored.
func TextHeaders(s string) HeaderSource {
	return HeaderSource{kind: headerText, raw: s}
}

// JSONHeaders parses a flat JSON object of header names to values. Values
// that are not strings use their JSON text.
func JSONHeaders(s string) HeaderSource {
	return HeaderSource{kind: headerJSON, raw: s}
}

// Map resolves the source into a name to value mapping. Malformed input is
// reported as ErrInvalidHeader.
func (h HeaderSource) Map() (map[string]string, error) {
	switch h.kind {
	case headerText:
		return parseHeaderLines(h.raw)
	case headerJSON:
		return parseHeaderJSON(h.raw)
	default:
		return h.m, nil
	}
}

func parseHeaderLines(s string) (map[string]string, error) {
	out := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, newError(KindInvalidHeader, "", "", fmt.Errorf("malformed header line %q", line))
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, newError(KindInvalidHeader, "", "", err)
	}
	return out, nil
}

func parseHeaderJSON(s string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if !gjson.Valid(s) {
		return nil, newError(KindInvalidHeader, "", "", fmt.Errorf("headers are not valid JSON"))
	}
	result := gjson.Parse(s)
	if !result.IsObject() {
		return nil, newError(KindInvalidHeader, "", "", fmt.Errorf("headers must be a JSON object"))
	}
	result.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			out[key.String()] = value.Str
		} else {
			out[key.String()] = value.Raw
		}
		return true
	})
	return out, nil
}

// Request describes one call. It is built per call and never shared.
type Request struct {
	Method  Method
	URL     string
	Cookie  string
	Headers HeaderSource
	Body    Body
}

// NewRequest returns a request with a text body and map headers.
func NewRequest(method Method, rawURL, cookie string, headers map[string]string, body string) *Request {
	return &Request{
		Method:  method,
		URL:     rawURL,
		Cookie:  cookie,
		Headers: MapHeaders(headers),
		Body:    TextBody(body),
	}
}
