package query

import (
	"errors"
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrInvalidJSON is returned when the payload is not valid JSON.
var ErrInvalidJSON = errors.New("payload is not valid JSON")

// Pair is a single query parameter.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered list of query parameters.
type Pairs []Pair

// Encode parses data as JSON and returns one pair per top-level key of the
// object, in document order. An empty string yields no pairs without being
// parsed. Valid JSON that is not an object (an array, a scalar) yields no
// pairs. When a key repeats, the last value wins and keeps the position of
// the first occurrence. String values are used unquoted; any other value
// uses its compacted JSON source text, so numbers keep their written form
// (1e2 stays 1e2).
func Encode(data string) (Pairs, error) {
	if data == "" {
		return nil, nil
	}

	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, truncate(data, 64))
	}

	result := gjson.Parse(data)
	if !result.IsObject() {
		return nil, nil
	}

	var pairs Pairs
	index := make(map[string]int)
	result.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		v := valueString(value)
		if i, ok := index[k]; ok {
			pairs[i].Value = v
			return true
		}
		index[k] = len(pairs)
		pairs = append(pairs, Pair{Key: k, Value: v})
		return true
	})

	return pairs, nil
}

func valueString(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return string(pretty.Ugly([]byte(v.Raw)))
}

// Encode renders the pairs as an application/x-www-form-urlencoded query
// string, keeping their order.
func (p Pairs) Encode() string {
	var b strings.Builder
	for i, pair := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(neturl.QueryEscape(pair.Key))
		b.WriteByte('=')
		b.WriteString(neturl.QueryEscape(pair.Value))
	}
	return b.String()
}

// AppendTo appends the pairs to the query of u, after any parameters u
// already carries.
func (p Pairs) AppendTo(u *neturl.URL) {
	if len(p) == 0 {
		return
	}
	encoded := p.Encode()
	if u.RawQuery == "" {
		u.RawQuery = encoded
		return
	}
	u.RawQuery += "&" + encoded
}

// Get returns the value of the first pair named key.
func (p Pairs) Get(key string) (string, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
