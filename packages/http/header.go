package http

import (
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/net/http/httpguts"
)

// BuildHeaders converts a name to value mapping into a header collection for
// a single request. Names are applied in sorted order so that the first
// invalid entry reported, and the winner among names differing only in case,
// are deterministic.
func BuildHeaders(headers map[string]string) (http.Header, error) {
	out := make(http.Header, len(headers))
	if len(headers) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := headers[name]
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, newError(KindInvalidHeader, "", "", fmt.Errorf("invalid header name %q", name))
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, newError(KindInvalidHeader, "", "", fmt.Errorf("invalid value for header %q", name))
		}
		out.Set(name, value)
	}

	return out, nil
}
