// Package http is a small request facade over the standard library client.
//
// A call takes a method, a URL, a cookie string, a header mapping and a body
// and returns the response body as text:
//   - The URL is parsed first; malformed URLs fail before any I/O
//   - Cookies ("a=1; b=2") go into a fresh jar scoped to the URL
//   - Headers are validated and applied to that one request only
//   - GET bodies are JSON objects turned into query parameters
//   - POST, PUT and DELETE bodies are sent verbatim
//   - Chunked responses are drained chunk by chunk and reassembled
//
// Every call builds its own client, so calls never share cookies. Failures
// are *RequestError values that match ErrInvalidURL, ErrInvalidHeader,
// ErrInvalidQueryPayload, ErrNetwork or ErrDecode with errors.Is.
package http
