package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"
)

// chunkBufferSize is the read size used while draining a chunked body.
const chunkBufferSize = 32 * 1024

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Text       string
	// Cookies holds the cookies set by the final response.
	Cookies  []*http.Cookie
	URL      *neturl.URL
	Chunked  bool
	Duration time.Duration
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

// Get looks up a gjson path in the response text.
func (r *Response) Get(path string) gjson.Result {
	return gjson.Get(r.Text, path)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// IsChunked reports whether resp arrived with chunked transfer encoding.
func IsChunked(resp *http.Response) bool {
	for _, te := range resp.TransferEncoding {
		if te == "chunked" {
			return true
		}
	}
	return resp.Header.Get("Transfer-Encoding") == "chunked"
}

// Materialize drains resp.Body and returns it as text. A chunked body is
// read chunk by chunk and the pieces are concatenated in arrival order;
// anything else is read in one go. The caller closes the body.
func Materialize(resp *http.Response) (string, error) {
	var (
		raw []byte
		err error
	)
	if IsChunked(resp) {
		raw, err = readChunks(resp.Body)
	} else {
		raw, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return "", newError(KindNetwork, "", "", err)
	}

	text, err := decodeText(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", newError(KindDecode, "", "", err)
	}
	return text, nil
}

func readChunks(body io.Reader) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, chunkBufferSize)
	for {
		n, err := body.Read(buf)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// decodeText converts raw to a string, transcoding from the charset declared
// in contentType when it is not UTF-8. Unknown charsets are treated as UTF-8.
// The result must be valid UTF-8.
func decodeText(raw []byte, contentType string) (string, error) {
	if label := charsetLabel(contentType); label != "" {
		if enc, name := charset.Lookup(label); enc != nil && name != "utf-8" {
			decoded, err := enc.NewDecoder().Bytes(raw)
			if err != nil {
				return "", fmt.Errorf("failed to decode %s body: %w", name, err)
			}
			raw = decoded
		}
	}

	if !utf8.Valid(raw) {
		return "", errors.New("response body is not valid UTF-8")
	}
	return string(raw), nil
}

func charsetLabel(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
