package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/chitose/packages/http"
)

// JSONResponse is the envelope printed for one response
type JSONResponse struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Text       string            `json:"text"`
	Chunked    bool              `json:"chunked"`
	Duration   float64           `json:"duration"`
	Time       string            `json:"time"`
}

// JSONError is the envelope printed for a failed call
type JSONError struct {
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

// JSONFormatter writes one JSON document per call
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResponse(method http.Method, resp *http.Response) error {
	headers := make(map[string]string, len(resp.Headers))
	for name := range resp.Headers {
		headers[name] = resp.Headers.Get(name)
	}
	out := JSONResponse{
		Method:     string(method),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
		Text:       resp.Text,
		Chunked:    resp.Chunked,
		Duration:   float64(resp.Duration.Milliseconds()),
		Time:       time.Now().Format(time.RFC3339),
	}
	if resp.URL != nil {
		out.URL = resp.URL.String()
	}
	return f.encode(out)
}

// FormatText writes text as a JSON string
func (f *JSONFormatter) FormatText(text string) error {
	return f.encode(text)
}

func (f *JSONFormatter) FormatError(err error) {
	out := JSONError{Error: err.Error()}
	if kind := http.KindOf(err); kind != 0 {
		out.Kind = kind.String()
	}
	_ = f.encode(out)
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
