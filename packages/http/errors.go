package http

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindInvalidURL means the URL string could not be parsed.
	KindInvalidURL Kind = iota + 1
	// KindInvalidHeader means a header name or value is not well-formed.
	KindInvalidHeader
	// KindInvalidQueryPayload means a GET body is not parseable as JSON.
	KindInvalidQueryPayload
	// KindNetwork covers send and body read failures.
	KindNetwork
	// KindDecode means the response bytes are not valid text.
	KindDecode
)

var (
	// ErrInvalidURL indicates a malformed URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidHeader indicates a header name or value that is not well-formed.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrInvalidQueryPayload indicates a GET body that is not valid JSON.
	ErrInvalidQueryPayload = errors.New("invalid query payload")

	// ErrNetwork indicates the request could not be sent or the body could not be read.
	ErrNetwork = errors.New("network error")

	// ErrDecode indicates the response body is not valid text.
	ErrDecode = errors.New("decode error")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "InvalidUrl"
	case KindInvalidHeader:
		return "InvalidHeader"
	case KindInvalidQueryPayload:
		return "InvalidQueryPayload"
	case KindNetwork:
		return "NetworkError"
	case KindDecode:
		return "DecodeError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidURL:
		return ErrInvalidURL
	case KindInvalidHeader:
		return ErrInvalidHeader
	case KindInvalidQueryPayload:
		return ErrInvalidQueryPayload
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// RequestError is returned by every call that fails. It matches the sentinel
// for its Kind with errors.Is and unwraps to the underlying cause.
type RequestError struct {
	Kind   Kind
	Method Method
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Method != "" {
		msg = fmt.Sprintf("%s %s %s", msg, e.Method, e.URL)
	} else if e.URL != "" {
		msg = fmt.Sprintf("%s %s", msg, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's Kind.
func (e *RequestError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, method Method, rawURL string, err error) *RequestError {
	return &RequestError{Kind: kind, Method: method, URL: rawURL, Err: err}
}

// KindOf returns the Kind of err, or zero if err is not a RequestError.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
