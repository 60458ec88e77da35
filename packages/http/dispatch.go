package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/chitose/packages/query"
	"golang.org/x/net/http/httpguts"
)

// Send performs one call: resolve the URL, build the cookie jar and client,
// build the headers, shape the request for its method, send it and read the
// whole body. Any failure is returned as a *RequestError; nothing is sent if
// the URL, headers or GET payload are invalid.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	id := newCallID()

	u, err := ResolveURL(req.URL)
	if err != nil {
		return nil, withMethod(err, req.Method)
	}

	jar, cookieCount, err := BuildCookieJar(req.Cookie, u)
	if err != nil {
		return nil, newError(KindNetwork, req.Method, req.URL, err)
	}

	httpClient, release := c.httpClientFor(jar)
	defer release()

	headerMap, err := req.Headers.Map()
	if err != nil {
		return nil, withMethod(err, req.Method)
	}
	headers, err := BuildHeaders(headerMap)
	if err != nil {
		return nil, withMethod(withURL(err, req.URL), req.Method)
	}
	host, err := takeHost(headers)
	if err != nil {
		return nil, withMethod(withURL(err, req.URL), req.Method)
	}

	body, err := req.Body.String()
	if err != nil {
		if req.Method == MethodGet {
			return nil, newError(KindInvalidQueryPayload, req.Method, req.URL, err)
		}
		return nil, err
	}

	var (
		target  = *u
		payload io.Reader
		pairs   query.Pairs
	)
	switch req.Method {
	case MethodGet:
		pairs, err = query.Encode(body)
		if err != nil {
			return nil, newError(KindInvalidQueryPayload, req.Method, req.URL, err)
		}
		pairs.AppendTo(&target)
	case MethodPost, MethodPut, MethodDelete:
		payload = strings.NewReader(body)
	default:
		return nil, fmt.Errorf("unsupported method: %s", req.Method)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), target.String(), payload)
	if err != nil {
		return nil, newError(KindInvalidURL, req.Method, req.URL, err)
	}
	for name, values := range headers {
		httpReq.Header[name] = values
	}
	if host != "" {
		httpReq.Host = host
	}

	c.logger.Debug().
		Str("call_id", id).
		Str("method", string(req.Method)).
		Str("url", target.String()).
		Int("cookies", cookieCount).
		Int("cookies_skipped", len(SplitCookies(req.Cookie))-cookieCount).
		Int("headers", len(headers)).
		Int("query_params", len(pairs)).
		Int("body_bytes", len(body)).
		Bool("pooled", c.Pooled()).
		Msg("sending request")

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Str("call_id", id).Err(err).Msg("request failed")
		return nil, newError(KindNetwork, req.Method, req.URL, err)
	}
	defer httpResp.Body.Close()

	chunked := IsChunked(httpResp)
	text, err := Materialize(httpResp)
	duration := time.Since(start)
	if err != nil {
		c.logger.Debug().Str("call_id", id).Err(err).Msg("reading response failed")
		return nil, withMethod(withURL(err, req.URL), req.Method)
	}

	c.logger.Debug().
		Str("call_id", id).
		Int("status", httpResp.StatusCode).
		Int("bytes", len(text)).
		Bool("chunked", chunked).
		Dur("duration", duration).
		Msg("response received")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Text:       text,
		Cookies:    httpResp.Cookies(),
		URL:        httpResp.Request.URL,
		Chunked:    chunked,
		Duration:   duration,
	}, nil
}

// framingHeaders are written by the transport from the body and never read
// from Header.
var framingHeaders = []string{"Content-Length", "Transfer-Encoding", "Trailer"}

// takeHost removes a Host header from headers and returns its value, since
// net/http sends Request.Host rather than Header["Host"]. Framing headers are
// rejected instead of being silently dropped.
func takeHost(headers http.Header) (string, error) {
	for _, name := range framingHeaders {
		if _, ok := headers[name]; ok {
			return "", newError(KindInvalidHeader, "", "", fmt.Errorf("header %q is derived from the body and cannot be set", name))
		}
	}

	host := headers.Get("Host")
	if host == "" {
		return "", nil
	}
	if !httpguts.ValidHostHeader(host) {
		return "", newError(KindInvalidHeader, "", "", fmt.Errorf("invalid Host header %q", host))
	}
	headers.Del("Host")
	return host, nil
}

func withMethod(err error, m Method) error {
	if re, ok := err.(*RequestError); ok && re.Method == "" {
		re.Method = m
	}
	return err
}

func withURL(err error, rawURL string) error {
	if re, ok := err.(*RequestError); ok && re.URL == "" {
		re.URL = rawURL
	}
	return err
}
