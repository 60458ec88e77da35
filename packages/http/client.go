package http

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the total time allowed for one request, body included
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections kept by a pooled client
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host for a pooled client
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client sends requests. It holds configuration only: every call builds its
// own cookie jar, header collection and, unless the client is pooled, its own
// transport, so a Client is safe for concurrent use.
type Client struct {
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	logger         zerolog.Logger

	// shared is non-nil only for pooled clients.
	shared *http.Transport
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewPooledClient returns a client whose calls share one transport and
// therefore reuse connections. Cookie jars and headers stay per call. Call
// Close when done with it.
func NewPooledClient(opts ...ClientOption) *Client {
	c := NewClient(opts...)
	c.shared = c.newTransport()
	c.shared.MaxIdleConns = DefaultMaxIdleConns
	c.shared.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	c.shared.IdleConnTimeout = DefaultIdleConnTimeout
	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithLogger sets the logger used for per-call debug events
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Pooled reports whether calls share a transport.
func (c *Client) Pooled() bool {
	return c.shared != nil
}

// Close releases idle connections held by a pooled client. It is a no-op
// for a default client.
func (c *Client) Close() {
	if c.shared != nil {
		c.shared.CloseIdleConnections()
	}
}

func (c *Client) newTransport() *http.Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			c.logger.Warn().Err(err).Str("proxy", c.proxyURL).Msg("ignoring invalid proxy URL")
		}
	}

	return transport
}

// httpClientFor builds the client for exactly one call. The returned release
// func closes the transport's idle connections unless the transport is shared.
func (c *Client) httpClientFor(jar *cookiejar.Jar) (*http.Client, func()) {
	transport := c.shared
	release := func() {}
	if transport == nil {
		transport = c.newTransport()
		release = transport.CloseIdleConnections
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		Jar:           jar,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}, release
}

func newCallID() string {
	return uuid.NewString()
}
