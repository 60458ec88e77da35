package http

import (
	"fmt"
	neturl "net/url"
)

// ResolveURL parses rawURL into a structured URL. Only absolute http and
// https URLs with a host are accepted; anything else fails with ErrInvalidURL
// before any network I/O happens.
func ResolveURL(rawURL string) (*neturl.URL, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, newError(KindInvalidURL, "", rawURL, err)
	}

	if err := checkURL(u); err != nil {
		return nil, newError(KindInvalidURL, "", rawURL, err)
	}

	return u, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	_, err := ResolveURL(rawURL)
	return err
}

func checkURL(u *neturl.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
