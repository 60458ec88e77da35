package http

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CookieSeparator separates directives in a cookie string, as in a Cookie
// request header.
const CookieSeparator = "; "

// SplitCookies splits a cookie string into its non-empty directives.
func SplitCookies(cookieStr string) []string {
	if cookieStr == "" {
		return nil
	}

	parts := strings.Split(cookieStr, CookieSeparator)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		segments = append(segments, p)
	}
	return segments
}

// BuildCookieJar creates a fresh cookie jar holding every directive of
// cookieStr, each scoped to u as if the server at u had sent it in a
// Set-Cookie header. Directives that do not parse are dropped. It returns the
// jar and the number of cookies applied.
func BuildCookieJar(cookieStr string, u *neturl.URL) (*cookiejar.Jar, int, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var cookies []*http.Cookie
	for _, segment := range SplitCookies(cookieStr) {
		c, err := http.ParseSetCookie(segment)
		if err != nil {
			continue
		}
		cookies = append(cookies, c)
	}

	if len(cookies) > 0 {
		jar.SetCookies(u, cookies)
	}

	return jar, len(cookies), nil
}
