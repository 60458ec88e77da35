package kv

import (
	"context"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// SaveCookies records cookies received from u. A cookie without a Domain is
// stored under u's host and one without a Path under "/". Cookies that are
// expired or carry a negative MaxAge delete their entry.
func SaveCookies(ctx context.Context, s Store, u *neturl.URL, cookies []*http.Cookie) error {
	for _, c := range cookies {
		key := cookieKey(u, c)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			if err := s.Delete(ctx, key); err != nil {
				return err
			}
			continue
		}
		if err := s.Set(ctx, key, c.Value); err != nil {
			return err
		}
	}
	return nil
}

func cookieKey(u *neturl.URL, c *http.Cookie) Key {
	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	if domain == "" {
		domain = strings.ToLower(u.Hostname())
	}
	path := c.Path
	if path == "" || !strings.HasPrefix(path, "/") {
		path = "/"
	}
	return MakeKey(c.Name, domain, path)
}

// CookieString returns the stored cookies that apply to u, joined with "; "
// as in a Cookie header. A cookie applies when its domain is u's host or a
// parent of it and its path is a prefix of u's path.
func CookieString(ctx context.Context, s Store, u *neturl.URL) (string, error) {
	entries, err := s.List(ctx, "")
	if err != nil {
		return "", err
	}

	host := strings.ToLower(u.Hostname())
	path := u.Path
	if path == "" {
		path = "/"
	}

	var parts []string
	for _, e := range entries {
		if !domainMatch(host, e.Key.Domain) || !pathMatch(path, e.Key.Path) {
			continue
		}
		parts = append(parts, e.Key.Name+"="+e.Value)
	}
	return strings.Join(parts, "; "), nil
}

func domainMatch(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if cookiePath == "/" || reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
