// Package proxy validates the upstream proxy handed to the browser.
package proxy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrUnsupportedScheme is returned for proxies Chrome cannot use.
var ErrUnsupportedScheme = errors.New("unsupported proxy scheme")

var schemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks4":  true,
	"socks5":  true,
	"socks5h": true,
}

// Normalize turns raw into the URL form the browser backends expect. A bare
// "host:port" is taken as an HTTP proxy. Empty input returns "".
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if !schemes[u.Scheme] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid proxy %q: missing host", raw)
	}
	if u.Port() == "" {
		return "", fmt.Errorf("invalid proxy %q: missing port", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("invalid proxy %q: credentials in the proxy URL are not supported", Redact(raw))
	}

	return u.Scheme + "://" + net.JoinHostPort(u.Hostname(), u.Port()), nil
}

// Redact hides any password in a proxy URL for logging.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
