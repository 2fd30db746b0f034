// Package headers parses the -H "Key: Value" flags sent with every page request.
package headers

import (
	"fmt"
	"net/textproto"
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a map keyed by canonical
// header name. Later duplicates win. Malformed entries are an error.
func ParseHeaders(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: Value\"", hdr)
		}
		if strings.ContainsAny(key, " \t\r\n") || strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header %q: unexpected whitespace", key)
		}
		m[textproto.CanonicalMIMEHeaderKey(key)] = strings.TrimSpace(value)
	}
	return m, nil
}
