// Package request holds helpers for reading client information off an
// incoming HTTP request.
package request

import (
	"net/http"
	"strings"
)

// ClientIP returns the originating client address for rate-limit
// keying. Proxy headers win over RemoteAddr: the first entry of
// X-Forwarded-For is the original client, then X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
