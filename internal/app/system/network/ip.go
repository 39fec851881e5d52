// Package network provides network-related utilities.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from the request.
//
// The first entry of X-Forwarded-For wins when present, so deployments behind
// a reverse proxy see the real client. The header is taken verbatim and can be
// spoofed by clients that reach the service directly. Without the header the
// connection address is used with its port stripped.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
