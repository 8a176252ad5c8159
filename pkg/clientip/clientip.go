// Package clientip resolves the address rate limiting and audit logging
// key on. Proxy headers are deliberately ignored: they are trivially
// spoofed, and the app is deployed behind a direct connection.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the peer address from r.RemoteAddr, without the
// port when one is present.
func RealClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return strings.TrimSpace(host)
	}
	return strings.TrimSpace(r.RemoteAddr)
}
