// AngelaMos | 2026
// realip.go

package middleware

import (
	"net"
	"net/http"
	"strings"
)

// TrustProxy rewrites RemoteAddr from forwarding headers. Mount it only when
// every request arrives through a proxy that overwrites those headers,
// otherwise any client can pick its own address.
func TrustProxy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := forwardedIP(r); ip != "" {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		next.ServeHTTP(w, r)
	})
}

// forwardedIP takes the right-most X-Forwarded-For hop, the one appended by
// the nearest proxy, then X-Real-IP.
func forwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(hops[len(hops)-1])); ip != nil {
			return ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}

	return ""
}

// ClientIP is the peer address of the request. Forwarding headers only count
// once TrustProxy has run.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
