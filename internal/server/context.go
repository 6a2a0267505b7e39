package server

import (
	"net"
	"strings"

	"github.com/Brownie44l1/minihttp/internal/request"
)

const RequestIDHeader = "X-Request-ID"

// ClientIP returns the client address, preferring proxy headers over the
// connection's remote address.
func ClientIP(req *request.Request) string {
	if xff, ok := req.Header("X-Forwarded-For"); ok {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri, ok := req.Header("X-Real-IP"); ok && xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// RequestID returns the id assigned by RequestIDMiddleware, if any
func RequestID(req *request.Request) string {
	id, _ := req.Header(RequestIDHeader)
	return id
}

// Query gets a query parameter from the raw request target
func Query(req *request.Request, key string) string {
	_, query, ok := strings.Cut(req.Path, "?")
	if !ok {
		return ""
	}

	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return v
		}
	}
	return ""
}
