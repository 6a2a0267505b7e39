package server

import (
	"strings"

	"go.opentelemetry.io/otel/propagation"

	"github.com/Brownie44l1/minihttp/internal/headers"
)

var _ propagation.TextMapCarrier = headerCarrier{}

// headerCarrier lets propagators read trace context from request headers.
// Lookups ignore case since clients disagree on how to spell traceparent.
type headerCarrier struct {
	h *headers.Headers
}

func (c headerCarrier) Get(key string) string {
	if v, ok := c.h.Get(key); ok {
		return v
	}
	for name, v := range c.h.All() {
		if strings.EqualFold(name, key) {
			return v
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	if c.h != nil {
		c.h.Set(key, value)
	}
}

func (c headerCarrier) Keys() []string {
	return c.h.Keys()
}
