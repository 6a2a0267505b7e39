package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderParse(t *testing.T) {
	// Test: Valid single header
	h := NewHeaders()
	err := h.ParseLine("Host: localhost:42069")
	require.NoError(t, err)
	val, ok := h.Get("Host")
	assert.True(t, ok)
	assert.Equal(t, "localhost:42069", val)

	// Test: Valid single header with extra whitespace
	h = NewHeaders()
	err = h.ParseLine("Host:   localhost:42069   ")
	require.NoError(t, err)
	val, ok = h.Get("Host")
	assert.True(t, ok)
	assert.Equal(t, "localhost:42069", val)

	// Test: Duplicate headers, last one wins
	h = NewHeaders()
	require.NoError(t, h.ParseLine("Set-Cookie: a=1"))
	require.NoError(t, h.ParseLine("Set-Cookie: b=2"))
	val, ok = h.Get("Set-Cookie")
	assert.True(t, ok)
	assert.Equal(t, "b=2", val)
	assert.Equal(t, 1, h.Len())

	// Test: Lookups are case-sensitive
	h = NewHeaders()
	require.NoError(t, h.ParseLine("Content-Type: application/json"))
	_, ok = h.Get("content-type")
	assert.False(t, ok)
	val, ok = h.Get("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", val)

	// Test: No colon in header
	h = NewHeaders()
	err = h.ParseLine("InvalidHeader")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedHeader)
	assert.Equal(t, 0, h.Len())

	// Test: Name is not trimmed
	h = NewHeaders()
	require.NoError(t, h.ParseLine("Host : localhost"))
	val, ok = h.Get("Host ")
	assert.True(t, ok)
	assert.Equal(t, "localhost", val)

	// Test: Empty header value (allowed)
	h = NewHeaders()
	require.NoError(t, h.ParseLine("X-Empty:"))
	val, ok = h.Get("X-Empty")
	assert.True(t, ok)
	assert.Equal(t, "", val)

	// Test: Get on non-existent header
	h = NewHeaders()
	val, ok = h.Get("non-existent")
	assert.False(t, ok)
	assert.Equal(t, "", val)
}

func TestNilHeaders(t *testing.T) {
	var h *Headers
	_, ok := h.Get("Host")
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Keys())
	assert.Equal(t, "", h.Format())
}

func TestSetAndDel(t *testing.T) {
	h := NewHeaders()
	h.Set("X-Custom", "value1")
	h.Set("X-Custom", "new-value")
	val, _ := h.Get("X-Custom")
	assert.Equal(t, "new-value", val)

	h.Del("X-Custom")
	_, ok := h.Get("X-Custom")
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	h := NewHeaders()
	h.Set("X-Server", "minihttp")
	h.Set("Content-Type", "text/html")
	assert.Equal(t, "Content-Type: text/html\r\nX-Server: minihttp", h.Format())

	assert.Equal(t, "", NewHeaders().Format())
}

func TestAllStopsEarly(t *testing.T) {
	h := NewHeaders()
	h.Set("A", "1")
	h.Set("B", "2")
	h.Set("C", "3")

	var seen []string
	for k := range h.All() {
		seen = append(seen, k)
		if k == "B" {
			break
		}
	}
	assert.Equal(t, []string{"A", "B"}, seen)
}
