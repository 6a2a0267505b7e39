package headers

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

var ErrMalformedHeader = errors.New("malformed header")

// Headers maps a header name to its trimmed value.
// Names are stored exactly as received: lookups are case-sensitive and a
// repeated name keeps the last value.
type Headers struct {
	fields map[string]string
}

func NewHeaders() *Headers {
	return &Headers{
		fields: make(map[string]string),
	}
}

// Get returns the value stored under name
func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.fields[name]
	return v, ok
}

// Set replaces the value for name
func (h *Headers) Set(name, value string) {
	h.fields[name] = value
}

// Del removes a header
func (h *Headers) Del(name string) {
	delete(h.fields, name)
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.fields)
}

// Keys returns the header names in sorted order
func (h *Headers) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, 0, len(h.fields))
	for k := range h.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// All iterates over the headers in name order
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range h.Keys() {
			if !yield(k, h.fields[k]) {
				return
			}
		}
	}
}

// ParseLine parses one "Name: value" line and stores it.
func (h *Headers) ParseLine(line string) error {
	name, value, err := ParseLine(line)
	if err != nil {
		return err
	}
	h.Set(name, value)
	return nil
}

// ParseLine splits a header line on its first colon. The name is kept as is,
// the value is trimmed.
func ParseLine(line string) (string, string, error) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", fmt.Errorf("%w: no colon in %q", ErrMalformedHeader, truncate(line))
	}
	return name, strings.TrimSpace(value), nil
}

// Format renders the headers as a raw header block: one "Name: value" line
// per header, joined by CRLF, without a trailing CRLF.
func (h *Headers) Format() string {
	var b strings.Builder
	for name, value := range h.All() {
		if b.Len() > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
