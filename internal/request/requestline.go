package request

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRequestLine        = errors.New("request line error")
	ErrMissingRequestLine = fmt.Errorf("%w: expected request line", ErrRequestLine)
	ErrInvalidRequestLine = fmt.Errorf("%w: invalid request line", ErrRequestLine)
	ErrInvalidMethod      = fmt.Errorf("%w: invalid HTTP method", ErrRequestLine)
	ErrUnknownVersion     = fmt.Errorf("%w: unknown HTTP version", ErrRequestLine)
)

// parseRequestLine parses: METHOD TARGET VERSION
// Returns: method, target, version, error
func parseRequestLine(line string) (Method, string, Version, error) {
	// Any run of ASCII whitespace separates the tokens
	parts := strings.FieldsFunc(line, isASCIISpace)
	if len(parts) != 3 {
		return 0, "", 0, fmt.Errorf("%w: got %d tokens", ErrInvalidRequestLine, len(parts))
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return 0, "", 0, err
	}

	version, err := ParseVersion(parts[2])
	if err != nil {
		return 0, "", 0, err
	}

	// The target is kept raw, query string included
	return method, parts[1], version, nil
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
