package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Brownie44l1/minihttp/internal/headers"
)

// Request is one parsed HTTP request. Headers is nil when the request had no
// header lines and Body is nil when no framing header announced a body.
type Request struct {
	Method  Method
	Version Version
	Path    string // raw request-target, query string included
	Headers *headers.Headers
	Body    *Body

	// Filled in by the server and the router
	RemoteAddr string
	Params     map[string]string
}

// RequestFromReader parses a request from r. The body, if any, keeps reading
// from the same buffered reader, so r must not be read elsewhere afterwards.
func RequestFromReader(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return Parse(br)
}

// Parse reads the request line and headers from br and hands br over to the
// body decoder.
func Parse(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingRequestLine
		}
		if errors.Is(err, ErrLineTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrRequestLine, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingRequestLine, err)
	}

	method, target, version, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	h, err := readHeaders(br)
	if err != nil {
		return nil, err
	}

	body, err := newBody(h, br)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		Version: version,
		Path:    target,
		Headers: h,
		Body:    body,
	}, nil
}

// Header returns a request header. Names are matched case-sensitively.
func (r *Request) Header(name string) (string, bool) {
	return r.Headers.Get(name)
}

// Param returns a path parameter set by the router
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// ContentLength returns the declared body length, or -1 when absent or invalid
func (r *Request) ContentLength() int64 {
	cl, ok := r.Headers.Get("Content-Length")
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// IsChunked reports whether the body uses chunked transfer coding
func (r *Request) IsChunked() bool {
	return r.Body != nil && r.Body.Kind() == Chunked
}
