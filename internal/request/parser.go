package request

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Brownie44l1/minihttp/internal/headers"
)

// Size limits
const (
	maxLineSize    = 8192      // 8KB per request/header/chunk-size line
	maxHeaderLines = 1000      // Max number of header lines
	maxBodySize    = 100 << 20 // 100MB Content-Length
	maxChunkSize   = 10 << 20  // 10MB per chunk
)

var (
	ErrLineTooLong = errors.New("line too long")

	ErrHeader         = errors.New("header error")
	ErrTooManyHeaders = fmt.Errorf("%w: too many header lines", ErrHeader)

	ErrBodyFraming          = errors.New("body framing error")
	ErrInvalidContentLength = fmt.Errorf("%w: Content-Length is not a number", ErrBodyFraming)
	ErrBodyTooLarge         = fmt.Errorf("%w: body exceeds maximum size", ErrBodyFraming)
)

// readLine reads one line and strips its CRLF (or bare LF).
// io.EOF is only returned when nothing was read.
func readLine(br *bufio.Reader) (string, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		if len(line)+len(frag) > maxLineSize {
			return "", ErrLineTooLong
		}
		line = append(line, frag...)

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			// Unterminated last line
			break
		}
		return "", err
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

// readHeaders reads header lines up to the blank line. A request without
// any header line has nil headers.
func readHeaders(br *bufio.Reader) (*headers.Headers, error) {
	var h *headers.Headers

	for n := 0; ; n++ {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHeader, err)
		}

		// Empty line = end of headers
		if line == "" {
			break
		}

		if n >= maxHeaderLines {
			return nil, ErrTooManyHeaders
		}

		if h == nil {
			h = headers.NewHeaders()
		}
		if err := h.ParseLine(line); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHeader, err)
		}
	}

	return h, nil
}

// newBody picks the framing for whatever follows the headers. Content-Length
// wins over Transfer-Encoding.
func newBody(h *headers.Headers, br *bufio.Reader) (*Body, error) {
	if cl, ok := h.Get("Content-Length"); ok {
		length, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || length < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidContentLength, cl)
		}
		if length > maxBodySize {
			return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, length)
		}
		return newFixedLengthBody(br, length), nil
	}

	if te, ok := h.Get("Transfer-Encoding"); ok && strings.EqualFold(te, "chunked") {
		return newChunkedBody(br), nil
	}

	return nil, nil
}
