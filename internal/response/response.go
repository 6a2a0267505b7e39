package response

import (
	"strconv"
	"strings"

	"github.com/Brownie44l1/minihttp/internal/request"
)

// Response is what a handler returns. Headers is a raw header block of
// "Name: value" lines separated by CRLF, without a trailing CRLF; it is
// written verbatim, so formatting it correctly is up to the handler.
type Response struct {
	Status  Status
	Headers string
	Body    []byte
}

func New(status Status, headers string, body []byte) Response {
	return Response{
		Status:  status,
		Headers: headers,
		Body:    body,
	}
}

// WithHeader returns a copy of r with one more header line in its block
func (r Response) WithHeader(name, value string) Response {
	line := name + ": " + value
	if r.Headers == "" {
		r.Headers = line
	} else {
		r.Headers = r.Headers + "\r\n" + line
	}
	return r
}

// Head renders the status line, the Content-Length line, the header block
// and the blank line that ends the head.
func (r Response) Head(version request.Version) []byte {
	var b strings.Builder
	b.Grow(64 + len(r.Headers))

	b.WriteString(version.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.Status.Code()))
	b.WriteByte(' ')
	b.WriteString(r.Status.String())
	b.WriteString("\r\nContent-Length: ")
	b.WriteString(strconv.Itoa(len(r.Body)))
	if r.Headers != "" {
		b.WriteString("\r\n")
		b.WriteString(r.Headers)
	}
	b.WriteString("\r\n\r\n")

	return []byte(b.String())
}

// Serialize returns the full wire form: head followed by the body
func (r Response) Serialize(version request.Version) []byte {
	head := r.Head(version)
	out := make([]byte, 0, len(head)+len(r.Body))
	out = append(out, head...)
	return append(out, r.Body...)
}
