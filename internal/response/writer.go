package response

import (
	"errors"
	"io"

	"github.com/Brownie44l1/minihttp/internal/request"
)

var ErrAlreadyWritten = errors.New("response already written")

// Writer writes one response to an io.Writer
type Writer struct {
	w        io.Writer
	written  bool
	status   Status
	bytes    int64
	hadError bool
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteResponse writes the head, then the body, as two separate writes.
// The body write is skipped when there is no body.
func (w *Writer) WriteResponse(version request.Version, resp Response) error {
	if w.written {
		return ErrAlreadyWritten
	}
	w.written = true
	w.status = resp.Status

	n, err := w.w.Write(resp.Head(version))
	w.bytes += int64(n)
	if err != nil {
		w.hadError = true
		return err
	}

	if len(resp.Body) == 0 {
		return nil
	}

	n, err = w.w.Write(resp.Body)
	w.bytes += int64(n)
	if err != nil {
		w.hadError = true
		return err
	}
	return nil
}

func (w *Writer) HadError() bool {
	return w.hadError
}

func (w *Writer) Written() bool {
	return w.written
}

func (w *Writer) StatusCode() Status {
	return w.status
}

// BytesWritten counts head and body bytes that reached the underlying writer
func (w *Writer) BytesWritten() int64 {
	return w.bytes
}
