package request

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/Brownie44l1/minihttp/internal/headers"
)

var (
	ErrBodyRead          = errors.New("body read error")
	ErrExpectedBody      = fmt.Errorf("%w: expected a body", ErrBodyRead)
	ErrExpectedChunkSize = fmt.Errorf("%w: expected chunk size", ErrBodyRead)
	ErrInvalidChunkSize  = fmt.Errorf("%w: invalid chunk size", ErrBodyRead)
	ErrExpectedChunk     = fmt.Errorf("%w: expected a chunk", ErrBodyRead)
	ErrChunkTooLarge     = fmt.Errorf("%w: chunk size too large", ErrBodyRead)
)

// Initial buffer size for a payload read
const payloadChunk = 4096

// Chunk is one piece of body payload. Extension holds the chunk extension
// for chunked bodies and is empty otherwise.
type Chunk struct {
	Payload   []byte
	Extension string
}

// BodyKind is the framing a Body decodes.
type BodyKind int

const (
	FixedLength BodyKind = iota
	Chunked
)

func (k BodyKind) String() string {
	switch k {
	case FixedLength:
		return "fixed-length"
	case Chunked:
		return "chunked"
	default:
		return "unknown"
	}
}

// Body decodes a request body into chunks. It owns the reader left over
// after the headers. Once it has returned a terminal chunk or an error it
// only returns io.EOF.
type Body struct {
	kind     BodyKind
	br       *bufio.Reader
	length   int64
	done     bool
	trailers *headers.Headers
}

func newFixedLengthBody(br *bufio.Reader, length int64) *Body {
	return &Body{kind: FixedLength, br: br, length: length}
}

func newChunkedBody(br *bufio.Reader) *Body {
	return &Body{kind: Chunked, br: br}
}

func (b *Body) Kind() BodyKind {
	return b.kind
}

// Exhausted reports whether Next will only return io.EOF from now on
func (b *Body) Exhausted() bool {
	return b == nil || b.done
}

// Trailers returns the trailer fields sent after the last chunk, if any
func (b *Body) Trailers() *headers.Headers {
	if b == nil {
		return nil
	}
	return b.trailers
}

// Next returns the next chunk. A non-nil error other than io.EOF is an error
// item: the body is stopped and later calls return io.EOF.
func (b *Body) Next() (Chunk, error) {
	if b.Exhausted() {
		return Chunk{}, io.EOF
	}

	switch b.kind {
	case FixedLength:
		return b.nextFixed()
	default:
		return b.nextChunk()
	}
}

// Chunks ranges over the remaining items of the body
func (b *Body) Chunks() iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for {
			c, err := b.Next()
			if err == io.EOF {
				return
			}
			if !yield(c, err) {
				return
			}
		}
	}
}

// AllBytes drains the body and concatenates the payloads. It stops at the
// first error item and returns it with whatever was read before.
func (b *Body) AllBytes() ([]byte, error) {
	var buf []byte
	for c, err := range b.Chunks() {
		if err != nil {
			return buf, err
		}
		buf = append(buf, c.Payload...)
	}
	return buf, nil
}

func (b *Body) stop(err error) (Chunk, error) {
	b.done = true
	return Chunk{}, err
}

// nextFixed reads the whole Content-Length body in one go
func (b *Body) nextFixed() (Chunk, error) {
	b.done = true

	buf, err := readPayload(b.br, b.length)
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", ErrExpectedBody, err)
	}
	return Chunk{Payload: buf}, nil
}

// readPayload reads exactly n bytes. The buffer grows as data arrives, so a
// declared size alone does not reserve memory.
func readPayload(r io.Reader, n int64) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, min(n, payloadChunk)))
	read, err := io.CopyN(buf, r, n)
	if errors.Is(err, io.EOF) && read < n {
		err = io.ErrUnexpectedEOF
	}
	return buf.Bytes(), err
}

// nextChunk decodes one chunk: SIZE[;extension]\r\nDATA\r\n
func (b *Body) nextChunk() (Chunk, error) {
	line, err := readLine(b.br)
	if err != nil && !errors.Is(err, io.EOF) {
		return b.stop(fmt.Errorf("%w: %v", ErrExpectedChunkSize, err))
	}

	// The zero-size chunk should have ended the body already
	line = strings.TrimSpace(line)
	if line == "" {
		b.done = true
		return Chunk{}, io.EOF
	}

	sizeHex, extension, _ := strings.Cut(line, ";")
	// A single leading plus sign is accepted, as in "+5"
	sizeHex = strings.TrimPrefix(strings.TrimSpace(sizeHex), "+")
	extension = strings.TrimSpace(extension)

	size, err := strconv.ParseUint(sizeHex, 16, 63)
	if err != nil {
		return b.stop(fmt.Errorf("%w: %q", ErrInvalidChunkSize, sizeHex))
	}
	if size > maxChunkSize {
		return b.stop(fmt.Errorf("%w: %d bytes", ErrChunkTooLarge, size))
	}

	if size == 0 {
		b.done = true
		b.readTrailers()
		return Chunk{Payload: []byte{}, Extension: extension}, nil
	}

	payload, err := readPayload(b.br, int64(size))
	if err != nil {
		return b.stop(fmt.Errorf("%w: %v", ErrExpectedChunk, err))
	}

	// CRLF after the data; a missing one shows up on the next size line
	_, _ = b.br.Discard(2)

	return Chunk{Payload: payload, Extension: extension}, nil
}

// readTrailers consumes trailer fields up to the final blank line.
// Malformed trailer lines are dropped.
func (b *Body) readTrailers() {
	for n := 0; n < maxHeaderLines; n++ {
		line, err := readLine(b.br)
		if err != nil || line == "" {
			return
		}
		if b.trailers == nil {
			b.trailers = headers.NewHeaders()
		}
		_ = b.trailers.ParseLine(line)
	}
}
