package server

import (
	"bufio"
	"io"
	"sync"
)

const readerSize = 4096

// Buffered readers are recycled across connections. A reader only goes
// back to the pool once its connection is done with it.
var readerPool = sync.Pool{
	New: func() interface{} {
		return bufio.NewReaderSize(nil, readerSize)
	},
}

func getReader(r io.Reader) *bufio.Reader {
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

func putReader(br *bufio.Reader) {
	br.Reset(nil)
	readerPool.Put(br)
}
