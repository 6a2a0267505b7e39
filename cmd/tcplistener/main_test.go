package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/minihttp/internal/request"
)

func TestDumpChunkedRequest(t *testing.T) {
	req, err := request.RequestFromReader(strings.NewReader("POST /upload HTTP/1.1\r\n" +
		"Host: localhost:42069\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"4;name=first\r\nWiki\r\n" +
		"0\r\n" +
		"Expires: never\r\n" +
		"\r\n"))
	require.NoError(t, err)

	var out strings.Builder
	dumpRequest(&out, req)

	assert.Equal(t, "Request line:\n"+
		"- Method: POST\n"+
		"- Target: /upload\n"+
		"- Version: HTTP/1.1\n"+
		"Headers:\n"+
		"- Host: localhost:42069\n"+
		"- Transfer-Encoding: chunked\n"+
		"Body (chunked):\n"+
		"- 4 bytes: \"Wiki\" ext=name=first\n"+
		"- 0 bytes: \"\"\n"+
		"Trailers:\n"+
		"- Expires: never\n", out.String())
}

func TestDumpRequestWithoutBody(t *testing.T) {
	req, err := request.RequestFromReader(strings.NewReader("GET / HTTP/1.0\r\n\r\n"))
	require.NoError(t, err)

	var out strings.Builder
	dumpRequest(&out, req)

	assert.Contains(t, out.String(), "Headers:\nBody: none\n")
}
