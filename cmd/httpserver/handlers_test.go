package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

func serve(t *testing.T, raw string) response.Response {
	t.Helper()
	req, err := request.RequestFromReader(strings.NewReader(raw))
	require.NoError(t, err)
	return newRouter().Serve(req)
}

func TestHeadersPage(t *testing.T) {
	resp := serve(t, "GET /headers HTTP/1.1\r\n\r\n")

	assert.Equal(t, response.StatusOK, resp.Status)
	assert.Equal(t, "X-Server: minihttp", resp.Headers)
	assert.Equal(t, headersPage, resp.Body)
	assert.Contains(t, string(resp.Body), "<form method=\"post\" action=\"/headers\"")
}

func TestRedirect(t *testing.T) {
	resp := serve(t, "GET /redirect HTTP/1.1\r\n\r\n")

	assert.Equal(t, "HTTP/1.1 307 Temporary Redirect\r\n"+
		"Content-Length: 0\r\n"+
		"Location: /login\r\n"+
		"\r\n", string(resp.Serialize(request.Version11)))
}

func TestEchoBody(t *testing.T) {
	resp := serve(t, "POST /headers HTTP/1.1\r\n"+
		"Content-Type: text/plain\r\n"+
		"Content-Length: 5\r\n"+
		"\r\n"+
		"hello")

	assert.Equal(t, response.StatusOK, resp.Status)
	assert.Equal(t, "<h1>body</h1>\n<pre><code>hello</code></pre>\n<hr/>\nContent-Type: <code>text/plain</code>", string(resp.Body))
}

func TestEchoBodyWithoutContentType(t *testing.T) {
	resp := serve(t, "POST /headers HTTP/1.1\r\n"+
		"Transfer-Encoding: chunked\r\n"+
		"\r\n"+
		"3\r\n\xff\xfe\xfd\r\n"+
		"0\r\n\r\n")

	body := string(resp.Body)
	assert.Contains(t, body, "<code>not utf8</code>")
	assert.Contains(t, body, "Content-Type: <code>None</code>")
}

func TestEchoBodyShortBody(t *testing.T) {
	resp := serve(t, "POST /headers HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc")

	assert.Equal(t, response.StatusBadRequest, resp.Status)
}

func TestNotFoundPage(t *testing.T) {
	resp := serve(t, "GET /nope?x=1 HTTP/1.1\r\n\r\n")

	assert.Equal(t, response.StatusNotFound, resp.Status)
	assert.Equal(t, "<h1>/nope Not Found</h1>", string(resp.Body))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json", "otel"} {
		logger, err := newLogger(format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := newLogger("xml")
	assert.Error(t, err)
}
