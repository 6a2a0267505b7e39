package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

func testConfig(poolSize int) Config {
	return Config{
		Addr:         "127.0.0.1:0",
		PoolSize:     poolSize,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		Logger:       &NullLogger{},
		Meter:        noop.NewMeterProvider().Meter("test"),
	}
}

func startServer(t *testing.T, cfg Config, h Handler, mw ...Middleware) *Server {
	t.Helper()

	s, err := New(cfg, h)
	require.NoError(t, err)
	s.Use(mw...)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	t.Cleanup(func() {
		s.Close()
		assert.ErrorIs(t, <-errCh, ErrServerClosed)
	})
	return s
}

func roundTrip(t *testing.T, addr net.Addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(got)
}

func TestServeRequest(t *testing.T) {
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		return response.Text(response.StatusOK, "hello")
	})

	got := roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")

	assert.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Length: 5\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"hello", got)
}

func TestResponseEchoesRequestVersion(t *testing.T) {
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		return response.New(response.StatusOK, "", []byte("OK"))
	})

	got := roundTrip(t, s.Addr(), "GET / HTTP/1.0\r\n\r\n")

	assert.Equal(t, "HTTP/1.0 200 OK\r\nContent-Length: 2\r\n\r\nOK", got)
}

func TestHandlerSeesRequest(t *testing.T) {
	seen := make(chan *request.Request, 1)
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		body, err := req.Body.AllBytes()
		if err != nil {
			return response.Error(response.StatusBadRequest, err.Error())
		}
		seen <- req
		return response.Text(response.StatusOK, string(body))
	})

	got := roundTrip(t, s.Addr(), "POST /echo HTTP/1.1\r\n"+
		"Transfer-Encoding: chunked\r\n"+
		"\r\n"+
		"5\r\nhello\r\n"+
		"6\r\n world\r\n"+
		"0\r\n\r\n")

	assert.True(t, strings.HasSuffix(got, "\r\n\r\nhello world"), got)

	req := <-seen
	assert.Equal(t, request.MethodPost, req.Method)
	assert.Equal(t, "/echo", req.Path)
	assert.NotEmpty(t, req.RemoteAddr)
}

func TestBadRequestGets400(t *testing.T) {
	var called atomic.Bool
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		called.Store(true)
		return response.NoContent()
	})

	got := roundTrip(t, s.Addr(), "BREW /pot HTTP/1.1\r\n\r\n")

	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n"), got)
	assert.False(t, called.Load())
	assert.Equal(t, int64(1), s.Stats().ParseErrors)
}

func TestEmptyConnectionGetsNoResponse(t *testing.T) {
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		return response.NoContent()
	})

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	got, err := io.ReadAll(conn)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHandlerPanicGets500(t *testing.T) {
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		panic("boom")
	})

	got := roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")

	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 500 Internal Server Error\r\n"), got)

	// The server keeps serving after a panic
	got = roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")
	assert.True(t, strings.HasPrefix(got, "HTTP/1.1 500"), got)
	assert.Equal(t, int64(2), s.Stats().Errors5xx)
}

func TestThreadedServer(t *testing.T) {
	s := startServer(t, testConfig(4), func(req *request.Request) response.Response {
		return response.Text(response.StatusOK, req.Path)
	})

	const clients = 20
	var wg sync.WaitGroup
	results := make([]string, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = roundTrip(t, s.Addr(), fmt.Sprintf("GET /%d HTTP/1.1\r\n\r\n", i))
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.True(t, strings.HasSuffix(got, fmt.Sprintf("\r\n\r\n/%d", i)), got)
	}
	assert.Equal(t, int64(clients), s.Stats().RequestsTotal)
}

func TestShutdownWaitsForInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := startServer(t, testConfig(2), func(req *request.Request) response.Response {
		close(entered)
		<-release
		return response.Text(response.StatusOK, "done")
	})

	respCh := make(chan string, 1)
	go func() {
		respCh <- roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")
	}()
	<-entered

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- s.Shutdown(context.Background())
	}()

	select {
	case err := <-shutdownErr:
		t.Fatalf("Shutdown returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-shutdownErr)
	assert.True(t, strings.HasSuffix(<-respCh, "done"))
}

func TestShutdownHonorsContext(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		close(entered)
		<-release
		return response.NoContent()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}

func TestNewErrors(t *testing.T) {
	_, err := New(testConfig(0), nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	cfg := testConfig(0)
	cfg.Addr = "256.0.0.1:99999"
	_, err = New(cfg, func(*request.Request) response.Response { return response.NoContent() })
	assert.Error(t, err)
}

func TestUseOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}
	trace := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(req *request.Request) response.Response {
				record(name)
				return next(req)
			}
		}
	}

	s := startServer(t, testConfig(0), func(req *request.Request) response.Response {
		record("handler")
		return response.NoContent()
	}, trace("outer"), trace("inner"))

	roundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestStatusForParseError(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		status response.Status
		send   bool
	}{
		{"no request line", "", 0, false},
		{"bad method", "BREW / HTTP/1.1\r\n\r\n", response.StatusBadRequest, true},
		{"bad version", "GET / HTTP/4.2\r\n\r\n", response.StatusBadRequest, true},
		{"malformed header", "GET / HTTP/1.1\r\nNoColon\r\n\r\n", response.StatusBadRequest, true},
		{"bad content length", "GET / HTTP/1.1\r\nContent-Length: abc\r\n\r\n", response.StatusBadRequest, true},
		{"body too large", "POST / HTTP/1.1\r\nContent-Length: 999999999999\r\n\r\n", response.StatusPayloadTooLarge, true},
		{"header line too long", "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 9000) + "\r\n\r\n", response.StatusRequestHeaderFieldsTooLarge, true},
		{"request line too long", "GET /" + strings.Repeat("a", 9000) + " HTTP/1.1\r\n\r\n", response.StatusRequestHeaderFieldsTooLarge, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := request.RequestFromReader(strings.NewReader(tt.input))
			require.Error(t, err)

			status, send := statusForParseError(err)
			assert.Equal(t, tt.send, send)
			assert.Equal(t, tt.status, status)
		})
	}
}
