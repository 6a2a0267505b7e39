package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

// serveConn handles the single request of one connection and closes it
func (s *Server) serveConn(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	start := time.Now()
	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	remote := conn.RemoteAddr().String()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}

	br := getReader(conn)
	defer putReader(br)

	req, err := request.Parse(br)
	if err != nil {
		s.handleParseError(conn, remote, err)
		return
	}
	req.RemoteAddr = remote

	ctx := otel.GetTextMapPropagator().Extract(context.Background(), headerCarrier{req.Headers})
	ctx, span := s.tracer.Start(ctx, req.Method.String(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method.String()),
			attribute.String("url.path", req.Path),
			attribute.String("network.protocol.version", req.Version.String()),
			attribute.String("client.address", remote),
		),
	)
	defer span.End()

	resp := s.handleRequest(req)

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}

	w := response.NewWriter(conn)
	if err := w.WriteResponse(req.Version, resp); err != nil {
		s.logger.Error("writing response failed",
			Field{"remote_addr", remote},
			Field{"path", req.Path},
			Field{"error", err.Error()},
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.Status.Code()),
		attribute.Int64("http.response.size", w.BytesWritten()),
	)
	if resp.Status.IsServerError() {
		span.SetStatus(codes.Error, resp.Status.String())
	}

	s.metrics.RecordRequest(ctx, req.Method.String(), resp.Status.Code(), time.Since(start))
}

// handleRequest calls the handler, turning a panic into a 500
func (s *Server) handleRequest(req *request.Request) (resp response.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				Field{"error", fmt.Sprint(r)},
				Field{"path", req.Path},
				Field{"stack", string(debug.Stack())},
			)
			resp = response.Error(response.StatusInternalServerError, "")
		}
	}()

	return s.currentHandler()(req)
}

// handleParseError answers a request that could not be parsed. Nothing is
// sent when the peer closed without sending a request line.
func (s *Server) handleParseError(conn net.Conn, remote string, err error) {
	s.metrics.RecordParseError(context.Background())

	status, ok := statusForParseError(err)
	if !ok {
		s.logger.Debug("connection closed before request line",
			Field{"remote_addr", remote},
			Field{"error", err.Error()},
		)
		return
	}

	s.logger.Warn("bad request",
		Field{"remote_addr", remote},
		Field{"status", status.Code()},
		Field{"error", err.Error()},
	)

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}

	w := response.NewWriter(conn)
	if werr := w.WriteResponse(request.Version11, response.Error(status, err.Error())); werr != nil {
		s.logger.Error("writing error response failed",
			Field{"remote_addr", remote},
			Field{"error", werr.Error()},
		)
	}
}

// statusForParseError maps a parse failure to a response status. It reports
// false when no response should be sent.
func statusForParseError(err error) (response.Status, bool) {
	switch {
	case errors.Is(err, request.ErrMissingRequestLine):
		return 0, false
	case errors.Is(err, request.ErrBodyTooLarge):
		return response.StatusPayloadTooLarge, true
	case errors.Is(err, request.ErrLineTooLong), errors.Is(err, request.ErrTooManyHeaders):
		return response.StatusRequestHeaderFieldsTooLarge, true
	default:
		return response.StatusBadRequest, true
	}
}
