package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/minihttp/internal/server"
	"github.com/Brownie44l1/minihttp/internal/telemetry"
)

const serviceName = "minihttp"

func main() {
	addr := flag.String("addr", "0.0.0.0:4000", "address to listen on")
	threaded := flag.Bool("threaded", false, "serve connections on a worker pool")
	threads := flag.Int("threads-count", 50, "worker pool size, used with -threaded")
	logFormat := flag.String("log", "console", "log output: console, json or otel")
	flag.Parse()

	if err := run(*addr, *threaded, *threads, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "httpserver: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, threaded bool, threads int, logFormat string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTelemetry(ctx)
	}()

	logger, err := newLogger(logFormat)
	if err != nil {
		return err
	}

	config := server.DefaultConfig()
	config.Addr = addr
	config.Logger = logger
	if threaded {
		config.PoolSize = threads
	}

	srv, err := server.New(config, newRouter().Handler())
	if err != nil {
		return err
	}

	srv.Use(
		server.RequestIDMiddleware(),
		server.LoggingMiddleware(logger),
		server.RecoveryMiddleware(logger),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, server.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		stop()
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	stats := srv.Stats()
	logger.Info("server stopped",
		server.Field{Key: "requests_total", Value: stats.RequestsTotal},
		server.Field{Key: "errors_total", Value: stats.ErrorsTotal},
		server.Field{Key: "parse_errors", Value: stats.ParseErrors},
		server.Field{Key: "average_latency", Value: stats.AverageLatency.String()},
	)
	return nil
}

func newLogger(format string) (server.Logger, error) {
	switch format {
	case "console":
		return server.NewDefaultLogger(), nil
	case "json":
		return server.NewLogger(os.Stdout), nil
	case "otel":
		return server.NewOTelLogger(serviceName), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
