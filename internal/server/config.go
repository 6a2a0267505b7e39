package server

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config holds server configuration
type Config struct {
	Addr string

	// PoolSize is the number of worker goroutines serving connections.
	// Zero serves every connection inline on the accept loop.
	PoolSize int

	// Zero disables the deadline
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger Logger
	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultConfig returns a single-threaded configuration listening on :8080
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		PoolSize:     0,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Logger:       NewDefaultLogger(),
	}
}
