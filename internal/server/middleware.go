package server

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Brownie44l1/minihttp/internal/headers"
	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
)

// LoggingMiddleware logs all requests
func LoggingMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return func(req *request.Request) response.Response {
			start := time.Now()

			resp := next(req)

			logger.Info("request handled",
				Field{"method", req.Method.String()},
				Field{"path", req.Path},
				Field{"status", resp.Status.Code()},
				Field{"duration_ms", time.Since(start).Milliseconds()},
				Field{"request_id", RequestID(req)},
				Field{"client_ip", ClientIP(req)},
			)

			return resp
		}
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return func(req *request.Request) (resp response.Response) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						Field{"error", fmt.Sprint(err)},
						Field{"stack", string(debug.Stack())},
						Field{"request_id", RequestID(req)},
						Field{"path", req.Path},
					)

					resp = response.Error(response.StatusInternalServerError, "Internal Server Error")
				}
			}()

			return next(req)
		}
	}
}

// RequestIDMiddleware gives every request an id, keeping one sent by the
// client, and echoes it in the response.
func RequestIDMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(req *request.Request) response.Response {
			id := RequestID(req)
			if id == "" {
				id = uuid.NewString()
				if req.Headers == nil {
					req.Headers = headers.NewHeaders()
				}
				req.Headers.Set(RequestIDHeader, id)
			}

			return next(req).WithHeader(RequestIDHeader, id)
		}
	}
}

// RateLimiter implements a simple token bucket rate limiter per IP
type RateLimiter struct {
	mu              sync.Mutex
	buckets         map[string]*bucket
	rate            int           // requests per window
	window          time.Duration // time window
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a new rate limiter allowing rate requests per
// window for each client. Call Stop to end its cleanup goroutine.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:         make(map[string]*bucket),
		rate:            rate,
		window:          window,
		cleanupInterval: window * 2,
		stop:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given IP should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	b, exists := rl.buckets[ip]
	if !exists {
		rl.buckets[ip] = &bucket{
			tokens:    rl.rate - 1,
			lastReset: now,
		}
		return rl.rate > 0
	}

	// Reset bucket if window has passed
	if now.Sub(b.lastReset) >= rl.window {
		b.tokens = rl.rate - 1
		b.lastReset = now
		return rl.rate > 0
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

// cleanup removes old bucket entries periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		for ip, b := range rl.buckets {
			if now.Sub(b.lastReset) > rl.window*2 {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware answers 429 once a client runs out of tokens
func RateLimitMiddleware(limiter *RateLimiter) Middleware {
	return func(next Handler) Handler {
		return func(req *request.Request) response.Response {
			if !limiter.Allow(ClientIP(req)) {
				return response.Error(response.StatusTooManyRequests, "Rate limit exceeded").
					WithHeader("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			}

			return next(req)
		}
	}
}

// CORSMiddleware adds CORS headers for allowed origins and answers their
// preflight requests directly. Other requests pass through untouched.
func CORSMiddleware(config CORSConfig) Middleware {
	return func(next Handler) Handler {
		return func(req *request.Request) response.Response {
			origin, _ := req.Header("Origin")
			if origin == "" || !isAllowedOrigin(origin, config.AllowedOrigins) {
				return next(req)
			}

			// Preflight requests from allowed origins never reach the handler
			var resp response.Response
			if req.Method == request.MethodOptions {
				resp = response.NoContent()
			} else {
				resp = next(req)
			}

			resp = resp.
				WithHeader("Access-Control-Allow-Origin", origin).
				WithHeader("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", ")).
				WithHeader("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))

			if config.AllowCredentials {
				resp = resp.WithHeader("Access-Control-Allow-Credentials", "true")
			}

			if config.MaxAge > 0 {
				resp = resp.WithHeader("Access-Control-Max-Age", strconv.Itoa(int(config.MaxAge.Seconds())))
			}

			return resp
		}
	}
}

// CORSConfig configures CORS middleware
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns a permissive CORS config (for development)
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

func isAllowedOrigin(origin string, allowed []string) bool {
	for _, allowedOrigin := range allowed {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}
