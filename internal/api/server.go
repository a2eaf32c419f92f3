// Package api exposes the conversational pipeline as a JSON HTTP API.
//
// Endpoints:
//   - POST /chat: one conversational turn
//   - POST /clear: drop a session's history
//   - GET /healthz: liveness probe with version
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/askdoc/askdoc/internal/chat"
)

// Orchestrator is the pipeline surface the API consumes. Interface defined
// by the consumer; satisfied by *chat.Orchestrator.
type Orchestrator interface {
	Respond(ctx context.Context, sessionID, message string) (chat.Response, error)
	Clear(sessionID string) bool
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Version     string   // reported by /healthz
	CORSOrigins []string // allowed origins for CORS
	TrustProxy  bool     // trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int      // rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(orchestrator Orchestrator, cfg ServerConfig) (*Server, error) {
	if orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{
		orchestrator: orchestrator,
		logger:       logger,
		version:      cfg.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("POST /clear", h.clear)
	mux.HandleFunc("GET /healthz", h.healthz)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var wrapped http.Handler = mux
	wrapped = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(wrapped)
	wrapped = corsMiddleware(cfg.CORSOrigins)(wrapped)
	wrapped = loggingMiddleware(logger)(wrapped)
	wrapped = requestIDMiddleware()(wrapped)
	wrapped = recoveryMiddleware(logger)(wrapped)

	top := http.NewServeMux()
	top.Handle("/", wrapped)

	return &Server{mux: top}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
