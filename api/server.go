// Package api exposes the agent over HTTP.
//
// Endpoints:
//
//	POST /api/chat  — run one conversation turn, reply streamed as SSE
//	GET  /health    — liveness probe
//	GET  /ready     — readiness probe (database ping)
//
// Health probes bypass the middleware stack so orchestration failures
// or rate limiting never mask process liveness.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JerePrograma/laburen-agent/internal/events"
	"github.com/JerePrograma/laburen-agent/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to prevent Slowloris abuse.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout must cover a full streamed turn: provider round
	// trips plus synthetic token pacing.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// TurnRunner runs one conversation turn, emitting its event log to the
// sink. Satisfied by *agent.Orchestrator.
type TurnRunner interface {
	RunTurn(ctx context.Context, conversationID, message string, emit events.Sink) error
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Logger       log.Logger
	Orchestrator TurnRunner    // required
	Pool         *pgxpool.Pool // optional: nil degrades /ready to 503
	RateBurst    int           // per-IP burst, 0 = default 30
}

// Server is the agent's HTTP front end.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer builds the server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{orchestrator: cfg.Orchestrator, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.chat)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware order, outermost first: recovery → logging → rate limit.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack.
	hh := &healthHandler{pool: cfg.Pool, logger: logger}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the fully assembled http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the server and blocks until ctx is cancelled or the
// listener fails. Shutdown is graceful with a bounded deadline.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
