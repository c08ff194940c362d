package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"citycouncil/internal/app"
	"citycouncil/internal/config"
	"citycouncil/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	service *app.Service
	hub     *app.Hub
	config  *config.Config
	logger  *slog.Logger
	limiter *ClientLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, service *app.Service, hub *app.Hub, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		hub:     hub,
		config:  cfg,
		logger:  logger,
		limiter: NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// routes configures all HTTP routes
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.middleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Get("/rooms", s.handleListRooms)
		r.With(s.rateLimit).Post("/rooms", s.handleCreateRoom)

		r.Route("/rooms/{roomId}", func(r chi.Router) {
			r.Get("/", s.handleGetRoom)
			r.Get("/invite.png", s.handleInviteQR)

			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit)
				r.Post("/join", s.handleJoin)
				r.Post("/leave", s.handleLeave)
				r.Post("/ready", s.handleReady)
				r.Post("/start", s.handleStart)
				r.Post("/vote", s.handleVote)
				r.Post("/resolve", s.handleResolve)
				r.Post("/next", s.handleNext)
				r.Post("/petition", s.handlePetition)
			})
		})
	})

	// WebSocket
	r.Method(http.MethodGet, "/ws", ws.NewHandler(s.service, s.hub, s.logger, s.config.RateLimit))

	return r
}

// middleware wraps the handler with CORS and request logging
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Add CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		if r.URL.Path == "/api/health" && !s.config.IsDevelopment() {
			level = slog.LevelDebug
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

// rateLimit throttles mutating requests per client address
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			s.sendError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	s.limiter.Stop()
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
