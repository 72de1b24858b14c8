// Package http exposes the payment API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/middleware/ratelimit"
	"github.com/adiawaskar/smart-upi-poc/internal/middleware/security"
	"github.com/adiawaskar/smart-upi-poc/internal/middleware/trace"
	"github.com/adiawaskar/smart-upi-poc/internal/services"
)

const maxBodyBytes = 1 << 20

// TransactionAPI is the transaction service as seen by handlers.
type TransactionAPI interface {
	SendMoney(ctx context.Context, userID string, req services.SendMoneyRequest) (core.Transaction, error)
	List(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
	Stats(ctx context.Context, userID string) (core.Stats, error)
	Dashboard(ctx context.Context, userID string) (core.Dashboard, error)
}

// AuthAPI is the account service as seen by handlers.
type AuthAPI interface {
	Register(ctx context.Context, req services.RegisterRequest) (services.Session, error)
	Login(ctx context.Context, email, password string) (services.Session, error)
	Me(ctx context.Context, userID string) (core.User, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Config struct {
	Addr               string
	Transactions       TransactionAPI
	Auth               AuthAPI
	Tokens             TokenVerifier
	Logger             *applog.Logger
	RateLimitPerMinute int
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	txs      TransactionAPI
	auth     AuthAPI
	tokens   TokenVerifier
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		txs:      cfg.Transactions,
		auth:     cfg.Auth,
		tokens:   cfg.Tokens,
		ready:    cfg.Ready,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(applog.Middleware(logger, trace.FromRequest))
	r.Use(applog.AccessLog(s.detector.ExtractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited))
		r.Get("/categories", handleCategories)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleSendMoney)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/stats", s.handleStats)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
