package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/console"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/handler"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/openapi"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string // empty means same-origin only
	LoginRateLimit  int // sign-in attempts per minute per IP; 0 disables
	Version         string
}

// DefaultConfig returns a Config bound to localhost with no cross-origin
// access. The session is process-wide, so any origin allowed here can act
// as the signed-in operator.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8090,
		ShutdownTimeout: 10 * time.Second,
		LoginRateLimit:  20,
		Version:         "dev",
	}
}

// Views are the guarded console pages and the permission each one needs.
var Views = []openapi.View{
	{Name: "dashboard", Path: "/dashboard", Permission: rbac.PermDashboard},
	{Name: "purchases", Path: "/purchases", Permission: rbac.PermPurchases},
	{Name: "transfers", Path: "/transfers", Permission: rbac.PermTransfers},
	{Name: "assignments", Path: "/assignments", Permission: rbac.PermAssignments},
	{Name: "expenditures", Path: "/expenditures", Permission: rbac.PermExpenditures},
}

// Server is the HTTP surface of the asset console. It owns the Chi router and
// serves sign-in, session inspection and the guarded views.
type Server struct {
	cfg        Config
	router     chi.Router
	console    *console.Console
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, c *console.Console, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		console: c,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, s.currentUser))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	// cors treats an empty origin list as "allow all", so skip it entirely.
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: !slices.Contains(s.cfg.CORSOrigins, "*"),
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.Version, Views).ServeSpec)

	sessionHandler := handler.NewSessionHandler(s.console, s.logger)
	viewHandler := handler.NewViewHandler(s.console)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(s.cfg.LoginRateLimit)).Post("/session", sessionHandler.Login)
		r.Get("/session", sessionHandler.Current)
		r.Delete("/session", sessionHandler.Logout)
		r.Get("/navigation", sessionHandler.Navigation)
		r.Get("/permissions/{permission}", sessionHandler.CheckPermission)
		r.Get("/roles", sessionHandler.ListRoles)
	})

	// --- Console views ---
	r.Get(s.console.Guard().LoginPath(), viewHandler.LoginPage)
	for _, v := range Views {
		r.With(s.console.Require(v.Permission)).Get(v.Path, viewHandler.View(v.Name))
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.console.Guard().DefaultPath(), http.StatusSeeOther)
	})

	s.router = r
}

// currentUser names the signed-in user for request logs. It never triggers
// the session restore.
func (s *Server) currentUser(r *http.Request) string {
	if s.console.Loading() {
		return ""
	}
	if id, ok := s.console.CurrentIdentity(r.Context()); ok {
		return id.Username
	}
	return ""
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 503 until the persisted session
// has been restored, so guarded views are not served while still loading.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if s.console.Loading() {
		status = "loading"
		httpStatus = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        status,
		"authenticated": !s.console.Loading() && s.console.IsAuthenticated(r.Context()),
	})
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: message},
	})
}

// ListenAndServe restores the persisted session in the background, starts
// the HTTP server and blocks until a SIGINT or SIGTERM is received. It then
// performs a graceful shutdown, draining in-flight requests.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Guarded views answer 503 until this finishes.
	go s.restoreSession(ctx)

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Backoff bounds for retrying the session restore while storage is down.
var (
	restoreRetryMin = time.Second
	restoreRetryMax = 30 * time.Second
)

// restoreSession restores the persisted session, retrying with backoff while
// the storage backend fails. It returns once restored or when ctx ends.
func (s *Server) restoreSession(ctx context.Context) {
	delay := restoreRetryMin
	for {
		err := s.console.Restore(ctx)
		if err == nil {
			s.logger.Info("session restored", "authenticated", s.console.IsAuthenticated(ctx))
			return
		}
		s.logger.Warn("session restore failed, retrying", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, restoreRetryMax)
	}
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
