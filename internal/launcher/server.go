// Package launcher is the local HTTP front end that starts automation
// scripts as detached processes and exposes the shared log file.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
	"github.com/xkilldash9x/seeqlo-runner/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidScript is returned for keys that are not registered.
var ErrInvalidScript = errors.New("invalid script type")

// RunLister reads run history. *store.Store satisfies it.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Option configures a Server.
type Option func(*Server)

// WithRuns enables GET /runs.
func WithRuns(runs RunLister) Option {
	return func(s *Server) { s.runs = runs }
}

// WithScripts replaces the script registry.
func WithScripts(all func() []activities.Script) Option {
	return func(s *Server) { s.scripts = all }
}

// Server serves the launcher routes.
type Server struct {
	cfg     config.ServerConfig
	logFile string
	logger  *zap.Logger
	spawner Spawner
	runs    RunLister
	scripts func() []activities.Script

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewServer(cfg config.Interface, spawner Spawner, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg.Server(),
		logFile:  observability.ExpandPath(cfg.Logger().LogFile),
		logger:   logger.Named("launcher"),
		spawner:  spawner,
		scripts:  activities.All,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/run-script", s.handleRunScript).Methods(http.MethodGet)
	r.HandleFunc("/clear-logs", s.handleClearLogs).Methods(http.MethodPost)
	r.HandleFunc("/automation_logs.json", s.handleLogFile).Methods(http.MethodGet)
	r.HandleFunc("/scripts", s.handleScripts).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	r.HandleFunc("/logs/ws", s.handleLogStream).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	r.Use(corsMiddleware)
	r.Use(s.loggingMiddleware)
	// Preflight requests are answered by corsMiddleware.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Launcher listening", zap.String("address", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down launcher...")

		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("Launcher stopped.")
	return err
}

// limiter returns the spawn limiter of key, creating it on first use.
func (s *Server) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[key]
	if !ok {
		limit := rate.Inf
		if s.cfg.SpawnPerMinute > 0 {
			limit = rate.Limit(s.cfg.SpawnPerMinute / 60)
		}
		burst := s.cfg.SpawnBurst
		if burst < 1 {
			burst = 1
		}
		l = rate.NewLimiter(limit, burst)
		s.limiters[key] = l
	}
	return l
}

func (s *Server) lookup(key string) (activities.Script, bool) {
	for _, sc := range s.scripts() {
		if sc.Key == key {
			return sc, true
		}
	}
	return activities.Script{}, false
}
