// Package browse serves a directory of cache files as JSON and text for
// inspection in a browser or with curl.
package browse

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robert-malhotra/go-mayacache/mcc"
)

const scanCacheSize = 256

// Server answers read-only requests about the files in one directory.
type Server struct {
	dir      string
	registry *mcc.Registry
	scanner  *mcc.ChannelScanner
	logger   *slog.Logger
	access   io.Writer
	promReg  *prometheus.Registry
	metrics  *metrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for server events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAccessLog sets where requests are logged in Apache common format.
// The default is stderr.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		if w != nil {
			s.access = w
		}
	}
}

// New builds a server from cfg. The registry override file, if any, is
// loaded now.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := mcc.DefaultRegistry()
	if cfg.Registry != "" {
		var err error
		if reg, err = mcc.LoadRegistryFile(cfg.Registry, reg); err != nil {
			return nil, err
		}
	}
	scanner, err := mcc.NewChannelScanner(scanCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		dir:      cfg.Dir,
		registry: reg,
		scanner:  scanner,
		logger:   slog.New(slog.DiscardHandler),
		access:   os.Stderr,
		promReg:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.promReg)
	return s, nil
}

// Router returns the routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.HandleFunc("/json/files", s.handleFiles).Methods(http.MethodGet)
	r.HandleFunc("/json/file/{name}", s.handleFile).Methods(http.MethodGet)
	r.HandleFunc("/json/file/{name}/channels", s.handleChannels).Methods(http.MethodGet)
	r.HandleFunc("/dump/file/{name}", s.handleDump).Methods(http.MethodGet)
	r.HandleFunc("/json/cache/{name}", s.handleCache).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// Handler returns the routes wrapped with panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(s.access, h)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr, "dir", s.dir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
