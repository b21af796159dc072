package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"palisade-hq/palisade/pkg/config"
	"palisade-hq/palisade/pkg/gate"
	keystore "palisade-hq/palisade/pkg/keys/store"
	"palisade-hq/palisade/pkg/moderation"
	"palisade-hq/palisade/pkg/telemetry/health"
	"palisade-hq/palisade/pkg/telemetry/metrics"
	"palisade-hq/palisade/pkg/usage"
)

// Backend performs the three downstream moderation analyses. Satisfied by
// moderation.Client.
type Backend interface {
	ModerateText(ctx context.Context, input *moderation.TextInput) (*moderation.Verdict, error)
	ModerateImage(ctx context.Context, input *moderation.ImageInput) (*moderation.Verdict, error)
	ModerateContextual(ctx context.Context, input *moderation.ContextualInput) (*moderation.ContextualVerdict, error)
}

// Options collects the dependencies of the HTTP server.
type Options struct {
	Config  *config.Config
	Gate    *gate.Gate
	Keys    keystore.Store
	Usage   usage.Storage
	Backend Backend

	// Metrics is optional; a nil value disables instrumentation and the
	// scrape endpoint.
	Metrics *metrics.Metrics

	// Health is optional; a fresh checker with no component checks is
	// used when nil.
	Health *health.Checker

	// Build information served on the version endpoint.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP front of the service.
type Server struct {
	config  *config.Config
	gate    *gate.Gate
	keys    keystore.Store
	usage   usage.Storage
	backend Backend
	metrics *metrics.Metrics
	health  *health.Checker
	logger  *slog.Logger

	version   string
	commit    string
	buildTime string

	httpServer   *http.Server
	shutdownOnce sync.Once
}

// New creates the server and wires up its routes.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("gate is required")
	}
	if opts.Keys == nil {
		return nil, fmt.Errorf("key store is required")
	}
	if opts.Usage == nil {
		return nil, fmt.Errorf("usage storage is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("moderation backend is required")
	}

	checker := opts.Health
	if checker == nil {
		checker = health.New(0)
	}

	s := &Server{
		config:    opts.Config,
		gate:      opts.Gate,
		keys:      opts.Keys,
		usage:     opts.Usage,
		backend:   opts.Backend,
		metrics:   opts.Metrics,
		health:    checker,
		logger:    slog.Default().With("component", "server"),
		version:   opts.Version,
		commit:    opts.Commit,
		buildTime: opts.BuildTime,
	}

	s.httpServer = &http.Server{
		Addr:           opts.Config.Server.ListenAddress,
		Handler:        s.buildHandler(),
		ReadTimeout:    opts.Config.Server.ReadTimeout,
		WriteTimeout:   opts.Config.Server.WriteTimeout,
		IdleTimeout:    opts.Config.Server.IdleTimeout,
		MaxHeaderBytes: opts.Config.Server.MaxHeaderBytes,
	}

	return s, nil
}

// Handler returns the fully assembled handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called, in which case it returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		"address", s.httpServer.Addr,
		"version", s.version,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests. Safe to call more than
// once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down HTTP server")
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}
