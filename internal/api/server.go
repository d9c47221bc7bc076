package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/cad"
	"github.com/nerrad567/firecad/internal/infrastructure/config"
	"github.com/nerrad567/firecad/internal/infrastructure/logging"
	"github.com/nerrad567/firecad/internal/metrics"
	"github.com/nerrad567/firecad/internal/pipeline"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultMaxUploadMB applies when api.max_upload_mb is unset.
const defaultMaxUploadMB = 50

// FormatLister reports the registered drawing formats. Satisfied by
// *firesafety.Analyzer.
type FormatLister interface {
	Formats() []cad.FormatInfo
}

// HealthChecker is satisfied by the database, MQTT and InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Formats  FormatLister
	Pipeline *pipeline.Pipeline
	Archive  archive.Repository // optional; analyses routes answer 503 without it
	Metrics  *metrics.Registry  // optional; /metrics is not mounted without it
	Checks   map[string]HealthChecker
	Version  string
}

// Server is the HTTP API server for FireCAD.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	formats   FormatLister
	pipeline  *pipeline.Pipeline
	archive   archive.Repository
	metrics   *metrics.Registry
	checks    map[string]HealthChecker
	version   string
	validate  *validator.Validate
	maxUpload int64

	server *http.Server
	addr   net.Addr
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Formats == nil {
		return nil, fmt.Errorf("format lister is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("analysis pipeline is required")
	}

	maxUploadMB := deps.Config.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.Component("api"),
		formats:   deps.Formats,
		pipeline:  deps.Pipeline,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		checks:    deps.Checks,
		version:   deps.Version,
		validate:  validator.New(),
		maxUpload: int64(maxUploadMB) << 20,
	}, nil
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine. Bind
// errors (port in use) are returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr()

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.addr.String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.addr.String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
