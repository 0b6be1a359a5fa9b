// Package server exposes a running simulation to viewers over HTTP and
// WebSocket. Viewers only watch; the one mutation offered is uploading team
// code, which is versioned in the code store before it is installed.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/zeusync/fleetsim/internal/core/models"
	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/storage"
)

// Runner is the part of runner.Runner the server drives.
type Runner interface {
	UploadCode(ctx context.Context, team int, code string) error
	Subscribe(buffer int) (<-chan models.Snapshot, func())
	Latest() models.Snapshot
}

// CodeStore is the part of storage.VersionControl the server uses.
type CodeStore interface {
	CreateVersion(ctx context.Context, p storage.CreateVersionParams) (*storage.Version, error)
	ListVersions(ctx context.Context, scenario string) ([]storage.Version, error)
}

// Config holds server configuration
type Config struct {
	ListenAddr string
	// Scenario labels uploaded versions and is the default filter for listings.
	Scenario string
	// UploadToken guards code uploads. Empty allows anyone.
	UploadToken string
	// UploadsPerMinute limits code uploads per remote host. Zero disables it.
	UploadsPerMinute int
	MaxCodeSize      int64
	SnapshotBuffer   int
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:       "127.0.0.1:8080",
		UploadsPerMinute: 30,
		MaxCodeSize:      1 << 20,
		SnapshotBuffer:   8,
		WriteTimeout:     5 * time.Second,
		ShutdownTimeout:  5 * time.Second,
	}
}

type Server struct {
	config  Config
	logger  log.Log
	runner  Runner
	store   CodeStore
	metrics http.Handler
	limiter *rateLimiter

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	done     chan struct{}
	cancel   context.CancelFunc
}

// NewServer wires the handlers. store and metrics may be nil, which disables
// the version and metrics endpoints.
func NewServer(config Config, runner Runner, store CodeStore, metrics http.Handler, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if config.SnapshotBuffer < 1 {
		config.SnapshotBuffer = 1
	}
	return &Server{
		config:  config,
		logger:  logger,
		runner:  runner,
		store:   store,
		metrics: metrics,
		limiter: newRateLimiter(config.UploadsPerMinute, time.Minute, logger),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	api := http.NewServeMux()
	api.HandleFunc("GET /snapshot", s.handleSnapshot)
	api.Handle("POST /teams/{id}/code", s.limiter.middleware(tokenAuth(s.config.UploadToken, http.HandlerFunc(s.handleUpload))))
	if s.store != nil {
		api.HandleFunc("GET /versions", s.handleVersions)
	}
	if s.metrics != nil {
		api.Handle("GET /metrics", s.metrics)
	}
	mux.Handle("/", requestLogging(s.logger, api))
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}

	// canceling the base context also ends hijacked websocket streams
	base, cancel := context.WithCancel(ctx)
	s.listener = listener
	s.cancel = cancel
	s.done = make(chan struct{})
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", log.Error(err))
		}
	}(s.http, s.done)

	s.logger.Info("server started", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or an empty string before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting for in-flight requests up to the
// shutdown timeout.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, done, stopStreams := s.http, s.done, s.cancel
	s.http, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return ErrServerNotRunning
	}
	stopStreams()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	s.logger.Info("server stopped")
	return err
}
