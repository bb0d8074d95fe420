package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Config holds listener and timeout settings.
type Config struct {
	// Listen address, host:port
	Addr string `yaml:"addr" json:"addr"`

	// Read timeout
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`

	// Write timeout
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// Idle connection timeout
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`

	// Maximum request header size
	MaxHeaderBytes int `yaml:"max_header_bytes" json:"max_header_bytes"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: 30 * time.Second,
	}
}

// Manager owns an http.Server's lifecycle: non-blocking start,
// signal-driven graceful shutdown, and asynchronous error reporting.
type Manager struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	config   Config
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewManager creates a server manager for the handler.
func NewManager(handler http.Handler, config Config, logger *zap.Logger) *Manager {
	return &Manager{
		server: &http.Server{
			Addr:           config.Addr,
			Handler:        handler,
			ReadTimeout:    config.ReadTimeout,
			WriteTimeout:   config.WriteTimeout,
			IdleTimeout:    config.IdleTimeout,
			MaxHeaderBytes: config.MaxHeaderBytes,
		},
		errCh:  make(chan error, 1),
		config: config,
		logger: logger.With(zap.String("component", "http_server")),
	}
}

// Start begins listening and serving. It returns once the listener is
// bound; serving continues in the background.
func (m *Manager) Start() error {
	listener, err := m.listen()
	if err != nil {
		return err
	}

	m.logger.Info("starting HTTP server", zap.String("addr", m.config.Addr))
	go func() {
		m.reportServeError(m.server.Serve(listener))
	}()
	return nil
}

// StartTLS begins serving HTTPS with the given certificate pair.
func (m *Manager) StartTLS(certFile, keyFile string) error {
	listener, err := m.listen()
	if err != nil {
		return err
	}

	m.logger.Info("starting HTTPS server",
		zap.String("addr", m.config.Addr),
		zap.String("cert", certFile),
	)
	go func() {
		m.reportServeError(m.server.ServeTLS(listener, certFile, keyFile))
	}()
	return nil
}

// listen binds the configured address. A manager serves at most once;
// starting twice or after shutdown is an error.
func (m *Manager) listen() (net.Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("server is closed")
	}
	if m.listener != nil {
		return nil, fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", m.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", m.config.Addr, err)
	}
	m.listener = listener
	return listener, nil
}

// reportServeError publishes a serve failure without blocking.
func (m *Manager) reportServeError(err error) {
	if err == nil || err == http.ErrServerClosed {
		return
	}
	m.logger.Error("server failed", zap.Error(err))
	select {
	case m.errCh <- err:
	default:
	}
}

// Shutdown drains in-flight requests within the shutdown timeout.
// Shutdown is idempotent.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()

	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	m.listener = nil

	m.logger.Info("HTTP server stopped")
	return nil
}

// WaitForShutdown blocks until SIGINT, SIGTERM, or a serve error, then
// shuts the server down.
func (m *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		m.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-m.errCh:
		if err != nil {
			m.logger.Error("server exited unexpectedly", zap.Error(err))
		}
	}

	if err := m.Shutdown(context.Background()); err != nil {
		m.logger.Error("shutdown error", zap.Error(err))
	}
}

// Errors returns asynchronous serve errors.
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// Addr returns the configured listen address.
func (m *Manager) Addr() string {
	return m.config.Addr
}

// IsRunning reports whether the server has not been shut down.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}
