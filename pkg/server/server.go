// Package server implements the coordchat server: the connection acceptor,
// the shared session registry, coordinator hand-off, and the command router
// that turns inbound lines into broadcasts, private deliveries, and
// member-detail approvals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"coordchat/pkg/oplog"
	"coordchat/pkg/protocol"
)

// Config holds server configuration.
type Config struct {
	Addr        string // TCP bind address (e.g. ":59001")
	MaxClients  int    // worker budget; excess accepted connections wait for a slot
	OplogPath   string // SQLite operational log path (empty = in-memory)
	MetricsAddr string // HTTP bind address for /metrics (empty = disabled)
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        fmt.Sprintf(":%d", protocol.DefaultPort),
		MaxClients:  500,
		MetricsAddr: ":59002",
	}
}

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Log and will Close() it on shutdown.
type Dependencies struct {
	Log oplog.Log
}

// Server is the coordchat server.
type Server struct {
	cfg          Config
	registry     *Registry
	metrics      *Metrics
	oplog        oplog.Log
	listener     net.Listener
	slots        chan struct{}
	nextClientID atomic.Int64
	ctx          context.Context
	cancel       context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultConfig().MaxClients
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		registry: NewRegistry(),
		metrics:  NewMetrics(),
		oplog:    deps.Log,
		slots:    make(chan struct{}, cfg.MaxClients),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start opens the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (s *Server) Start() error {
	if s.oplog == nil {
		return fmt.Errorf("server: missing oplog dependency")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln
	slog.Info("chat server listening", "addr", ln.Addr().String(), "max_clients", s.cfg.MaxClients)

	go s.acceptLoop(ln)
	return nil
}

// acceptLoop accepts connections and hands each to a worker. Each accepted
// connection first claims a slot from the fixed worker budget; connections
// beyond the budget queue here rather than being rejected.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				slog.Error("accept error", "err", err)
				continue
			}
		}

		go func() {
			select {
			case s.slots <- struct{}{}:
			case <-s.ctx.Done():
				_ = conn.Close()
				return
			}
			defer func() { <-s.slots }()
			s.handleConn(conn)
		}()
	}
}

// Run starts the server and blocks until a shutdown signal.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}
	defer func() {
		if s.oplog != nil {
			_ = s.oplog.Close()
		}
	}()

	s.StartMetricsHTTP()
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Shutdown stops accepting and closes every live session.
func (s *Server) Shutdown() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, sess := range s.registry.Snapshot() {
		sess.Close()
	}
}
