package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/aman1195/helium/api"
	"github.com/aman1195/helium/api/handlers"
	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/conversation"
	"github.com/aman1195/helium/embedding"
	"github.com/aman1195/helium/internal/cache"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/internal/server"
	"github.com/aman1195/helium/internal/telemetry"
	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/protocol/a2a"
	"github.com/aman1195/helium/rag"
	"github.com/aman1195/helium/taskstore"
	"github.com/aman1195/helium/team"
	"github.com/aman1195/helium/tools/websearch"
)

// Server assembles and runs the whole Helium stack.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager *server.Manager

	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	cacheManager  *cache.Manager
	memoryStore   memory.Store
	tasks         taskstore.Store
	conversations conversation.Store
	ragEngine     *rag.Engine

	leader    *team.Leader
	a2aServer *a2a.HTTPServer

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings up every component and begins serving. It returns once
// the HTTP listener is accepting connections.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("helium", s.logger)

	providers, err := telemetry.Init(s.cfg.Telemetry, Version, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.otelProviders = providers

	if err := s.initStorage(); err != nil {
		return err
	}
	s.initTeam()
	s.initA2A()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	s.logger.Info("Helium started",
		zap.Int("port", s.cfg.Server.Port),
		zap.String("store_backend", s.cfg.Store.Backend),
		zap.Bool("cache_enabled", s.cfg.Cache.Enabled),
		zap.Bool("auth_enabled", s.cfg.Auth.Enabled),
	)
	return nil
}

// initStorage opens the cache, agent memory, task store, conversation
// store, and retrieval engine. Only the stores are fatal; the cache
// degrades to disabled.
func (s *Server) initStorage() error {
	if s.cfg.Cache.Enabled {
		manager, err := cache.NewManager(s.cfg.Cache, s.logger)
		if err != nil {
			s.logger.Warn("cache unavailable, continuing without it", zap.Error(err))
		} else {
			s.cacheManager = manager
		}
	}

	memStore, err := memory.NewStore(s.cfg.Memory, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	s.memoryStore = memStore

	tasks, err := taskstore.New(s.cfg.Store, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	s.tasks = tasks

	conversations, err := conversation.New(s.cfg.Store, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	s.conversations = conversations

	embedder, err := embedding.NewProvider(s.cfg.Embedding, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	s.ragEngine = rag.NewEngine(s.cfg.RAG, embedder, rag.EngineDeps{
		Cache:   s.cacheManager,
		Metrics: s.metricsCollector,
		Logger:  s.logger,
	})

	return nil
}

// initTeam assembles Zane and the specialists.
func (s *Server) initTeam() {
	var searcher websearch.Searcher
	if s.cfg.Search.APIKey != "" {
		searcher = websearch.NewClient(s.cfg.Search, s.logger)
	} else {
		s.logger.Info("search API key not configured, analyst uses local knowledge only")
	}

	s.leader = team.New(s.cfg.Team, team.Deps{
		Memory:   s.memoryStore,
		Searcher: searcher,
		Cache:    s.cacheManager,
		Rag:      s.ragEngine,
		Metrics:  s.metricsCollector,
		Logger:   s.logger,
	})
}

// initA2A exposes the team over the agent-to-agent protocol and
// recovers tasks orphaned by a previous run.
func (s *Server) initA2A() {
	s.a2aServer = a2a.NewHTTPServer(a2a.ServerConfig{
		BaseURL:        s.cfg.Server.BaseURL,
		DefaultAgentID: s.leader.ID(),
		RequestTimeout: s.cfg.Server.RequestTimeout,
		Version:        Version,
		EnableAuth:     s.cfg.Auth.Enabled,
		AuthToken:      s.cfg.Auth.Token,
		MaxBodyBytes:   s.cfg.Server.MaxBodyBytes,
		Store:          s.tasks,
		Metrics:        s.metricsCollector,
		Logger:         s.logger,
	})

	s.a2aServer.RegisterAgent(s.leader)
	for _, member := range s.leader.Members() {
		s.a2aServer.RegisterAgent(member)
	}

	recovered := s.a2aServer.RecoverTasks(context.Background())
	if recovered > 0 {
		s.logger.Info("recovered orphaned tasks", zap.Int("count", recovered))
	}
	s.a2aServer.StartCleanupLoop(s.cfg.Store.CleanupInterval, s.cfg.Store.TaskRetention)
}

func (s *Server) startHTTPServer() error {
	versionInfo := api.VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	healthHandler := handlers.NewHealthHandler(versionInfo, s.logger)
	healthHandler.RegisterCheck(handlers.CheckFunc{CheckName: "taskstore", Fn: s.tasks.Ping})
	if s.cacheManager != nil {
		healthHandler.RegisterCheck(handlers.CheckFunc{CheckName: "cache", Fn: s.cacheManager.Ping})
	}

	researchHandler := handlers.NewResearchHandler(s.leader, s.conversations, s.logger)
	teamHandler := handlers.NewTeamHandler(s.leader, s.conversations, s.logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", healthHandler.HandleLive)
	mux.HandleFunc("/readyz", healthHandler.HandleReady)
	mux.HandleFunc("/version", healthHandler.HandleVersion)

	mux.HandleFunc("/api/v1/research", researchHandler.HandleResearch)
	mux.HandleFunc("/api/v1/research/all", researchHandler.HandleResearchAll)
	mux.HandleFunc("/api/v1/team", teamHandler.HandleStatus)
	mux.HandleFunc("/api/v1/agents", teamHandler.HandleAgents)
	mux.HandleFunc("/api/v1/sessions/", teamHandler.HandleHistory)

	// A2A protocol: discovery card plus the /a2a/ tree. The protocol
	// server carries its own bearer auth.
	mux.Handle("/.well-known/agent.json", s.a2aServer)
	mux.Handle("/a2a/", s.a2aServer)

	metricsPath := s.cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if s.cfg.Metrics.Enabled {
		mux.Handle(metricsPath, s.metricsCollector.Handler())
	}

	skipAuthPaths := []string{"/healthz", "/readyz", "/version", metricsPath, "/.well-known/agent.json"}
	skipAuthPrefixes := []string{"/a2a/"}

	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	if s.cfg.Auth.Enabled && s.cfg.Auth.JWTSecret != "" {
		middlewares = append(middlewares,
			JWTAuth(s.cfg.Auth, skipAuthPaths, skipAuthPrefixes, s.logger))
	}
	handler := Chain(mux, middlewares...)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.httpManager.Start()
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops serving and releases every component in reverse
// startup order.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.a2aServer != nil {
		if err := s.a2aServer.Close(); err != nil {
			s.logger.Error("A2A server shutdown error", zap.Error(err))
		}
	}
	if s.tasks != nil {
		if err := s.tasks.Close(); err != nil {
			s.logger.Error("task store close error", zap.Error(err))
		}
	}
	if s.conversations != nil {
		if err := s.conversations.Close(); err != nil {
			s.logger.Error("conversation store close error", zap.Error(err))
		}
	}
	if s.memoryStore != nil {
		if err := s.memoryStore.Close(); err != nil {
			s.logger.Error("memory store close error", zap.Error(err))
		}
	}
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("cache close error", zap.Error(err))
		}
	}
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
