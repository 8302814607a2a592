// Package server exposes the analysis pipeline, game data and session store
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stressoscope/internal/analysis"
	"stressoscope/internal/observability"
	"stressoscope/internal/session"
)

// Deps are the collaborators served by the HTTP layer.
type Deps struct {
	Analyzer *analysis.Analyzer
	Sessions *session.Store
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	// Gatherer backs the metrics endpoint. Nil disables it.
	Gatherer prometheus.Gatherer
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	MetricsPath    string
	Version        string
	Debug          bool
}

// Server wires the gin engine.
type Server struct {
	deps      Deps
	opts      Options
	engine    *gin.Engine
	startTime time.Time
}

// New builds the router. deps.Analyzer and deps.Sessions are required.
func New(deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.LogConfig{})
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(recoveryHandler(deps.Logger)))
	engine.Use(RequestIDMiddleware())
	engine.Use(AccessLogMiddleware(deps.Logger, deps.Metrics))
	engine.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s := &Server{deps: deps, opts: opts, engine: engine, startTime: time.Now()}
	s.setupRoutes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", RequestIDHeader}
	cfg.ExposeHeaders = []string{SourceHeader, RequestIDHeader}
	return cfg
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.Use(JSONMiddleware())
	api.Use(BodyLimitMiddleware(s.opts.MaxBodyBytes))

	api.GET("/health", s.handleHealth)
	api.POST("/analyze", s.handleAnalyze)

	games := api.Group("/games")
	{
		games.GET("/cosmic", s.handleCosmicCatalog)
		games.POST("/constellation/classify", s.handleClassify)
		games.GET("/memory/levels/:level", s.handleMemoryLevel)
		games.GET("/narrative/script", s.handleNarrativeScript)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.handleGetSession)
		sessions.PUT("/:id", s.handlePutSession)
		sessions.DELETE("/:id", s.handleDeleteSession)
		sessions.POST("/:id/actions", s.handleSessionAction)
		sessions.POST("/:id/analyze", s.handleSessionAnalyze)
	}

	if s.deps.Gatherer != nil {
		s.engine.GET(s.opts.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.deps.Logger.Info("HTTP server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
