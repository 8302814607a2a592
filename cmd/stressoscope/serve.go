package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stressoscope/internal/analysis"
	"stressoscope/internal/config"
	"stressoscope/internal/llm"
	"stressoscope/internal/observability"
	"stressoscope/internal/server"
	"stressoscope/internal/session"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, opts.logger(cfg), debug)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address override")
	cmd.Flags().BoolVar(&debug, "debug", false, "Run gin in debug mode")
	return cmd
}

// buildAnalyzer wires the configured provider into an analyzer. A disabled
// provider yields an analyzer that always falls back.
func buildAnalyzer(ctx context.Context, cfg config.Config, logger *observability.Logger, metrics *observability.Metrics) (*analysis.Analyzer, error) {
	client, err := llm.New(ctx, cfg.LLMClientConfig(), componentLogger(logger, "llm"))
	switch {
	case errors.Is(err, llm.ErrDisabled):
		logger.Warn("AI provider disabled, analyses will use the fallback heuristic", "provider", cfg.LLM.Provider)
		client = nil
	case err != nil:
		return nil, fmt.Errorf("build llm client: %w", err)
	default:
		logger.Info("AI provider configured",
			"provider", client.Name(),
			"api_key", observability.SanitizeAPIKey(cfg.LLM.APIKey))
	}

	return analysis.NewAnalyzer(client,
		analysis.WithLogger(componentLogger(logger, "analysis")),
		analysis.WithMetrics(metrics),
		analysis.WithTimeout(cfg.LLM.Timeout),
		analysis.WithJSONRepair(cfg.Analysis.RepairJSON),
		analysis.WithCacheSize(cfg.Analysis.CacheSize),
	), nil
}

func runServe(ctx context.Context, cfg config.Config, logger *observability.Logger, debug bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.MustNewMetrics(reg)

	analyzer, err := buildAnalyzer(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	var storeOpts []session.StoreOption
	var persister *session.SQLitePersister
	if cfg.Sessions.Backend == config.BackendSQLite {
		persister, err = session.OpenSQLite(cfg.Sessions.SQLitePath)
		if err != nil {
			return err
		}
		defer func() {
			if err := persister.Close(); err != nil {
				logger.Error("close session database", "error", err)
			}
		}()
		storeOpts = append(storeOpts, session.WithPersister(persister))
		logger.Info("session snapshots persisted to sqlite", "path", cfg.Sessions.SQLitePath)
	}
	store, err := session.NewStore(cfg.Sessions.Capacity, session.Machine{}, storeOpts...)
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}

	deps := server.Deps{
		Analyzer: analyzer,
		Sessions: store,
		Logger:   logger,
		Metrics:  metrics,
	}
	if cfg.Metrics.Enabled {
		deps.Gatherer = reg
	}
	srv := server.New(deps, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MetricsPath:    cfg.Metrics.Path,
		Version:        appVersion(),
		Debug:          debug,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
	})
	if persister != nil && cfg.Sessions.Retention > 0 {
		g.Go(func() error {
			pruneSessions(gctx, persister, cfg.Sessions.Retention, cfg.Sessions.PruneInterval, logger)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown requested", "sessions", store.Len())
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// pruneSessions drops expired snapshots every interval until ctx is done.
func pruneSessions(ctx context.Context, p *session.SQLitePersister, retention, interval time.Duration, logger *observability.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Prune(ctx, retention)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("prune sessions failed", "error", err)
				}
				continue
			}
			if n > 0 {
				logger.Info("pruned expired sessions", "count", n)
			}
		}
	}
}
