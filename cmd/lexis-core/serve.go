package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexis-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/lexis-core/internal/adapters/driving/http"
	"github.com/custodia-labs/lexis-core/internal/worker"
)

var requireEmbedding bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the link refresh scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, false)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background task worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), false, true)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the HTTP API, scheduler and worker in one process",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, true)
	},
}

func init() {
	for _, c := range []*cobra.Command{serveCmd, workerCmd, allCmd} {
		c.Flags().BoolVar(&requireEmbedding, "require-embedding", false, "fail startup when the embedding provider is unreachable")
		rootCmd.AddCommand(c)
	}
}

func run(ctx context.Context, withAPI, withWorker bool) error {
	logger.Info("starting lexis-core", "version", version, "api", withAPI, "worker", withWorker)

	a, err := buildApp(ctx, cfg, logger, appOptions{requireEmbedding: requireEmbedding})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	if withWorker && !withAPI && a.taskQueue == nil {
		return errors.New("worker mode needs a task queue: configure redis or the postgres driver")
	}

	g, ctx := errgroup.WithContext(ctx)

	if withAPI {
		if a.scheduler != nil {
			if err := a.scheduler.Start(ctx); err != nil {
				return err
			}
			defer a.scheduler.Stop()
		} else {
			g.Go(func() error {
				refreshStaleLinks(ctx, a)
				return nil
			})
		}

		server, err := newServer(a)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return server.Start(ctx)
		})
	}

	if withWorker && a.taskQueue != nil {
		wcfg := worker.WorkerConfig{
			TaskQueue:      a.taskQueue,
			Links:          a.linkMgr,
			Logger:         logger,
			Concurrency:    cfg.Worker.Concurrency,
			DequeueTimeout: cfg.Worker.DequeueTimeout,
		}
		// The API process already runs the scheduler
		if !withAPI {
			wcfg.Scheduler = a.scheduler
		}
		w := worker.NewWorker(wcfg)
		if err := w.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			w.Stop()
			return nil
		})
	}

	err = g.Wait()
	logger.Info("lexis-core stopped")
	return err
}

func newServer(a *app) (*http.Server, error) {
	tokens, err := auth.NewAdapter(cfg.Server.AdminTokenSecret)
	if err != nil {
		return nil, err
	}

	httpCfg := http.DefaultConfig()
	httpCfg.Host = cfg.Server.Host
	httpCfg.Port = cfg.Server.Port
	httpCfg.Version = version
	httpCfg.CORSOrigins = cfg.Server.CORSOrigins
	httpCfg.MaxUploadBytes = cfg.Server.MaxUploadBytes

	deps := http.Deps{
		Ingestion: a.ingestor,
		Links:     a.linkMgr,
		Retrieval: a.retrieval,
		Tokens:    tokens,
		TaskQueue: a.taskQueue,
		DB:        a.db,
		Logger:    logger,
	}
	if a.redisPing != nil {
		deps.Redis = a.redisPing
	}
	return http.NewServer(httpCfg, deps), nil
}

// refreshStaleLinks runs the link sweep in-process for deployments
// without a task queue.
func refreshStaleLinks(ctx context.Context, a *app) {
	interval := cfg.Links.RefreshInterval / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.linkMgr.RefreshStaleLinks(ctx)
			if err != nil {
				logger.Error("refresh stale links", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("refreshed stale links", "count", n)
			}
		}
	}
}
