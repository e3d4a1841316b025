// Command annald serves the registry persistence core: versioned entity
// reads and writes over HTTP, with the commit feed draining in the
// background. Business logic lives in internal packages; main only wires
// dependencies and the process lifecycle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"annal/internal/commitfeed"
	"annal/internal/commitlog"
	"annal/internal/domain"
	"annal/internal/entitystore"
	"annal/internal/entitystore/metrics"
	"annal/internal/httpapi"
	"annal/internal/platform/config"
	"annal/internal/platform/httpserver"
	"annal/internal/manifestcache"
	"annal/internal/platform/logger"
	"annal/internal/platform/postgres"
	platformredis "annal/internal/platform/redis"
	"annal/pkg/clock"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(os.Getenv("ANNAL_VERBOSE") == "true")
	clk := clock.System{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		manifests  commitlog.Log
		backend    entitystore.Backend[*domain.Domain]
		tm         entitystore.TxManager
		feedSource commitfeed.Source
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		pgLog := commitlog.NewPostgresLog(pool, clk)
		manifests = pgLog
		feedSource = pgLog
		backend = domain.NewPostgresBackend(pool)
		tm = postgres.NewTxManager(pool, clk)
		log.Info("using postgres persistence")
	} else {
		memLog := commitlog.NewMemoryLog(clk)
		manifests = memLog
		feedSource = memLog
		backend = entitystore.NewMemoryBackend[*domain.Domain]()
		tm = entitystore.NewMemoryTxManager(clk)
		log.Warn("ANNAL_DATABASE_URL not set, using in-memory persistence")
	}

	rdb, err := platformredis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		manifests = manifestcache.New(manifests, rdb, cfg.ManifestCacheTTL, log)
		log.Info("manifest cache enabled")
	}

	store := entitystore.New(tm, backend, manifests,
		entitystore.WithLogger[*domain.Domain](log),
		entitystore.WithMetrics[*domain.Domain](metrics.New()),
	)

	handler := httpapi.NewHandler(store, log)
	srv := httpserver.New(cfg.Addr, httpapi.NewRouter(handler, cfg.JWTSigningKey, log))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting annald", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := commitfeed.NewKafkaProducer(ctx, cfg.KafkaBrokers, cfg.FeedTopic)
		if err != nil {
			log.Error("commit feed setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		worker := commitfeed.NewWorker(feedSource, producer, log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("commit feed enabled", "topic", cfg.FeedTopic)
	}

	if err := g.Wait(); err != nil {
		log.Error("annald exited with error", "error", err)
		os.Exit(1)
	}
}
