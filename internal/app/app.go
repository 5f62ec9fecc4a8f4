package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/cache"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
)

const shutdownTimeout = 15 * time.Second

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:        slog.LevelDebug,
		Concise:         true,
		QuietDownRoutes: []string{"/ping", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
		Tags: map[string]string{
			"env": env,
		},
	}

	if env == config.EnvProd {
		opts.LogLevel = slog.LevelInfo
		opts.JSON = true
		opts.Concise = false
	}

	return httplog.NewLogger("shortlink", opts)
}

// newHandler wires the repositories, the use case and the router. rdb may be
// nil, in which case URL records are read from postgres only. The returned
// HitRecorder must be drained before db is closed.
func newHandler(
	cfg *config.Config,
	logger *httplog.Logger,
	db *sqlx.DB,
	rdb redis.Cmdable,
	reg *prometheus.Registry,
) (http.Handler, *usecase.HitRecorder) {
	m := metrics.New(reg)

	var urlRepo usecase.URLRepository = repository.NewURLRepository(db,
		repository.WithQueryTimeout(cfg.Postgres.QueryTimeout),
	)
	metadataRepo := repository.NewMetadataRepository(db,
		repository.WithQueryTimeout(cfg.Postgres.QueryTimeout),
	)

	if rdb != nil {
		urlRepo = cache.NewURLCache(rdb, urlRepo, logger.Logger,
			cache.WithTTL(cfg.Redis.TTL),
			cache.WithNotFoundTTL(cfg.Redis.NotFoundTTL),
		)
	}

	hits := usecase.NewHitRecorder(metadataRepo, logger.Logger, m,
		usecase.WithHitTimeout(cfg.Hits.Timeout),
		usecase.WithMaxInFlight(cfg.Hits.MaxInFlight),
	)

	uc := usecase.New(usecase.ShortCodeLength, urlRepo, metadataRepo, hits, m)
	router := delivery.NewRouter(logger, uc, cfg.BaseURL, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return router, hits
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	var rdb redis.UniversalClient
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis is not reachable, reads fall through to postgres", slog.Any("err", err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, hits := newHandler(cfg, logger, db, rdb, reg)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if drainErr := hits.Drain(drainCtx); drainErr != nil {
		logger.Warn("pending hits were not written before shutdown", slog.Any("err", drainErr))
	}

	return err
}
