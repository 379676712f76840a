package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/semquery/semquery/internal/api"
	"github.com/semquery/semquery/internal/auth"
	"github.com/semquery/semquery/internal/config"
	"github.com/semquery/semquery/internal/dataset"
	"github.com/semquery/semquery/internal/history"
	historypostgres "github.com/semquery/semquery/internal/history/postgres"
	"github.com/semquery/semquery/internal/intent"
	"github.com/semquery/semquery/internal/observability"
	duckdbengine "github.com/semquery/semquery/internal/query/duckdb"
	"github.com/semquery/semquery/internal/semantic"
	"github.com/semquery/semquery/internal/sqlgen"
	s3store "github.com/semquery/semquery/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("semquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	repo, err := semantic.Load(cfg.Semantic.Dir)
	if err != nil {
		logger.Error("failed to load semantic layer", slog.Any("error", err))
		os.Exit(1)
	}
	generator := sqlgen.New(repo, cfg.Dataset.Table)

	var source dataset.Source
	if cfg.Dataset.ObjectKey != "" {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		source = &dataset.ObjectSource{
			Store:    objectStore,
			Key:      cfg.Dataset.ObjectKey,
			CacheDir: cfg.Dataset.CacheDir,
		}
	} else {
		source = dataset.LocalSource{Path: cfg.Dataset.Path}
	}
	queryEngine := duckdbengine.NewEngine(source, cfg.Dataset.Table)

	var historyStore history.Store
	if cfg.History.Enabled {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()
		historyStore = historypostgres.NewStore(historyDB)
	}

	var resolver intent.Resolver
	if cfg.AI.ResolverEnabled {
		resolver, err = intent.NewOpenAIResolver(intent.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		}, repo)
		if err != nil {
			logger.Error("failed to initialize intent resolver", slog.Any("error", err))
			os.Exit(1)
		}
	}

	deps := api.Dependencies{
		Logger:     logger,
		Repository: repo,
		Generator:  generator,
		Resolver:   resolver,
		Engine:     queryEngine,
		History:    historyStore,
		Readiness: api.CombineReadinessChecks(
			api.CheckSemanticRepository(repo),
			api.CheckHistoryStore(historyStore),
		),
		DependencyTimeout: time.Second,
		HistoryListLimit:  cfg.History.ListLimit,
		RowLimit:          cfg.Dataset.RowLimit,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
