// Lore API server: hybrid document retrieval plus an agentic answer loop
// over an OpenAI-compatible provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/config"
	dbredis "github.com/lorehub/lore/internal/db/redis"
	logpkg "github.com/lorehub/lore/internal/logger"
	"github.com/lorehub/lore/internal/metrics"
	documentrepo "github.com/lorehub/lore/internal/repository/document"
	"github.com/lorehub/lore/internal/tool"
	chitransport "github.com/lorehub/lore/internal/transport/chi"
	"github.com/lorehub/lore/internal/transport/openai"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	documentuc "github.com/lorehub/lore/internal/usecase/document"
	healthuc "github.com/lorehub/lore/internal/usecase/health"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
	"github.com/lorehub/lore/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return err
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting lore",
		zap.String("env", env),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("driver", cfg.Database.Driver),
		zap.Int("port", cfg.HTTP.Port),
	)

	metrics.RegisterCoreMetrics()

	repo, pinger, closeRepo, err := openRepository(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	embedder := openai.NewEmbedder(&openai.EmbedderConfig{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		Model:      cfg.Provider.EmbeddingModel,
		Dimensions: cfg.Provider.Dimensions,
		Logger:     logger,
	})
	completer := openai.NewCompleter(&openai.CompleterConfig{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.CompletionModel,
		Logger:  logger,
	})

	cache := searchuc.NewQueryCache(cfg.Search.Cache.Size, time.Duration(cfg.Search.Cache.TTLSec)*time.Second)
	searchSvc := searchuc.New(repo, embedder, searchuc.Defaults{
		Limit:        cfg.Search.Limit,
		MinScore:     cfg.Search.MinScore,
		VectorWeight: cfg.Search.VectorWeight,
		RRFK:         cfg.Search.RRFK,
		RerankTopK:   cfg.Search.RerankTopK,
	}, cache)
	documentSvc := documentuc.New(repo, embedder)

	registry, err := tool.NewRegistry(
		tool.NewCalculator(),
		tool.NewClock(),
		tool.NewDocumentSearch(searchSvc),
		tool.NewNewsSearch(searchSvc),
	)
	if err != nil {
		return err
	}

	agentSvc := agentuc.New(completer, registry, agentuc.Config{
		MaxIterations: cfg.Agent.MaxIterations,
		Temperature:   cfg.Agent.Temperature,
		MaxTokens:     cfg.Agent.MaxTokens,
	})
	healthSvc := healthuc.New(pinger, embedder, completer)

	server := chitransport.NewServer(searchSvc, agentSvc, documentSvc, healthSvc, cfg.Auth.APIKeys, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// openRepository builds the document repository for the configured driver.
// It returns the repository, the store pinger used by health checks, and a
// cleanup function.
func openRepository(cfg config.DatabaseConfig, logger *zap.Logger) (documentuc.Repository, healthuc.StorePinger, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := documentrepo.NewSQLite(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("sqlite store ready", zap.String("path", cfg.Path))
		return repo, repo, func() { _ = repo.Close() }, nil
	default:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ReadinessTimeout)*time.Second)
		defer cancel()
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("redis store ready", zap.Strings("addrs", cfg.Addrs))
		return documentrepo.New(store, cfg.KeyPrefix), store, store.Close, nil
	}
}
