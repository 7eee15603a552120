// Lore MCP server: exposes portal search and the agent loop as MCP tools
// over stdio, for use from editors and other MCP clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/config"
	dbredis "github.com/lorehub/lore/internal/db/redis"
	logpkg "github.com/lorehub/lore/internal/logger"
	documentrepo "github.com/lorehub/lore/internal/repository/document"
	"github.com/lorehub/lore/internal/tool"
	mcptransport "github.com/lorehub/lore/internal/transport/mcp"
	"github.com/lorehub/lore/internal/transport/openai"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	documentuc "github.com/lorehub/lore/internal/usecase/document"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
	"github.com/lorehub/lore/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lore-mcp: %v\n", err)
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

	// stdout carries the MCP protocol, so all logging stays on stderr.
	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting lore-mcp",
		zap.String("env", env),
		zap.String("version", version.Version),
		zap.String("driver", cfg.Database.Driver),
	)

	repo, closeRepo, err := openRepository(cfg.Database)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcptransport.NewServer(searchSvc, agentSvc)
	return server.Serve(ctx)
}

func openRepository(cfg config.DatabaseConfig) (documentuc.Repository, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := documentrepo.NewSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ReadinessTimeout)*time.Second)
		defer cancel()
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return documentrepo.New(store, cfg.KeyPrefix), store.Close, nil
	}
}
