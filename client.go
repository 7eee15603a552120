package lore

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbredis "github.com/lorehub/lore/internal/db/redis"
	"github.com/lorehub/lore/internal/domain"
	documentrepo "github.com/lorehub/lore/internal/repository/document"
	"github.com/lorehub/lore/internal/tool"
	"github.com/lorehub/lore/internal/transport/openai"
	agentuc "github.com/lorehub/lore/internal/usecase/agent"
	documentuc "github.com/lorehub/lore/internal/usecase/document"
	healthuc "github.com/lorehub/lore/internal/usecase/health"
	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces so tests can substitute the wired services.
type searchUseCase interface {
	Hybrid(ctx context.Context, query string, opts searchuc.Options) ([]searchuc.Result, error)
	Weighted(ctx context.Context, query string, opts searchuc.Options) ([]searchuc.Result, error)
	WithRerank(ctx context.Context, query string, opts searchuc.Options) ([]searchuc.Result, error)
}

type documentUseCase interface {
	Upsert(ctx context.Context, id, title, content, category string, metadata map[string]string) (domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.Filter) ([]domain.Document, error)
}

type agentUseCase interface {
	Run(ctx context.Context, query string) (agentuc.Result, error)
	RunStream(ctx context.Context, query string) <-chan agentuc.Event
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the lore SDK entry point.
type Client struct {
	closeStore func()
	searchSvc  searchUseCase
	docSvc     documentUseCase
	agentSvc   agentUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a lore Client and connects to the document store.
// The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("lore: document store required (use WithRedis or WithSQLite)")
	}
	if cfg.embedder == nil && cfg.apiKey == "" {
		return nil, errors.New("lore: model provider required (use WithProvider or WithEmbedder/WithCompleter)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	repo, pinger, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := wireClient(cfg, repo, pinger, closeStore, obs)
	if err != nil {
		closeStore()
		return nil, err
	}
	return client, nil
}

func openStore(ctx context.Context, cfg *clientConfig) (documentuc.Repository, healthuc.StorePinger, func(), error) {
	switch cfg.driver {
	case "sqlite":
		repo, err := documentrepo.NewSQLite(cfg.path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("lore: open sqlite store: %w", err)
		}
		return repo, repo, func() { _ = repo.Close() }, nil
	case "redis":
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("lore: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("lore: store not ready: %w", err)
		}
		return documentrepo.New(store, cfg.keyPrefix), store, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("lore: unknown driver %q", cfg.driver)
	}
}

func wireClient(
	cfg *clientConfig,
	repo documentuc.Repository,
	pinger healthuc.StorePinger,
	closeStore func(),
	obs *observer,
) (*Client, error) {
	var (
		embedder        searchuc.Embedder
		completer       agentuc.Completer
		embedderHealth  healthuc.ProviderChecker
		completerHealth healthuc.ProviderChecker
	)
	if cfg.embedder != nil {
		embedder = embedderAdapter{e: cfg.embedder}
	} else {
		e := openai.NewEmbedder(&openai.EmbedderConfig{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Logger:     cfg.logger,
		})
		embedder = e
		embedderHealth = e
	}
	if cfg.completer != nil {
		completer = completerAdapter{c: cfg.completer}
	} else {
		c := openai.NewCompleter(&openai.CompleterConfig{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.completionModel,
			Logger:  cfg.logger,
		})
		completer = c
		completerHealth = c
	}

	var cache *searchuc.QueryCache
	if cfg.cacheSize > 0 {
		cache = searchuc.NewQueryCache(cfg.cacheSize, cfg.cacheTTL)
	}
	searchSvc := searchuc.New(repo, embedder, searchuc.Defaults{
		Limit:        cfg.searchLimit,
		MinScore:     cfg.searchMinScore,
		VectorWeight: cfg.searchVectorWeight,
		RRFK:         cfg.searchRRFK,
		RerankTopK:   cfg.searchRerankTopK,
	}, cache)

	registry, err := tool.NewRegistry(
		tool.NewCalculator(),
		tool.NewClock(),
		tool.NewDocumentSearch(searchSvc),
		tool.NewNewsSearch(searchSvc),
	)
	if err != nil {
		return nil, fmt.Errorf("lore: %w", err)
	}

	return &Client{
		closeStore: closeStore,
		searchSvc:  searchSvc,
		docSvc:     documentuc.New(repo, embedder),
		agentSvc: agentuc.New(completer, registry, agentuc.Config{
			MaxIterations: cfg.agentMaxIterations,
			Temperature:   cfg.agentTemperature,
			MaxTokens:     cfg.agentMaxTokens,
		}),
		healthSvc: healthuc.New(pinger, embedderHealth, completerHealth),
		obs:       obs,
	}, nil
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	if c.closeStore != nil {
		c.closeStore()
	}
}
