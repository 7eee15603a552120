package lore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "redis" or "sqlite"
	addrs     []string
	password  string
	path      string
	keyPrefix string

	embedder  Embedder
	completer Completer

	apiKey          string
	baseURL         string
	embeddingModel  string
	dimensions      int
	completionModel string

	searchLimit        int
	searchMinScore     float64
	searchVectorWeight *float64
	searchRRFK         int
	searchRerankTopK   int
	cacheSize          int
	cacheTTL           time.Duration

	agentMaxIterations int
	agentTemperature   float64
	agentMaxTokens     int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite configures the client to use a local SQLite database file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithKeyPrefix sets the Redis key prefix. Ignored for SQLite.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) { c.keyPrefix = prefix })
}

// WithProvider configures the OpenAI-compatible model provider. baseURL
// may be empty for the default API endpoint.
func WithProvider(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithEmbeddingModel overrides the embedding model and vector dimensions.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithCompletionModel overrides the completion model used by the agent.
func WithCompletionModel(model string) Option {
	return optionFunc(func(c *clientConfig) { c.completionModel = model })
}

// WithEmbedder supplies a custom embedding implementation instead of the
// built-in OpenAI-compatible provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) { c.embedder = e })
}

// WithCompleter supplies a custom completion implementation instead of
// the built-in OpenAI-compatible provider.
func WithCompleter(cp Completer) Option {
	return optionFunc(func(c *clientConfig) { c.completer = cp })
}

// WithSearchDefaults overrides the search fallbacks applied when a call's
// SearchOptions leave a field zero.
func WithSearchDefaults(limit int, minScore, vectorWeight float64, rrfK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchLimit = limit
		c.searchMinScore = minScore
		c.searchVectorWeight = &vectorWeight
		c.searchRRFK = rrfK
	})
}

// WithQueryCache enables the in-memory query result cache. size 0
// disables caching.
func WithQueryCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	})
}

// WithAgentOptions tunes the agent loop. Zero values keep the defaults.
func WithAgentOptions(maxIterations int, temperature float64, maxTokens int) Option {
	return optionFunc(func(c *clientConfig) {
		c.agentMaxIterations = maxIterations
		c.agentTemperature = temperature
		c.agentMaxTokens = maxTokens
	})
}

// WithLogger enables SDK operation logging.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = logger })
}

// WithMetrics registers SDK operation metrics on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) { c.metricsReg = reg })
}
