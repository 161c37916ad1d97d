package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/answer"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/awsclient"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/cache"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/config"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/database"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/embedding"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/prompt"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
	"github.com/rs/zerolog"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"

	SourceDir      = "dir"
	SourceS3       = "s3"
	SourcePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port     string
	LogLevel string

	AWSRegion     string
	LLMProvider   string
	OpenAIKey     string
	OpenAIBaseURL string
	ChatModelID   string
	ClaudeModelID string

	EmbeddingProvider   string
	EmbeddingModelID    string
	EmbeddingDimensions int

	IndexSource   string
	IndexDir      string
	IndexS3Bucket string
	IndexS3Prefix string
	IndexTable    string
	IndexMetric   string
	DB            database.Config

	TopKInitial       int
	TopKFinal         int
	EmbedTimeout      time.Duration
	CompletionTimeout time.Duration
	MaxTokens         int
	Temperature       float64

	CacheBackend  string
	CacheSize     int
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration
}

type Dependencies struct {
	Service *answer.Service
	Gate    *index.Gate
	// LoadIndex reads the index from the configured source. It is called
	// once at startup; its failure is fatal.
	LoadIndex func(ctx context.Context) (*index.Store, error)
	Logger    *zerolog.Logger

	closers []func()
}

// Close releases connections opened by Wire.
func (d *Dependencies) Close() {
	for _, c := range d.closers {
		c()
	}
}

// LoadAndPublish loads the index and publishes it through the gate. A load
// cut short by ctx cancellation is a shutdown, not a failure: it returns nil
// and the gate stays closed.
func (d *Dependencies) LoadAndPublish(ctx context.Context) error {
	start := time.Now()
	store, err := d.LoadIndex(ctx)
	if err != nil {
		if ctx.Err() != nil {
			d.Logger.Info().Err(err).Msg("Index load interrupted by shutdown")
			return nil
		}
		return fmt.Errorf("Unable to load index. Error: %w", err)
	}

	d.Gate.Set(store)
	d.Logger.Info().
		Int("documents", store.Size()).
		Int("dim", store.Dim()).
		Dur("duration", time.Since(start)).
		Msg("Index loaded")
	return nil
}

func LoadConfig() *Config {
	return &Config{
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		LLMProvider:   getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		ChatModelID:   getEnv("CHAT_MODEL_ID", "gpt-4o-mini"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", ""),

		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", ProviderOpenAI),
		EmbeddingModelID:    getEnv("EMBEDDING_MODEL_ID", ""),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),

		IndexSource:   getEnv("INDEX_SOURCE", SourceDir),
		IndexDir:      getEnv("INDEX_DIR", "faiss_index"),
		IndexS3Bucket: getEnv("INDEX_S3_BUCKET", ""),
		IndexS3Prefix: getEnv("INDEX_S3_PREFIX", ""),
		IndexTable:    getEnv("INDEX_TABLE", "rag_index"),
		IndexMetric:   getEnv("INDEX_METRIC", string(index.MetricL2)),
		DB: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "rag"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		TopKInitial:       getEnvInt("TOP_K_INITIAL", 750),
		TopKFinal:         getEnvInt("TOP_K_FINAL", 5),
		EmbedTimeout:      getEnvDuration("EMBED_TIMEOUT", 15*time.Second),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 60*time.Second),
		MaxTokens:         getEnvInt("LLM_MAX_TOKENS", 1024),
		Temperature:       getEnvFloat("LLM_TEMPERATURE", 0.2),

		CacheBackend:  getEnv("CACHE_BACKEND", CacheNone),
		CacheSize:     getEnvInt("CACHE_SIZE", 1024),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      getEnvDuration("REDIS_TTL", 24*time.Hour),
	}
}

func (c *Config) Validate() error {
	if c.TopKFinal <= 0 || c.TopKFinal > c.TopKInitial {
		return fmt.Errorf("TOP_K_FINAL=%d must be positive and not exceed TOP_K_INITIAL=%d: %w", c.TopKFinal, c.TopKInitial, retrieval.ErrInvalidTopK)
	}
	switch index.Metric(c.IndexMetric) {
	case index.MetricL2, index.MetricCosine:
	default:
		return fmt.Errorf("unsupported INDEX_METRIC %q", c.IndexMetric)
	}
	return nil
}

func (c *Config) needsAWS() bool {
	return c.LLMProvider == ProviderBedrock || c.EmbeddingProvider == ProviderBedrock || c.IndexSource == SourceS3
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Gate:   index.NewGate(),
		Logger: logger,
	}

	var awsCfg aws.Config
	if cfg.needsAWS() {
		var err error
		awsCfg, err = awsclient.LoadConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
	}

	llmClient, err := createLLMClient(cfg, awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	embedder, modelID, err := createEmbedder(cfg, awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	vectorCache, closeCache, err := createCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	if closeCache != nil {
		deps.closers = append(deps.closers, closeCache)
	}
	if vectorCache != nil {
		embedder = embedding.NewCachedEmbedder(embedder, vectorCache, modelID, logger)
	}

	retrievalConfig, err := config.LoadRetrievalConfig()
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to load retrieval config: %w", err)
	}

	deps.Service = answer.NewService(
		embedder,
		retrieval.NewRetriever(retrievalConfig.Policy(), logger),
		prompt.NewBuilder(retrievalConfig.Prompt.MaxContextChars),
		llmClient,
		answer.Config{
			TopKInitial:       cfg.TopKInitial,
			TopKFinal:         cfg.TopKFinal,
			EmbedTimeout:      cfg.EmbedTimeout,
			CompletionTimeout: cfg.CompletionTimeout,
			MaxTokens:         cfg.MaxTokens,
			Temperature:       cfg.Temperature,
		},
		logger,
	)

	deps.LoadIndex, err = createIndexLoader(cfg, awsCfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	logger.Info().
		Str("llm_provider", cfg.LLMProvider).
		Str("embedding_provider", cfg.EmbeddingProvider).
		Str("embedding_model", modelID).
		Str("index_source", cfg.IndexSource).
		Str("cache", cfg.CacheBackend).
		Msg("Dependencies wired")

	return deps, nil
}

func createLLMClient(cfg *Config, awsCfg aws.Config) (llm.LLMClient, error) {
	switch cfg.LLMProvider {
	case ProviderBedrock:
		if cfg.ClaudeModelID == "" {
			return nil, fmt.Errorf("CLAUDE_MODEL_ID is required for the bedrock provider")
		}
		return bedrock.NewClient(awsclient.NewBedrockRuntime(awsCfg), cfg.ClaudeModelID), nil
	case ProviderOpenAI:
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ChatModelID)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func createEmbedder(cfg *Config, awsCfg aws.Config) (embedding.Embedder, string, error) {
	modelID := cfg.EmbeddingModelID

	switch cfg.EmbeddingProvider {
	case ProviderBedrock:
		if modelID == "" {
			modelID = "amazon.titan-embed-text-v2:0"
		}
		return embedding.NewBedrockEmbedder(awsclient.NewBedrockRuntime(awsCfg), modelID, cfg.EmbeddingDimensions), modelID, nil
	case ProviderOpenAI:
		if modelID == "" {
			modelID = "text-embedding-3-small"
		}
		embedder, err := embedding.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, modelID, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, "", err
		}
		return embedder, modelID, nil
	default:
		return nil, "", fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}
}

// createCache returns a nil cache when caching is disabled.
func createCache(ctx context.Context, cfg *Config) (cache.VectorCache, func(), error) {
	switch cfg.CacheBackend {
	case CacheNone, "":
		return nil, nil, nil
	case CacheMemory:
		c, err := cache.NewLRUVectorCache(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case CacheRedis:
		client, err := redis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Close() }
		return cache.NewRedisVectorCache(client, "embedding:", cfg.RedisTTL), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.CacheBackend)
	}
}

func createIndexLoader(cfg *Config, awsCfg aws.Config, logger *zerolog.Logger) (func(ctx context.Context) (*index.Store, error), error) {
	metric := index.Metric(cfg.IndexMetric)

	switch cfg.IndexSource {
	case SourceDir:
		src := index.NewDirSource(cfg.IndexDir)
		return func(ctx context.Context) (*index.Store, error) {
			return index.Load(ctx, src)
		}, nil
	case SourceS3:
		if cfg.IndexS3Bucket == "" {
			return nil, fmt.Errorf("INDEX_S3_BUCKET is required for the s3 index source")
		}
		src := index.NewS3Source(awsclient.NewS3(awsCfg), cfg.IndexS3Bucket, cfg.IndexS3Prefix)
		return func(ctx context.Context) (*index.Store, error) {
			return index.Load(ctx, src)
		}, nil
	case SourcePostgres:
		dbConfig := cfg.DB
		table := cfg.IndexTable
		return func(ctx context.Context) (*index.Store, error) {
			db, err := database.New(ctx, dbConfig)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			if err := db.Ping(ctx); err != nil {
				return nil, fmt.Errorf("Unable to reach database %s:%s. Error: %w", dbConfig.Host, dbConfig.Port, err)
			}
			logger.Info().Str("table", table).Msg("Loading index from Postgres")
			return db.LoadIndex(ctx, table, metric)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported INDEX_SOURCE %q", cfg.IndexSource)
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}
