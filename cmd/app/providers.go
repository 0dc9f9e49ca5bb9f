package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/doc-summarizer/internal/domain/auth"
	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
	"github.com/yanqian/doc-summarizer/internal/infra/config"
	"github.com/yanqian/doc-summarizer/internal/infra/docstore"
	"github.com/yanqian/doc-summarizer/internal/infra/extract"
	"github.com/yanqian/doc-summarizer/internal/infra/historyrepo"
	"github.com/yanqian/doc-summarizer/internal/infra/llm"
	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/doc-summarizer/internal/infra/resilience/circuitbreaker"
	"github.com/yanqian/doc-summarizer/internal/infra/summarycache"
	"github.com/yanqian/doc-summarizer/internal/infra/tokencount"
)

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		DefaultType:    cfg.Summary.DefaultType,
		DefaultTone:    cfg.Summary.DefaultTone,
		DefaultLength:  cfg.Summary.DefaultLength,
		MinInputLength: cfg.Summary.MinInputLength,
		MaxKeywords:    cfg.Summary.MaxKeywords,
		MaxSummaryLen:  cfg.Summary.MaxSummaryLen,
		RemoteEnabled:  cfg.Summary.RemoteEnabled,
		DefaultPrompt:  cfg.Summary.DefaultPrompt,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.Summary.MaxTokens,
		CacheTTL:       cfg.Summary.CacheTTL,
		HistoryLimit:   cfg.Summary.HistoryLimit,
	}
}

func provideChatConfig(cfg *config.Config) docchat.Config {
	return docchat.Config{
		SystemPrompt:         cfg.Chat.SystemPrompt,
		Model:                cfg.LLM.Model,
		Temperature:          cfg.Chat.Temperature,
		MaxTokens:            cfg.Chat.MaxTokens,
		MaxHistoryTurns:      cfg.Chat.MaxHistoryTurns,
		MaxContextChars:      cfg.Chat.MaxContextChars,
		LocalAnswerSentences: cfg.Chat.LocalAnswerSentences,
		MaxFileBytes:         cfg.Extract.MaxFileBytes,
		Context: extractive.ContextOptions{
			MaxChunkSize:   cfg.Chat.MaxChunkSize,
			ChunkThreshold: cfg.Chat.ChunkThreshold,
			MaxChunks:      cfg.Chat.MaxChunks,
		},
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func breakerConfig(base circuitbreaker.Config, tuned config.BreakerConfig) circuitbreaker.Config {
	if tuned.FailureThreshold > 0 {
		base.FailureThreshold = tuned.FailureThreshold
	}
	if tuned.MinRequests > 0 {
		base.MinRequests = tuned.MinRequests
	}
	if tuned.OpenTimeout > 0 {
		base.Timeout = tuned.OpenTimeout
	}
	return base
}

// provideLLMClient returns nil when no API key is configured; callers then stay local.
func provideLLMClient(cfg *config.Config, logger *slog.Logger) (*llm.GuardedClient, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, remote summarization and chat disabled")
		return nil, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	breaker := circuitbreaker.New(breakerConfig(circuitbreaker.LLMConfig(), cfg.LLM.Breaker), logger)
	return llm.NewGuardedClient(client, breaker), nil
}

func provideSummaryChatClient(client *llm.GuardedClient) summarizer.ChatClient {
	if client == nil {
		return nil
	}
	return client
}

func provideChatLLM(cfg *config.Config, client *llm.GuardedClient) docchat.LLM {
	if client == nil {
		return nil
	}
	return llm.NewChatAnswerer(client, cfg.LLM.Model)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) docchat.TokenCounter {
	return tokencount.NewCounter(cfg.LLM.Model, logger)
}

func provideExtractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	fetchCfg := extract.FetchConfig{
		Timeout:        cfg.Extract.FetchTimeout,
		MaxBodySize:    cfg.Extract.MaxBodyBytes,
		MaxRedirects:   cfg.Extract.MaxRedirects,
		DenyPrivateIPs: cfg.Extract.DenyPrivateIPs,
		UserAgent:      cfg.Extract.UserAgent,
	}
	breaker := circuitbreaker.New(extract.BreakerConfig(breakerConfig(circuitbreaker.URLFetchConfig(), cfg.Extract.Breaker)), logger)
	fetcher := extract.NewURLFetcher(fetchCfg, breaker, logger)
	return extract.New(extract.Config{MaxFileBytes: cfg.Extract.MaxFileBytes, Fetch: fetchCfg}, fetcher, logger)
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) summarizer.HistoryRepository {
	fallback := historyrepo.NewMemoryRepository(0)
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory history repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory history repository", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory history repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory history repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("history schema setup failed, using memory history repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres history repository enabled")
	return repo
}

func provideSummaryCache(cfg *config.Config, logger *slog.Logger) summarizer.Cache {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg.Cache.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return summarycache.NewMemoryCache()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return summarycache.NewMemoryCache()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey summary cache enabled", "addr", cfg.Cache.Addr)
			return summarycache.NewValkeyCache(client, cfg.Cache.Prefix)
		}
	}
	return summarycache.NewMemoryCache()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideDocumentStorage(cfg *config.Config, logger *slog.Logger) docchat.ObjectStorage {
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" {
		logger.Info("storage endpoint not set, keeping documents in memory")
		return docstore.NewMemoryStorage()
	}
	store, err := docstore.NewR2Storage(docstore.R2Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	}, logger)
	if err != nil {
		logger.Error("failed to init r2 storage, keeping documents in memory", "error", err)
		return docstore.NewMemoryStorage()
	}
	logger.Info("r2 document storage enabled", "bucket", cfg.Storage.Bucket)
	return store
}
