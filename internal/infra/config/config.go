package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Summary  SummaryConfig  `yaml:"summary"`
	Chat     ChatConfig     `yaml:"chat"`
	LLM      LLMConfig      `yaml:"llm"`
	Extract  ExtractConfig  `yaml:"extract"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	CORSOrigins    []string        `yaml:"corsOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// SummaryConfig defines the defaults and limits of the summarizer domain.
type SummaryConfig struct {
	DefaultType    string        `yaml:"defaultType"`
	DefaultTone    string        `yaml:"defaultTone"`
	DefaultLength  int           `yaml:"defaultLength"`
	MinInputLength int           `yaml:"minInputLength"`
	MaxSummaryLen  int           `yaml:"maxSummaryLen"`
	MaxKeywords    int           `yaml:"maxKeywords"`
	RemoteEnabled  bool          `yaml:"remoteEnabled"`
	DefaultPrompt  string        `yaml:"defaultPrompt"`
	MaxTokens      int           `yaml:"maxTokens"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	HistoryLimit   int           `yaml:"historyLimit"`
}

// ChatConfig controls document chat prompting and context selection.
type ChatConfig struct {
	SystemPrompt         string  `yaml:"systemPrompt"`
	Temperature          float32 `yaml:"temperature"`
	MaxTokens            int     `yaml:"maxTokens"`
	MaxHistoryTurns      int     `yaml:"maxHistoryTurns"`
	MaxContextChars      int     `yaml:"maxContextChars"`
	LocalAnswerSentences int     `yaml:"localAnswerSentences"`
	MaxChunkSize         int     `yaml:"maxChunkSize"`
	ChunkThreshold       int     `yaml:"chunkThreshold"`
	MaxChunks            int     `yaml:"maxChunks"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes a circuit breaker.
type BreakerConfig struct {
	FailureThreshold float64       `yaml:"failureThreshold"`
	MinRequests      uint32        `yaml:"minRequests"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

// ExtractConfig bounds file parsing and URL fetching.
type ExtractConfig struct {
	MaxFileBytes   int64         `yaml:"maxFileBytes"`
	FetchTimeout   time.Duration `yaml:"fetchTimeout"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
	MaxRedirects   int           `yaml:"maxRedirects"`
	DenyPrivateIPs bool          `yaml:"denyPrivateIps"`
	UserAgent      string        `yaml:"userAgent"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// AuthConfig holds bearer token settings. An empty secret disables authenticated routes.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// StorageConfig points at an S3-compatible bucket. An empty endpoint keeps documents in memory.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// CacheConfig contains connection information for summary caching.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	envInt64("HTTP_MAX_UPLOAD_BYTES", &cfg.HTTP.MaxUploadBytes)
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	envInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	envDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	envString("SUMMARY_DEFAULT_TYPE", &cfg.Summary.DefaultType)
	envString("SUMMARY_DEFAULT_TONE", &cfg.Summary.DefaultTone)
	envInt("SUMMARY_DEFAULT_LENGTH", &cfg.Summary.DefaultLength)
	envInt("SUMMARY_MIN_INPUT_LENGTH", &cfg.Summary.MinInputLength)
	envInt("SUMMARY_MAX_LEN", &cfg.Summary.MaxSummaryLen)
	envInt("SUMMARY_MAX_KEYWORDS", &cfg.Summary.MaxKeywords)
	envBool("SUMMARY_REMOTE_ENABLED", &cfg.Summary.RemoteEnabled)
	envString("SUMMARY_DEFAULT_PROMPT", &cfg.Summary.DefaultPrompt)
	envDuration("SUMMARY_CACHE_TTL", &cfg.Summary.CacheTTL)

	envString("CHAT_SYSTEM_PROMPT", &cfg.Chat.SystemPrompt)
	envInt("CHAT_MAX_HISTORY_TURNS", &cfg.Chat.MaxHistoryTurns)
	envInt("CHAT_MAX_CONTEXT_CHARS", &cfg.Chat.MaxContextChars)
	envInt("CHAT_MAX_CHUNK_SIZE", &cfg.Chat.MaxChunkSize)
	envInt("CHAT_CHUNK_THRESHOLD", &cfg.Chat.ChunkThreshold)
	envInt("CHAT_MAX_CHUNKS", &cfg.Chat.MaxChunks)

	envString("LLM_API_KEY", &cfg.LLM.APIKey)
	envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	envString("LLM_MODEL", &cfg.LLM.Model)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	envDuration("LLM_TIMEOUT", &cfg.LLM.Timeout)

	envInt64("EXTRACT_MAX_FILE_BYTES", &cfg.Extract.MaxFileBytes)
	envDuration("EXTRACT_FETCH_TIMEOUT", &cfg.Extract.FetchTimeout)
	envBool("EXTRACT_DENY_PRIVATE_IPS", &cfg.Extract.DenyPrivateIPs)

	envString("AUTH_SECRET", &cfg.Auth.Secret)
	envDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)

	envString("STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	envString("STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	envString("STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	envString("STORAGE_BUCKET", &cfg.Storage.Bucket)
	envString("STORAGE_REGION", &cfg.Storage.Region)

	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("CACHE_ADDR", &cfg.Cache.Addr)

	envString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   90 * time.Second,
			MaxUploadBytes: 10 << 20,
			CORSOrigins:    []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/summaries/stream",
					"/api/v1/documents",
				},
			},
		},
		Summary: SummaryConfig{
			DefaultType:    "paragraph",
			DefaultTone:    "neutral",
			DefaultLength:  50,
			MinInputLength: 50,
			MaxSummaryLen:  2000,
			MaxKeywords:    8,
			RemoteEnabled:  true,
			DefaultPrompt:  "You are an expert writing assistant that summarizes user provided text and extracts the most important keywords. Respond using the format: SUMMARY:\\n<summary>\\n\\nKEYWORDS:\\nkeyword1, keyword2, ...",
			MaxTokens:      1000,
			CacheTTL:       time.Hour,
			HistoryLimit:   20,
		},
		Chat: ChatConfig{
			SystemPrompt:         "You are a helpful assistant. Use only the text in the user's document as context for every answer. Keep answers relevant, extractive, and cite the context as needed.",
			Temperature:          0.3,
			MaxTokens:            600,
			MaxHistoryTurns:      5,
			MaxContextChars:      10000,
			LocalAnswerSentences: 3,
			MaxChunkSize:         3000,
			ChunkThreshold:       3500,
			MaxChunks:            4,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			Breaker: BreakerConfig{
				FailureThreshold: 0.6,
				MinRequests:      5,
				OpenTimeout:      60 * time.Second,
			},
		},
		Extract: ExtractConfig{
			MaxFileBytes:   10 << 20,
			FetchTimeout:   10 * time.Second,
			MaxBodyBytes:   10 << 20,
			MaxRedirects:   5,
			DenyPrivateIPs: true,
			UserAgent:      "DocSummarizerBot/1.0",
			Breaker: BreakerConfig{
				FailureThreshold: 0.8,
				MinRequests:      5,
				OpenTimeout:      10 * time.Minute,
			},
		},
		Auth: AuthConfig{
			Issuer:   "doc-summarizer",
			TokenTTL: time.Hour,
		},
		Storage: StorageConfig{
			Bucket: "doc-summarizer",
			Region: "auto",
		},
		Cache: CacheConfig{
			Prefix: "summary",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.maxUploadBytes must be positive")
	}
	if c.Summary.DefaultLength < 10 || c.Summary.DefaultLength > 100 {
		return errors.New("summary.defaultLength must be between 10 and 100")
	}
	if c.Summary.MinInputLength < 0 {
		return errors.New("summary.minInputLength cannot be negative")
	}
	if c.Summary.MaxSummaryLen <= 0 {
		return errors.New("summary.maxSummaryLen must be positive")
	}
	if c.Summary.MaxKeywords <= 0 {
		return errors.New("summary.maxKeywords must be positive")
	}
	if c.Summary.DefaultPrompt == "" {
		return errors.New("summary.defaultPrompt cannot be empty")
	}
	if c.Summary.CacheTTL < 0 {
		return errors.New("summary.cacheTtl cannot be negative")
	}
	if strings.TrimSpace(c.Chat.SystemPrompt) == "" {
		return errors.New("chat.systemPrompt cannot be empty")
	}
	if c.Chat.MaxContextChars <= 0 {
		return errors.New("chat.maxContextChars must be positive")
	}
	if c.Chat.MaxChunkSize <= 0 || c.Chat.ChunkThreshold <= 0 || c.Chat.MaxChunks <= 0 {
		return errors.New("chat chunking options must be positive")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if err := c.LLM.Breaker.validate("llm.breaker"); err != nil {
		return err
	}
	if c.Extract.MaxFileBytes <= 0 {
		return errors.New("extract.maxFileBytes must be positive")
	}
	if c.Extract.FetchTimeout <= 0 {
		return errors.New("extract.fetchTimeout must be positive")
	}
	if err := c.Extract.Breaker.validate("extract.breaker"); err != nil {
		return err
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if c.Storage.Endpoint != "" && strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket cannot be empty when storage.endpoint is set")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when cache is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}

func (b BreakerConfig) validate(field string) error {
	if b.FailureThreshold <= 0 || b.FailureThreshold > 1 {
		return fmt.Errorf("%s.failureThreshold must be in (0, 1]", field)
	}
	if b.OpenTimeout <= 0 {
		return fmt.Errorf("%s.openTimeout must be positive", field)
	}
	return nil
}
