package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/findfit/internal/db"
	"github.com/kailas-cloud/findfit/internal/domain/search/request"
	"github.com/kailas-cloud/findfit/internal/retry"
)

// Embedding provider names.
const (
	ProviderCLIP   = "clip"
	ProviderOpenAI = "openai"
)

// Config holds the findfit configuration shared by the API server and the ingest CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: json in prod, console elsewhere)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyMB       int `yaml:"max_body_mb"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                 string `yaml:"url"`
	Table               string `yaml:"table"`
	MinConns            int32  `yaml:"min_conns"`
	MaxConns            int32  `yaml:"max_conns"`
	ReadinessTimeout    int    `yaml:"readiness_timeout_sec"`
	StatementTimeoutSec int    `yaml:"statement_timeout_sec"`
}

// IndexConfig holds the vector column and HNSW index settings.
type IndexConfig struct {
	Dimensions      int    `yaml:"dimensions"`
	Metric          string `yaml:"metric"` // cosine, l2, ip
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// SearchConfig holds query-time settings.
type SearchConfig struct {
	DefaultTopK   int    `yaml:"default_top_k"`
	MaxTopK       int    `yaml:"max_top_k"`
	EFSearch      int    `yaml:"ef_search"`
	IterativeScan string `yaml:"iterative_scan"` // off, relaxed_order, strict_order
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string                    `yaml:"provider"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Retry     RetryConfig               `yaml:"retry"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Dimensions int    `yaml:"dimensions"` // requested output width, 0 keeps the model default
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// CacheConfig holds the query-embedding cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// IngestConfig holds marketplace ingestion and backfill settings.
type IngestConfig struct {
	Sources         []string       `yaml:"sources"`
	Terms           []string       `yaml:"terms"`
	Pages           int            `yaml:"pages"`
	MinDelayMS      int            `yaml:"min_delay_ms"`
	UserAgent       string         `yaml:"user_agent"`
	Retry           RetryConfig    `yaml:"retry"`
	ImageMaxMB      int            `yaml:"image_max_mb"`
	ImageTimeoutSec int            `yaml:"image_timeout_sec"`
	Backfill        BackfillConfig `yaml:"backfill"`
}

// BackfillConfig holds embedding backfill settings.
type BackfillConfig struct {
	BatchSize   int `yaml:"batch_size"`
	MaxBatches  int `yaml:"max_batches"` // 0 = until none remain
	Concurrency int `yaml:"concurrency"`
}

// SchedulerConfig holds the recurring job specs.
type SchedulerConfig struct {
	IngestCron    string `yaml:"ingest_cron"`
	BackfillCron  string `yaml:"backfill_cron"`
	JobTimeoutMin int    `yaml:"job_timeout_min"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML with ${VAR} expansion, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 15
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyMB <= 0 {
		c.HTTP.MaxBodyMB = 15
	}

	if c.Database.MinConns <= 0 {
		c.Database.MinConns = 2
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.StatementTimeoutSec <= 0 {
		c.Database.StatementTimeoutSec = 30
	}

	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 768
	}
	if c.Index.Metric == "" {
		c.Index.Metric = string(db.DistanceCosine)
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 64
	}

	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = request.DefaultTopK
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = request.MaxTopK
	}
	if c.Search.EFSearch <= 0 {
		c.Search.EFSearch = 100
	}
	if c.Search.IterativeScan == "" {
		c.Search.IterativeScan = "off"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderCLIP
	}
	c.Embedding.Retry.applyDefaults(retry.Default())

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 3600
	}

	if len(c.Ingest.Sources) == 0 {
		c.Ingest.Sources = []string{"depop", "grailed", "vinted"}
	}
	if len(c.Ingest.Terms) == 0 {
		c.Ingest.Terms = []string{"vintage tee", "denim jacket", "streetwear"}
	}
	if c.Ingest.Pages <= 0 {
		c.Ingest.Pages = 3
	}
	if c.Ingest.MinDelayMS <= 0 {
		c.Ingest.MinDelayMS = 1500
	}
	c.Ingest.Retry.applyDefaults(retry.Policy{
		MaxAttempts: 4, BaseDelay: 5 * time.Second, MaxDelay: 40 * time.Second, Jitter: 0.2,
	})
	if c.Ingest.ImageMaxMB <= 0 {
		c.Ingest.ImageMaxMB = 10
	}
	if c.Ingest.ImageTimeoutSec <= 0 {
		c.Ingest.ImageTimeoutSec = 20
	}
	if c.Ingest.Backfill.BatchSize <= 0 {
		c.Ingest.Backfill.BatchSize = 100
	}
	if c.Ingest.Backfill.Concurrency <= 0 {
		c.Ingest.Backfill.Concurrency = 4
	}

	if c.Scheduler.IngestCron == "" {
		c.Scheduler.IngestCron = "0 */3 * * *"
	}
	if c.Scheduler.BackfillCron == "" {
		c.Scheduler.BackfillCron = "30 */3 * * *"
	}
	if c.Scheduler.JobTimeoutMin <= 0 {
		c.Scheduler.JobTimeoutMin = 120
	}
}

func (r *RetryConfig) applyDefaults(p retry.Policy) {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = p.MaxAttempts
	}
	if r.BaseDelayMS <= 0 {
		r.BaseDelayMS = int(p.BaseDelay.Milliseconds())
	}
	if r.MaxDelayMS <= 0 {
		r.MaxDelayMS = int(p.MaxDelay.Milliseconds())
	}
	if r.Jitter <= 0 {
		r.Jitter = p.Jitter
	}
}

// Policy converts the settings to a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   time.Duration(r.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(r.MaxDelayMS) * time.Millisecond,
		Jitter:      r.Jitter,
	}
}

// ActiveProvider returns the settings of the selected embedding provider.
func (c *Config) ActiveProvider() ProviderConfig {
	return c.Embedding.Providers[c.Embedding.Provider]
}

// IndexDefinition returns the vector index described by the config.
func (c *Config) IndexDefinition(table string) *db.IndexDefinition {
	return &db.IndexDefinition{
		Table:          table,
		Dimensions:     c.Index.Dimensions,
		Distance:       db.DistanceMetric(c.Index.Metric),
		M:              c.Index.HNSWM,
		EFConstruction: c.Index.HNSWEFConstruct,
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Index.Dimensions > 16000 {
		return fmt.Errorf("index.dimensions must be at most 16000, got %d", c.Index.Dimensions)
	}
	if _, err := db.ParseDistanceMetric(c.Index.Metric); err != nil {
		return fmt.Errorf("index.metric: %w", err)
	}
	if c.Search.MaxTopK > request.MaxTopK {
		return fmt.Errorf("search.max_top_k must be at most %d, got %d", request.MaxTopK, c.Search.MaxTopK)
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds max_top_k (%d)", c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	switch c.Search.IterativeScan {
	case "off", "relaxed_order", "strict_order":
	default:
		return fmt.Errorf(
			"search.iterative_scan must be \"off\", \"relaxed_order\" or \"strict_order\", got %q",
			c.Search.IterativeScan,
		)
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when the cache is enabled")
	}
	for _, s := range c.Ingest.Sources {
		if !slices.Contains([]string{"depop", "grailed", "vinted"}, s) {
			return fmt.Errorf("ingest.sources: unknown source %q", s)
		}
	}
	for name, spec := range map[string]string{
		"scheduler.ingest_cron":   c.Scheduler.IngestCron,
		"scheduler.backfill_cron": c.Scheduler.BackfillCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	p, ok := c.Embedding.Providers[c.Embedding.Provider]
	switch c.Embedding.Provider {
	case ProviderCLIP:
		if !ok || p.BaseURL == "" {
			return fmt.Errorf("embedding.providers.clip.base_url is required")
		}
	case ProviderOpenAI:
		if !ok || p.APIKey == "" {
			return fmt.Errorf("embedding.providers.openai.api_key is required")
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderCLIP, ProviderOpenAI, c.Embedding.Provider)
	}
	if p.Model == "" {
		return fmt.Errorf("embedding.providers.%s.model is required", c.Embedding.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
