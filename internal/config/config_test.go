package config

import (
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
database:
  url: postgres://localhost/findfit
embedding:
  provider: clip
  providers:
    clip:
      base_url: http://localhost:8001/v1
      model: ViT-B-32
`

func validConfig() Config {
	cfg := Config{
		Database: DatabaseConfig{URL: "postgres://localhost/findfit"},
		Embedding: EmbeddingConfig{
			Provider: ProviderCLIP,
			Providers: map[string]ProviderConfig{
				ProviderCLIP: {BaseURL: "http://localhost:8001/v1", Model: "ViT-B-32"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.HTTP.Port != 8000 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
	if cfg.Index.Dimensions != 768 || cfg.Index.Metric != "cosine" {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Search.DefaultTopK != 20 || cfg.Search.MaxTopK != 100 || cfg.Search.EFSearch != 100 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Database.MinConns != 2 || cfg.Database.MaxConns != 10 {
		t.Errorf("database pool = %d/%d", cfg.Database.MinConns, cfg.Database.MaxConns)
	}
	if p := cfg.Embedding.Retry.Policy(); p.MaxAttempts != 5 || p.BaseDelay != 200*time.Millisecond || p.MaxDelay != 5*time.Second {
		t.Errorf("embedding retry = %+v", p)
	}
	if cfg.Scheduler.IngestCron != "0 */3 * * *" || cfg.Scheduler.BackfillCron != "30 */3 * * *" {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if len(cfg.Ingest.Sources) != 3 {
		t.Errorf("ingest.sources = %v", cfg.Ingest.Sources)
	}
	if cfg.ActiveProvider().Model != "ViT-B-32" {
		t.Errorf("active provider = %+v", cfg.ActiveProvider())
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("FINDFIT_TEST_DB", "postgres://db.internal/findfit")
	data := strings.Replace(minimalYAML, "postgres://localhost/findfit", "${FINDFIT_TEST_DB}", 1)
	data += "http:\n  port: ${FINDFIT_TEST_PORT:-9090}\n"

	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.URL != "postgres://db.internal/findfit" {
		t.Errorf("database.url = %q", cfg.Database.URL)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "database.url is required"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"bad metric", func(c *Config) { c.Index.Metric = "hamming" }, "index.metric"},
		{"bad iterative scan", func(c *Config) { c.Search.IterativeScan = "sometimes" }, "search.iterative_scan"},
		{"top k above hard max", func(c *Config) { c.Search.MaxTopK = 500 }, "search.max_top_k"},
		{"default above max", func(c *Config) { c.Search.DefaultTopK = 50; c.Search.MaxTopK = 10 }, "search.default_top_k"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"openai without key", func(c *Config) {
			c.Embedding.Provider = ProviderOpenAI
			c.Embedding.Providers[ProviderOpenAI] = ProviderConfig{Model: "m"}
		}, "api_key is required"},
		{"clip without model", func(c *Config) {
			c.Embedding.Providers[ProviderCLIP] = ProviderConfig{BaseURL: "http://x"}
		}, "model is required"},
		{"cache without addrs", func(c *Config) { c.Cache.Enabled = true }, "cache.addrs"},
		{"unknown source", func(c *Config) { c.Ingest.Sources = []string{"ebay"} }, "unknown source"},
		{"bad cron", func(c *Config) { c.Scheduler.IngestCron = "every tuesday" }, "scheduler.ingest_cron"},
		{"pool inverted", func(c *Config) { c.Database.MinConns = 20 }, "min_conns"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIndexDefinition(t *testing.T) {
	cfg := validConfig()
	def := cfg.IndexDefinition("listings")
	if err := def.Validate(); err != nil {
		t.Fatalf("default index definition must be valid: %v", err)
	}
	if def.Dimensions != 768 || def.M != 16 || def.EFConstruction != 64 {
		t.Errorf("unexpected definition: %+v", def)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/findfit")
	t.Setenv("OPENAI_API_KEY", "test-key")
	for _, env := range []string{"local", "dev", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
		})
	}
}
