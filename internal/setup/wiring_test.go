package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

var configKeys = []string{
	"PORT", "TOP_K_INITIAL", "TOP_K_FINAL", "EMBED_TIMEOUT", "COMPLETION_TIMEOUT",
	"LLM_MAX_TOKENS", "LLM_TEMPERATURE", "LLM_PROVIDER", "EMBEDDING_PROVIDER",
	"INDEX_SOURCE", "INDEX_DIR", "INDEX_METRIC", "CACHE_BACKEND", "CACHE_SIZE", "REDIS_TTL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "RETRIEVAL_CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()

	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", cfg.Port)
	}
	if cfg.TopKInitial != 750 || cfg.TopKFinal != 5 {
		t.Errorf("Expected top k 750/5, got %d/%d", cfg.TopKInitial, cfg.TopKFinal)
	}
	if cfg.EmbedTimeout != 15*time.Second || cfg.CompletionTimeout != 60*time.Second {
		t.Errorf("Unexpected timeouts %v/%v", cfg.EmbedTimeout, cfg.CompletionTimeout)
	}
	if cfg.MaxTokens != 1024 || cfg.Temperature != 0.2 {
		t.Errorf("Unexpected generation defaults %d/%v", cfg.MaxTokens, cfg.Temperature)
	}
	if cfg.IndexSource != SourceDir || cfg.CacheBackend != CacheNone || cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("Unexpected source/cache/provider defaults %s/%s/%s", cfg.IndexSource, cfg.CacheBackend, cfg.LLMProvider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOP_K_INITIAL", "100")
	t.Setenv("TOP_K_FINAL", "3")
	t.Setenv("EMBED_TIMEOUT", "2s")
	t.Setenv("LLM_TEMPERATURE", "0")
	t.Setenv("REDIS_TTL", "not-a-duration")

	cfg := LoadConfig()

	if cfg.TopKInitial != 100 || cfg.TopKFinal != 3 {
		t.Errorf("Expected top k 100/3, got %d/%d", cfg.TopKInitial, cfg.TopKFinal)
	}
	if cfg.EmbedTimeout != 2*time.Second {
		t.Errorf("Expected embed timeout 2s, got %v", cfg.EmbedTimeout)
	}
	if cfg.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", cfg.Temperature)
	}
	if cfg.RedisTTL != 24*time.Hour {
		t.Errorf("Expected invalid TTL to fall back to 24h, got %v", cfg.RedisTTL)
	}
}

func TestConfig_Validate(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()
	cfg.TopKFinal = cfg.TopKInitial + 1
	if err := cfg.Validate(); !errors.Is(err, retrieval.ErrInvalidTopK) {
		t.Errorf("Expected ErrInvalidTopK, got %v", err)
	}

	cfg = LoadConfig()
	cfg.IndexMetric = "hamming"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected unsupported metric error")
	}
}

func writeDirIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	manifest := index.Manifest{Dim: 2, Count: 2, Vectors: "vectors.f32", Metadata: "metadatas.json"}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, index.ManifestFile), data, 0o644); err != nil {
		t.Fatal(err)
	}

	var vectors bytes.Buffer
	if err := index.EncodeVectors(&vectors, []float32{1, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "vectors.f32"), vectors.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	metadata := `[{"url":"https://example.com/a","content":"a"},{"url":"https://example.com/b","content":"b"}]`
	if err := os.WriteFile(filepath.Join(dir, "metadatas.json"), []byte(metadata), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestWire_DirSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETRIEVAL_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := LoadConfig()
	cfg.OpenAIKey = "test-key"
	cfg.OpenAIBaseURL = "http://127.0.0.1:1/v1"
	cfg.CacheBackend = CacheMemory
	cfg.IndexDir = writeDirIndex(t)

	deps, err := Wire(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Wire() failed: %v", err)
	}
	defer deps.Close()

	if deps.Service == nil || deps.LoadIndex == nil {
		t.Fatal("Expected service and index loader to be wired")
	}
	if deps.Gate.Ready() {
		t.Error("Expected gate to start closed")
	}

	store, err := deps.LoadIndex(context.Background())
	if err != nil {
		t.Fatalf("LoadIndex() failed: %v", err)
	}
	if store.Size() != 2 || store.Dim() != 2 {
		t.Errorf("Unexpected store size/dim %d/%d", store.Size(), store.Dim())
	}

	if !deps.Gate.Set(store) || !deps.Gate.Ready() {
		t.Error("Expected gate to open once")
	}
}

func TestWire_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{name: "missing openai key", modify: func(cfg *Config) { cfg.OpenAIKey = "" }},
		{name: "unknown llm provider", modify: func(cfg *Config) { cfg.LLMProvider = "other" }},
		{name: "unknown embedding provider", modify: func(cfg *Config) { cfg.EmbeddingProvider = "other" }},
		{name: "unknown cache", modify: func(cfg *Config) { cfg.CacheBackend = "memcached" }},
		{name: "zero memory cache", modify: func(cfg *Config) { cfg.CacheBackend = CacheMemory; cfg.CacheSize = 0 }},
		{name: "unknown index source", modify: func(cfg *Config) { cfg.IndexSource = "ftp" }},
		{name: "invalid top k", modify: func(cfg *Config) { cfg.TopKFinal = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("RETRIEVAL_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

			cfg := LoadConfig()
			cfg.OpenAIKey = "test-key"
			tt.modify(cfg)

			if _, err := Wire(context.Background(), cfg, testLogger()); err == nil {
				t.Error("Expected Wire() to fail")
			}
		})
	}
}

func TestLoadAndPublish(t *testing.T) {
	loadErr := errors.New("connection reset")
	store, err := index.New(1, index.MetricL2, []float32{0}, []index.Document{{URL: "https://example.com/a"}})
	if err != nil {
		t.Fatalf("index.New() failed: %v", err)
	}

	tests := []struct {
		name      string
		cancelled bool
		load      func(ctx context.Context) (*index.Store, error)
		wantErr   bool
		wantReady bool
	}{
		{
			name:      "success publishes the store",
			load:      func(ctx context.Context) (*index.Store, error) { return store, nil },
			wantReady: true,
		},
		{
			name:    "load failure is returned",
			load:    func(ctx context.Context) (*index.Store, error) { return nil, loadErr },
			wantErr: true,
		},
		{
			name:      "shutdown during load is not a failure",
			cancelled: true,
			load:      func(ctx context.Context) (*index.Store, error) { return nil, ctx.Err() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancelled {
				cancel()
			}

			deps := &Dependencies{Gate: index.NewGate(), LoadIndex: tt.load, Logger: testLogger()}
			err := deps.LoadAndPublish(ctx)

			if tt.wantErr {
				if !errors.Is(err, loadErr) {
					t.Errorf("Expected %v, got %v", loadErr, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if deps.Gate.Ready() != tt.wantReady {
				t.Errorf("Expected ready=%v, got %v", tt.wantReady, deps.Gate.Ready())
			}
		})
	}
}
