package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
	"go.yaml.in/yaml/v3"
)

const (
	defaultConfigPath      = "configs/retrieval.yaml"
	defaultMaxContextChars = 2000
)

// LoadRetrievalConfig reads RETRIEVAL_CONFIG_PATH (configs/retrieval.yaml by
// default). A missing file yields the defaults.
func LoadRetrievalConfig() (*RetrievalConfig, error) {
	path := os.Getenv("RETRIEVAL_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var cfg RetrievalConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("Unable to read retrieval config %s. Error: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("Unable to parse retrieval config %s. Error: %w", path, err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *RetrievalConfig) {
	if cfg.Ranking.DefaultWeight == 0 {
		cfg.Ranking.DefaultWeight = 1.0
	}
	if cfg.Ranking.RecencyWeight > 0 && cfg.Ranking.RecencyHalfLife == 0 {
		cfg.Ranking.RecencyHalfLife = 180 * 24 * time.Hour
	}
	if cfg.Prompt.MaxContextChars == 0 {
		cfg.Prompt.MaxContextChars = defaultMaxContextChars
	}
}

func (c *RetrievalConfig) Validate() error {
	if c.Ranking.DefaultWeight < 0 {
		return fmt.Errorf("ranking.default_weight must not be negative, got %v", c.Ranking.DefaultWeight)
	}
	if c.Ranking.RecencyWeight < 0 {
		return fmt.Errorf("ranking.recency_weight must not be negative, got %v", c.Ranking.RecencyWeight)
	}
	if c.Ranking.RecencyHalfLife < 0 {
		return fmt.Errorf("ranking.recency_half_life must not be negative, got %v", c.Ranking.RecencyHalfLife)
	}
	for i, sw := range c.Ranking.SourceWeights {
		if sw.Source == "" && sw.URLContains == "" {
			return fmt.Errorf("ranking.source_weights[%d] needs source or url_contains", i)
		}
		if sw.Weight <= 0 {
			return fmt.Errorf("ranking.source_weights[%d] weight must be positive, got %v", i, sw.Weight)
		}
	}
	if c.Prompt.MaxContextChars < 0 {
		return fmt.Errorf("prompt.max_context_chars must not be negative, got %d", c.Prompt.MaxContextChars)
	}
	return nil
}

func (c *RetrievalConfig) Policy() retrieval.Policy {
	policy := retrieval.DefaultPolicy()
	policy.DefaultWeight = c.Ranking.DefaultWeight
	policy.RecencyWeight = c.Ranking.RecencyWeight
	policy.RecencyHalfLife = c.Ranking.RecencyHalfLife

	for _, sw := range c.Ranking.SourceWeights {
		policy.SourceWeights = append(policy.SourceWeights, retrieval.SourceWeight{
			Source:      sw.Source,
			URLContains: sw.URLContains,
			Weight:      sw.Weight,
		})
	}
	return policy
}
