package config

import "time"

// RetrievalConfig holds the re-ranking policy and prompt limits.
type RetrievalConfig struct {
	Ranking RankingConfig `yaml:"ranking"`
	Prompt  PromptConfig  `yaml:"prompt"`
}

// RankingConfig is the YAML form of retrieval.Policy.
type RankingConfig struct {
	DefaultWeight   float64              `yaml:"default_weight"`
	RecencyWeight   float64              `yaml:"recency_weight"`
	RecencyHalfLife time.Duration        `yaml:"recency_half_life"`
	SourceWeights   []SourceWeightConfig `yaml:"source_weights"`
}

type SourceWeightConfig struct {
	Source      string  `yaml:"source"`
	URLContains string  `yaml:"url_contains"`
	Weight      float64 `yaml:"weight"`
}

type PromptConfig struct {
	MaxContextChars int `yaml:"max_context_chars"`
}
