package geobench

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/siherrmann/geobench/core/pipeline"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	RetrieverVector     = "vector"
	RetrieverContextual = "contextual"
)

// EmbeddingConfig selects the sentence transformer of the vector strategy
type EmbeddingConfig struct {
	Model    string `yaml:"model"`
	OnnxFile string `yaml:"onnx_file"`
	Dim      int    `yaml:"dim"`
}

// RetrievalConfig configures the vector strategy
type RetrievalConfig struct {
	// Retriever is "vector" or "contextual"
	Retriever         string `yaml:"retriever"`
	model.QueryConfig `yaml:",inline"`
}

// Config holds all settings of a benchmark run
type Config struct {
	// Country is the OpenStreetMap country name cities are fetched for
	Country string `yaml:"country"`
	// CountryCode restricts geocoding of free-text answers (ISO 3166-1 alpha-2)
	CountryCode string `yaml:"country_code"`
	// CitiesFile caches the fetched cities as [{name, lat, lon}]
	CitiesFile string `yaml:"cities_file"`
	OutputDir  string `yaml:"output_dir"`

	Count int    `yaml:"count"`
	Seed  uint64 `yaml:"seed"`
	// ExcludeReferences drops c1 and c2 from the hard question candidates
	ExcludeReferences bool             `yaml:"exclude_references"`
	Strategies        []model.Strategy `yaml:"strategies"`
	Workers           int              `yaml:"workers"`

	// Storage is "memory" or "postgres"
	Storage string `yaml:"storage"`
	// CacheURL is a redis:// URL; empty keeps the cache in memory
	CacheURL string `yaml:"cache_url"`
	// CacheFile persists the in-memory cache between runs
	CacheFile string `yaml:"cache_file"`
	// Geocode resolves answered cities outside the graph with Nominatim
	Geocode  bool   `yaml:"geocode"`
	LogLevel string `yaml:"log_level"`

	Chat      pipeline.ChatConfig `yaml:"chat"`
	Embedding EmbeddingConfig     `yaml:"embedding"`
	Retrieval RetrievalConfig     `yaml:"retrieval"`
	Eval      model.EvalConfig    `yaml:"eval"`
}

// DefaultConfig returns the default benchmark: 20 question sets
// over the cities of Australia, all three strategies
func DefaultConfig() Config {
	return Config{
		Country:     "Australia",
		CountryCode: "au",
		CitiesFile:  "cities.json",
		OutputDir:   "results",
		Count:       20,
		Seed:        1,
		Strategies:  []model.Strategy{model.StrategyPlain, model.StrategyVector, model.StrategyGraph},
		Workers:     pipeline.DefaultWorkers,
		Storage:     StorageMemory,
		LogLevel:    "info",
		Chat: pipeline.ChatConfig{
			Provider: "openai",
			Model:    pipeline.DefaultOpenAIModel,
		},
		Embedding: EmbeddingConfig{
			Model:    pipeline.DefaultEmbeddingModel,
			OnnxFile: "onnx/model.onnx",
			Dim:      pipeline.DefaultEmbeddingDim,
		},
		Retrieval: RetrievalConfig{
			Retriever:   RetrieverVector,
			QueryConfig: model.DefaultQueryConfig(),
		},
		Eval: model.DefaultEvalConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults and applies the environment.
// An empty path only applies the environment.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, helper.NewError("read config", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, helper.NewError("parse config", fmt.Errorf("%w: %v", model.ErrInput, err))
		}
	}

	_ = godotenv.Load()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if c.Chat.APIKey == "" {
		switch strings.ToLower(c.Chat.Provider) {
		case "anthropic":
			c.Chat.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if url := os.Getenv("GEOBENCH_CACHE_URL"); url != "" {
		c.CacheURL = url
	}
}

// Validate checks the settings that would otherwise fail late in a run
func (c Config) Validate() error {
	var problems []string
	if c.Count < 0 {
		problems = append(problems, fmt.Sprintf("count %d is negative", c.Count))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers %d is negative", c.Workers))
	}
	for _, s := range c.Strategies {
		switch s {
		case model.StrategyPlain, model.StrategyVector, model.StrategyGraph:
		default:
			problems = append(problems, fmt.Sprintf("unknown strategy %q", s))
		}
	}
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage %q", c.Storage))
	}
	switch c.Retrieval.Retriever {
	case RetrieverVector, RetrieverContextual:
	default:
		problems = append(problems, fmt.Sprintf("unknown retriever %q", c.Retrieval.Retriever))
	}
	if c.Retrieval.Sparsity < 0 || c.Retrieval.Sparsity > 1 {
		problems = append(problems, fmt.Sprintf("sparsity %v is outside [0,1]", c.Retrieval.Sparsity))
	}

	if len(problems) > 0 {
		return helper.NewError("validate config", fmt.Errorf("%w: %s", model.ErrInput, strings.Join(problems, "; ")))
	}
	return nil
}

// Level returns the slog level named by LogLevel
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
