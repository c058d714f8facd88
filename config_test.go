package geobench

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/geobench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "geobench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NoError(t, config.Validate())
	assert.Equal(t, 20, config.Count)
	assert.Equal(t, StorageMemory, config.Storage)
	assert.Equal(t, []model.Strategy{model.StrategyPlain, model.StrategyVector, model.StrategyGraph}, config.Strategies)
	assert.Equal(t, 700.0, config.Eval.OutlierThreshold)
	assert.Equal(t, slog.LevelInfo, config.Level())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEOBENCH_CACHE_URL", "")

	t.Run("Valid call LoadConfig", func(t *testing.T) {
		path := writeConfig(t, `
country: New Zealand
country_code: nz
count: 5
strategies: [graph]
log_level: debug
retrieval:
  retriever: contextual
  top_k: 3
  sparsity: 0.5
eval:
  outlier_threshold: 500
`)

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "New Zealand", config.Country)
		assert.Equal(t, 5, config.Count)
		assert.Equal(t, []model.Strategy{model.StrategyGraph}, config.Strategies)
		assert.Equal(t, RetrieverContextual, config.Retrieval.Retriever)
		assert.Equal(t, 3, config.Retrieval.TopK)
		assert.Equal(t, 0.5, config.Retrieval.Sparsity)
		assert.Equal(t, 500.0, config.Eval.OutlierThreshold)
		assert.Equal(t, slog.LevelDebug, config.Level())
		// Untouched keys keep their defaults
		assert.Equal(t, "results", config.OutputDir)
	})

	t.Run("Valid call LoadConfig without file", func(t *testing.T) {
		config, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Country, config.Country)
	})

	t.Run("Api key is read from the provider variable", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
		path := writeConfig(t, "chat:\n  provider: anthropic\n")

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "sk-ant-test", config.Chat.APIKey)
	})

	t.Run("Cache url is read from the environment", func(t *testing.T) {
		t.Setenv("GEOBENCH_CACHE_URL", "redis://localhost:6379/0")

		config, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "redis://localhost:6379/0", config.CacheURL)
	})

	t.Run("Invalid call LoadConfig with unknown values", func(t *testing.T) {
		path := writeConfig(t, "strategies: [oracle]\nstorage: sqlite\n")

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, model.ErrInput)
		assert.Contains(t, err.Error(), `unknown strategy "oracle"`)
		assert.Contains(t, err.Error(), `unknown storage "sqlite"`)
	})

	t.Run("Invalid call LoadConfig with malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "count: [1\n")

		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, model.ErrInput)
	})

	t.Run("Invalid call LoadConfig with missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("Sparsity outside the unit interval", func(t *testing.T) {
		config := DefaultConfig()
		config.Retrieval.Sparsity = 1.5
		assert.ErrorIs(t, config.Validate(), model.ErrInput)
	})

	t.Run("Negative count", func(t *testing.T) {
		config := DefaultConfig()
		config.Count = -1
		assert.ErrorIs(t, config.Validate(), model.ErrInput)
	})

	t.Run("Unknown log level falls back to info", func(t *testing.T) {
		config := DefaultConfig()
		config.LogLevel = "verbose"
		assert.Equal(t, slog.LevelInfo, config.Level())
	})
}
