// Package main provides the geobench CLI.
//
// geobench asks a language model distance questions about the cities of a
// country, once without context, once with retrieved distance passages and
// once through a query over the distance graph, and scores the answers.
//
// # Basic Usage
//
// Run the whole benchmark:
//
//	geobench run --config geobench.yaml
//
// Or step by step:
//
//	geobench generate --country Australia --count 20
//	geobench answer --strategy vector
//	geobench evaluate
//
// # Environment Variables
//
//   - OPENAI_API_KEY: OpenAI API key
//   - ANTHROPIC_API_KEY: Anthropic API key
//   - GEOBENCH_CACHE_URL: redis:// URL of the chat and geocoding cache
//   - GEOBENCH_DB_*: PostgreSQL connection for storage "postgres"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by all commands
type rootOptions struct {
	configPath string
	country    string
	output     string
	count      int
	seed       uint64
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "geobench",
		Short: "City distance question answering benchmark",
		Long: `geobench measures how well a language model answers distance questions
about the cities of a country.

Strategies: plain (no context), vector (retrieved passages), graph (JSON graph query)
Difficulties: easy (two cities), medium (closest city), hard (similar distance)`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML configuration file")
	flags.StringVar(&opts.country, "country", "", "Country whose cities are used")
	flags.StringVarP(&opts.output, "output", "o", "", "Directory of the written artifacts")
	flags.IntVarP(&opts.count, "count", "n", 0, "Number of question sets")
	flags.Uint64Var(&opts.seed, "seed", 0, "Seed of the question sampler")

	rootCmd.AddCommand(
		buildGenerateCmd(opts),
		buildAnswerCmd(opts),
		buildEvaluateCmd(opts),
		buildRunCmd(opts),
	)

	return rootCmd
}
