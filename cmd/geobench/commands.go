package main

import (
	"github.com/siherrmann/geobench/model"
	"github.com/spf13/cobra"
)

func buildGenerateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Load the cities and write the question sets",
		Long: `Load the cities of the country, build the distance graph and write
city_questions.json and city_graph.ttl to the output directory.

Cities are read from the cities file, then from the database, then fetched
from OpenStreetMap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
}

func buildAnswerCmd(opts *rootOptions) *cobra.Command {
	var strategies []string
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Answer the generated questions",
		Long: `Answer the question sets in the output directory with the given strategies
and write <strategy>_answers.json for each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(cmd, opts, strategies)
		},
	}
	cmd.Flags().StringSliceVarP(&strategies, "strategy", "s", nil, "Strategies to run (plain, vector, graph); defaults to the configured ones")
	return cmd
}

func buildEvaluateCmd(opts *rootOptions) *cobra.Command {
	var strategies []string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the answer files",
		Long: `Score the answer files in the output directory against the question sets,
print the MSE summary and residual histograms and write report.json and
metrics.prom.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts, strategies)
		},
	}
	cmd.Flags().StringSliceVarP(&strategies, "strategy", "s", nil, "Strategies to score; defaults to the configured ones")
	return cmd
}

func buildRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate, answer and evaluate in one go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(cmd, opts)
		},
	}
}

func parseStrategies(values []string) []model.Strategy {
	strategies := make([]model.Strategy, len(values))
	for i, v := range values {
		strategies[i] = model.Strategy(v)
	}
	return strategies
}
