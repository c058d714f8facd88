package main

import (
	"fmt"
	"path/filepath"

	"github.com/siherrmann/geobench"
	"github.com/siherrmann/geobench/core/artifact"
	"github.com/siherrmann/geobench/model"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration and applies the flags that were set
func loadConfig(cmd *cobra.Command, opts *rootOptions, strategies []string) (geobench.Config, error) {
	config, err := geobench.LoadConfig(opts.configPath)
	if err != nil {
		return config, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("country") {
		config.Country = opts.country
	}
	if flags.Changed("output") {
		config.OutputDir = opts.output
	}
	if flags.Changed("count") {
		config.Count = opts.count
	}
	if flags.Changed("seed") {
		config.Seed = opts.seed
	}
	if len(strategies) > 0 {
		config.Strategies = parseStrategies(strategies)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func openBench(cmd *cobra.Command, opts *rootOptions, strategies []string) (*geobench.Bench, error) {
	config, err := loadConfig(cmd, opts, strategies)
	if err != nil {
		return nil, err
	}

	b, err := geobench.New(cmd.Context(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create bench: %w", err)
	}
	return b, nil
}

func outputPath(b *geobench.Bench, name string) string {
	return filepath.Join(b.Config.OutputDir, name)
}

// runGenerate handles the generate command.
func runGenerate(cmd *cobra.Command, opts *rootOptions) error {
	b, err := openBench(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.LoadCities(cmd.Context()); err != nil {
		return err
	}
	if err := b.WriteGraph(); err != nil {
		return err
	}

	sets, err := b.GenerateQuestions()
	if err != nil {
		return err
	}
	path := outputPath(b, artifact.QuestionsFile)
	if err := artifact.WriteQuestions(path, sets); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d question sets over %d cities to %s\n", len(sets), b.Graph.Len(), path)
	return nil
}

// runAnswer handles the answer command.
func runAnswer(cmd *cobra.Command, opts *rootOptions, strategies []string) error {
	b, err := openBench(cmd, opts, strategies)
	if err != nil {
		return err
	}
	defer b.Close()

	sets, err := artifact.ReadQuestions(outputPath(b, artifact.QuestionsFile))
	if err != nil {
		return err
	}
	if err := b.LoadCities(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, strategy := range b.Config.Strategies {
		file, err := b.Answer(cmd.Context(), strategy, sets)
		if err != nil {
			return err
		}
		path := outputPath(b, artifact.AnswersFile(strategy))
		if err := artifact.WriteAnswers(path, file); err != nil {
			return err
		}
		fmt.Fprintf(out, "Answered %d question sets with %s in %.1fs: %s\n", len(file.Answers), strategy, file.ExecutionTimeSeconds, path)
	}
	return nil
}

// runEvaluate handles the evaluate command.
func runEvaluate(cmd *cobra.Command, opts *rootOptions, strategies []string) error {
	b, err := openBench(cmd, opts, strategies)
	if err != nil {
		return err
	}
	defer b.Close()

	sets, err := artifact.ReadQuestions(outputPath(b, artifact.QuestionsFile))
	if err != nil {
		return err
	}
	if err := b.LoadCities(cmd.Context()); err != nil {
		return err
	}

	files := make([]model.AnswerFile, 0, len(b.Config.Strategies))
	for _, strategy := range b.Config.Strategies {
		file, err := artifact.ReadAnswers(outputPath(b, artifact.AnswersFile(strategy)), strategy)
		if err != nil {
			return err
		}
		files = append(files, file)
	}

	reports, err := b.Evaluate(cmd.Context(), sets, files)
	if err != nil {
		return err
	}
	return b.WriteReports(cmd.OutOrStdout(), reports)
}

// runAll handles the run command.
func runAll(cmd *cobra.Command, opts *rootOptions) error {
	b, err := openBench(cmd, opts, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	_, err = b.Run(cmd.Context(), cmd.OutOrStdout())
	return err
}
