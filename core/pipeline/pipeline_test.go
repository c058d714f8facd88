package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/core/questions"
	"github.com/siherrmann/geobench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build([]model.City{
		{Name: "A", Lat: 0, Lon: 0},
		{Name: "B", Lat: 0, Lon: 1},
		{Name: "C", Lat: 1, Lon: 0},
		{Name: "D", Lat: 0, Lon: 3},
	})
	require.NoError(t, err, "Expected no error building the graph")
	return g
}

func questionSets(t *testing.T, count int) []model.QuestionSet {
	t.Helper()
	sets, err := questions.NewGenerator(42).Generate(lineGraph(t), count)
	require.NoError(t, err)
	return sets
}

func echoAsk(ctx context.Context, question string) (any, error) {
	return "  " + question + "\n", nil
}

func TestPipelineAnswer(t *testing.T) {
	ctx := context.Background()
	q := questionSets(t, 1)[0].Easy

	t.Run("Valid call Answer", func(t *testing.T) {
		record := NewPipeline(model.StrategyPlain, echoAsk).Answer(ctx, 0, q)
		assert.Equal(t, q.ID, record.QuestionID)
		assert.Equal(t, model.DifficultyEasy, record.Difficulty)
		assert.Equal(t, model.StrategyPlain, record.Strategy)
		assert.Equal(t, q.Text, record.Raw, "Expected string answers to be trimmed")
		assert.Empty(t, record.Error)
	})

	t.Run("Producer error becomes abstention", func(t *testing.T) {
		record := NewPipeline(model.StrategyPlain, func(ctx context.Context, question string) (any, error) {
			return "ignored", errors.New("rate limited")
		}).Answer(ctx, 0, q)
		assert.Nil(t, record.Raw)
		assert.Equal(t, "rate limited", record.Error)
	})

	t.Run("Producer panic becomes abstention", func(t *testing.T) {
		record := NewPipeline(model.StrategyPlain, func(ctx context.Context, question string) (any, error) {
			panic("boom")
		}).Answer(ctx, 0, q)
		assert.Nil(t, record.Raw)
		assert.Contains(t, record.Error, "boom")
	})
}

func TestRunner(t *testing.T) {
	ctx := context.Background()
	sets := questionSets(t, 5)

	t.Run("Valid call Run keeps question order", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		runner := NewRunner(WithWorkers(3), WithMetrics(NewMetrics(reg)))

		file, err := runner.Run(ctx, NewPipeline(model.StrategyPlain, echoAsk), sets)
		require.NoError(t, err)
		assert.Equal(t, model.StrategyPlain, file.Strategy)
		assert.NotEqual(t, uuid.Nil, file.RunID)
		require.Len(t, file.Answers, len(sets))

		for i, set := range sets {
			assert.Equal(t, set.Index, file.Answers[i].Index)
			for _, d := range model.Difficulties {
				q, err := set.Question(d)
				require.NoError(t, err)
				record, err := file.Answers[i].Record(d)
				require.NoError(t, err)
				assert.Equal(t, q.ID, record.QuestionID)
				assert.Equal(t, q.Text, record.Raw)
			}
		}

		assert.Equal(t, 3, testutil.CollectAndCount(reg, "geobench_answer_duration_seconds"))
	})

	t.Run("Failures do not stop the run", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		metrics := NewMetrics(reg)
		runner := NewRunner(WithMetrics(metrics))

		ask := func(ctx context.Context, question string) (any, error) {
			if strings.HasPrefix(question, "The distance from") {
				panic("hard question")
			}
			return 1.0, nil
		}
		file, err := runner.Run(ctx, NewPipeline(model.StrategyGraph, ask), sets)
		require.NoError(t, err)

		for _, answers := range file.Answers {
			assert.Equal(t, 1.0, answers.Easy.Raw)
			assert.Nil(t, answers.Hard.Raw)
			assert.NotEmpty(t, answers.Hard.Error)
		}
		assert.Equal(t, float64(len(sets)), testutil.ToFloat64(metrics.AnswerFailures.WithLabelValues("graph")))
	})

	t.Run("Invalid call Run with cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewRunner().Run(cancelled, NewPipeline(model.StrategyPlain, echoAsk), sets)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Cancelled run waits for started producers", func(t *testing.T) {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var running, started atomic.Int32
		ask := func(ctx context.Context, question string) (any, error) {
			running.Add(1)
			defer running.Add(-1)
			if started.Add(1) == 1 {
				cancel()
			}
			<-ctx.Done()
			return nil, ctx.Err()
		}

		_, err := NewRunner(WithWorkers(3)).Run(runCtx, NewPipeline(model.StrategyPlain, ask), sets)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), running.Load(), "Expected no producer to outlive Run")
	})

	t.Run("Workers limit concurrency", func(t *testing.T) {
		var running, peak atomic.Int32
		ask := func(ctx context.Context, question string) (any, error) {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return nil, nil
		}

		_, err := NewRunner(WithWorkers(2)).Run(ctx, NewPipeline(model.StrategyPlain, ask), sets)
		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})
}
