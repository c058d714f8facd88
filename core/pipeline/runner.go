package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of questions answered in parallel
const DefaultWorkers = 4

// Runner asks every question of a benchmark through a pipeline
type Runner struct {
	workers int
	logger  *slog.Logger
	metrics *Metrics
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithWorkers limits the number of concurrent producer calls
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the runner logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records producer latencies
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a new runner
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run answers all questions of sets and returns the answers in question order.
// Only cancellation of ctx fails the run; producer failures become nil answers.
func (r *Runner) Run(ctx context.Context, p *Pipeline, sets []model.QuestionSet) (model.AnswerFile, error) {
	start := time.Now()
	p.SetLogger(r.logger)

	type job struct {
		slot  int
		index int
		d     model.Difficulty
		q     model.Question
	}

	// Questions are resolved before the first producer starts
	jobs := make([]job, 0, len(sets)*len(model.Difficulties))
	for i, set := range sets {
		for j, d := range model.Difficulties {
			q, err := set.Question(d)
			if err != nil {
				return model.AnswerFile{}, helper.NewError("question", err)
			}
			jobs = append(jobs, job{slot: i*len(model.Difficulties) + j, index: set.Index, d: d, q: q})
		}
	}

	records := make([]model.AnswerRecord, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, jb := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			answerStart := time.Now()
			record := p.Answer(gctx, jb.index, jb.q)
			r.metrics.ObserveAnswer(string(p.Strategy), string(jb.d), time.Since(answerStart))
			if record.Error != "" {
				r.metrics.IncrementFailure(string(p.Strategy))
			}

			records[jb.slot] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.AnswerFile{}, helper.NewError("run "+string(p.Strategy), err)
	}

	answers := make([]model.AnswerSet, len(sets))
	failed := 0
	for i, set := range sets {
		answers[i].Index = set.Index
		for j := range model.Difficulties {
			record := records[i*len(model.Difficulties)+j]
			if record.Error != "" {
				failed++
			}
			if err := answers[i].Set(record); err != nil {
				return model.AnswerFile{}, helper.NewError("answer set", err)
			}
		}
	}

	elapsed := time.Since(start).Seconds()
	r.logger.Info(
		"Finished strategy",
		slog.String("strategy", string(p.Strategy)),
		slog.Int("questions", len(records)),
		slog.Int("failed", failed),
		slog.Float64("seconds", elapsed),
	)

	return model.AnswerFile{
		RunID:                uuid.New(),
		Strategy:             p.Strategy,
		Answers:              answers,
		ExecutionTimeSeconds: elapsed,
	}, nil
}
