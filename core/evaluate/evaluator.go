package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Locator resolves a free-text city name to coordinates
type Locator interface {
	Locate(ctx context.Context, name string) (model.City, error)
}

// StrategyReport holds the per-difficulty results of one strategy
type StrategyReport struct {
	Strategy             model.Strategy                            `json:"strategy"`
	Metrics              map[model.Difficulty]model.Metrics        `json:"metrics"`
	Results              map[model.Difficulty][]model.ScoredResult `json:"results"`
	ExecutionTimeSeconds float64                                   `json:"execution_time_seconds"`
	Config               model.EvalConfig                          `json:"config"`
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLocator resolves hard-question answers that are not cities of the graph
func WithLocator(locator Locator) Option {
	return func(e *Evaluator) {
		e.locator = locator
	}
}

// WithConfig overrides the outlier threshold and bin width
func WithConfig(cfg model.EvalConfig) Option {
	return func(e *Evaluator) {
		e.cfg = normalize(cfg)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// Evaluator scores raw answers against the ground truth of a graph
type Evaluator struct {
	graph   *graph.Graph
	locator Locator
	cfg     model.EvalConfig
	logger  *slog.Logger
}

// NewEvaluator returns an evaluator over the given graph
func NewEvaluator(g *graph.Graph, opts ...Option) *Evaluator {
	e := &Evaluator{
		graph:  g,
		cfg:    model.DefaultEvalConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the scoring configuration
func (e *Evaluator) Config() model.EvalConfig {
	return e.cfg
}

// Evaluate scores one raw answer. Easy and medium answers are compared as
// distances. Hard answers name a city; the distance from the third city of the
// question to the answered city is compared with the distance to the true city.
func (e *Evaluator) Evaluate(ctx context.Context, q model.Question, raw any) model.ScoredResult {
	if q.Unanswerable() {
		result := Score(nil, nil, e.cfg)
		result.Unanswerable = true
		return result
	}

	if q.Difficulty.Shape() == model.ShapeNumeric {
		return Score(ExtractNumeric(raw), q.GroundTruth.Km, e.cfg)
	}

	return Score(e.hardAnswerKm(ctx, q, raw), e.hardTruthKm(q), e.cfg)
}

// hardTruthKm returns the stored distance to the true city, or derives it
// from the graph for question files that only name the city
func (e *Evaluator) hardTruthKm(q model.Question) *float64 {
	if q.GroundTruth.Km != nil || q.GroundTruth.City == nil || len(q.Cities) < 3 {
		return q.GroundTruth.Km
	}
	from, err := e.graph.Resolve(q.Cities[2])
	if err != nil {
		return nil
	}
	to, err := e.graph.Resolve(*q.GroundTruth.City)
	if err != nil {
		return nil
	}
	km, err := e.graph.Distance(from, to)
	if err != nil {
		return nil
	}
	return &km
}

func (e *Evaluator) hardAnswerKm(ctx context.Context, q model.Question, raw any) *float64 {
	if len(q.Cities) < 3 {
		e.logger.Warn("hard question without reference city", slog.String("question", q.Text))
		return nil
	}
	name := ExtractCityName(raw, e.graph.Names())
	if name == nil {
		return nil
	}

	from, err := e.graph.City(q.Cities[2])
	if err != nil {
		e.logger.Warn("reference city not in graph", slog.String("city", q.Cities[2]), slog.String("error", err.Error()))
		return nil
	}
	answered, err := e.locate(ctx, *name)
	if err != nil {
		e.logger.Debug("could not locate answer", slog.String("answer", *name), slog.String("error", err.Error()))
		return nil
	}

	km := math.Round(graph.GreatCircleKm(from, answered))
	return &km
}

// locate looks the name up in the graph first, then in the locator
func (e *Evaluator) locate(ctx context.Context, name string) (model.City, error) {
	if resolved, err := e.graph.Resolve(name); err == nil {
		return e.graph.City(resolved)
	}
	if e.locator == nil {
		return model.City{}, helper.NewError("locate", fmt.Errorf("%w: city %q", model.ErrNotFound, name))
	}
	return e.locator.Locate(ctx, name)
}

// EvaluateStrategy aligns the answers of one strategy with the question sets
// by position and scores every difficulty
func (e *Evaluator) EvaluateStrategy(ctx context.Context, sets []model.QuestionSet, answers model.AnswerFile) (StrategyReport, error) {
	if len(sets) != len(answers.Answers) {
		return StrategyReport{}, helper.NewError("evaluate strategy", fmt.Errorf("%w: %d question sets but %d answer sets for %s", model.ErrInput, len(sets), len(answers.Answers), answers.Strategy))
	}

	report := StrategyReport{
		Strategy:             answers.Strategy,
		Metrics:              make(map[model.Difficulty]model.Metrics, len(model.Difficulties)),
		Results:              make(map[model.Difficulty][]model.ScoredResult, len(model.Difficulties)),
		ExecutionTimeSeconds: answers.ExecutionTimeSeconds,
		Config:               e.cfg,
	}

	for i, set := range sets {
		answerSet := answers.Answers[i]
		if answerSet.Index != set.Index {
			return StrategyReport{}, helper.NewError("evaluate strategy", fmt.Errorf("%w: answer set %d does not belong to question set %d", model.ErrInput, answerSet.Index, set.Index))
		}

		for _, d := range model.Difficulties {
			q, _ := set.Question(d)
			record, _ := answerSet.Record(d)
			if record.QuestionID != uuid.Nil && record.QuestionID != q.ID {
				return StrategyReport{}, helper.NewError("evaluate strategy", fmt.Errorf("%w: answer %s does not belong to question %s", model.ErrInput, record.QuestionID, q.ID))
			}
			report.Results[d] = append(report.Results[d], e.Evaluate(ctx, q, record.Raw))
		}
	}

	for _, d := range model.Difficulties {
		report.Metrics[d] = Aggregate(report.Results[d])
	}

	e.logger.Info("evaluated strategy",
		slog.String("strategy", string(answers.Strategy)),
		slog.Int("sets", len(sets)),
	)

	return report, nil
}
