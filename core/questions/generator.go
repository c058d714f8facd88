package questions

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Option configures a Generator
type Option func(*Generator)

// WithoutReferenceCandidates removes the two reference cities of a hard
// question from its candidates. By default every city but c3 is a candidate.
func WithoutReferenceCandidates() Option {
	return func(gen *Generator) {
		gen.excludeReferences = true
	}
}

// WithLogger sets the logger for unanswerable question warnings
func WithLogger(logger *slog.Logger) Option {
	return func(gen *Generator) {
		gen.logger = logger
	}
}

// Generator samples city triples and renders question sets with ground truth.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng               *rand.Rand
	excludeReferences bool
	logger            *slog.Logger
}

// NewGenerator returns a generator drawing from a PCG source seeded with seed
func NewGenerator(seed uint64, opts ...Option) *Generator {
	gen := &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(gen)
	}
	return gen
}

// Generate draws count independent samples of three distinct cities and
// builds one question set per sample
func (gen *Generator) Generate(g *graph.Graph, count int) ([]model.QuestionSet, error) {
	if count < 0 {
		return nil, helper.NewError("generate questions", fmt.Errorf("%w: negative count %d", model.ErrInput, count))
	}
	if g == nil || g.Len() < 3 {
		n := 0
		if g != nil {
			n = g.Len()
		}
		return nil, helper.NewError("generate questions", fmt.Errorf("%w: need at least 3 cities, got %d", model.ErrInput, n))
	}

	names := g.Names()
	sets := make([]model.QuestionSet, 0, count)
	for i := 0; i < count; i++ {
		sample := gen.sample(names, 3)
		set, err := gen.build(g, i, sample[0], sample[1], sample[2])
		if err != nil {
			return nil, helper.NewError("generate questions", err)
		}
		sets = append(sets, set)
	}

	return sets, nil
}

// sample picks k distinct names with a partial Fisher-Yates shuffle
func (gen *Generator) sample(names []string, k int) []string {
	perm := make([]int, len(names))
	for i := range perm {
		perm[i] = i
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		j := i + gen.rng.IntN(len(perm)-i)
		perm[i], perm[j] = perm[j], perm[i]
		out[i] = names[perm[i]]
	}
	return out
}

func (gen *Generator) build(g *graph.Graph, index int, c1, c2, c3 string) (model.QuestionSet, error) {
	set := model.QuestionSet{Index: index}

	km12, err := g.Distance(c1, c2)
	if err != nil {
		return set, err
	}
	easyText, _ := Render(model.DifficultyEasy, c1, c2)
	set.Easy = model.Question{
		ID:          model.NewQuestionID(index, model.DifficultyEasy, easyText),
		Difficulty:  model.DifficultyEasy,
		Text:        easyText,
		Cities:      []string{c1, c2},
		GroundTruth: model.NumericTruth(km12),
	}

	nearest, nearestKm, err := g.Nearest(c1)
	if err != nil {
		return set, err
	}
	mediumText, _ := Render(model.DifficultyMedium, c1)
	set.Medium = model.Question{
		ID:          model.NewQuestionID(index, model.DifficultyMedium, mediumText),
		Difficulty:  model.DifficultyMedium,
		Text:        mediumText,
		Cities:      []string{c1},
		GroundTruth: model.CityTruth(nearest.Name, nearestKm),
	}

	var exclude []string
	if gen.excludeReferences {
		exclude = []string{c1, c2}
	}
	match, matchKm, err := g.ClosestMatching(c3, km12, exclude...)
	if err != nil {
		return set, err
	}
	hardText, _ := Render(model.DifficultyHard, c1, c2, c3)
	set.Hard = model.Question{
		ID:         model.NewQuestionID(index, model.DifficultyHard, hardText),
		Difficulty: model.DifficultyHard,
		Text:       hardText,
		Cities:     []string{c1, c2, c3},
	}
	if match != nil {
		set.Hard.GroundTruth = model.CityTruth(match.Name, matchKm)
	} else {
		gen.logger.Warn("hard question has no candidate answer", slog.Int("index", index), slog.String("city", c3))
	}

	return set, nil
}
