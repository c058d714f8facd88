package evaluate

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/core/questions"
	"github.com/siherrmann/geobench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func TestExtractNumeric(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected *float64
	}{
		{"number", 2135.0, ptr(2135)},
		{"integer", 12, ptr(12)},
		{"plain string", "2135", ptr(2135)},
		{"free text", "The distance is about 2,135 km.", ptr(2135)},
		{"decimal", "roughly 111.5 kilometres", ptr(111.5)},
		{"thousands at the end", "2,135", ptr(2135)},
		{"thousands with decimals", "1,234.5 km", ptr(1234.5)},
		{"thousands before a full stop", "It is 3,500.", ptr(3500)},
		{"broken thousands group", "1,2345 km", ptr(1)},
		{"first number wins", "between 100 and 200 km", ptr(100)},
		{"list", []any{"450 km", "12"}, ptr(450)},
		{"number list", []float64{3.5}, ptr(3.5)},
		{"nil", nil, nil},
		{"no number", "I don't know", nil},
		{"empty list", []any{}, nil},
		{"bool", true, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ExtractNumeric(test.raw)
			if test.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *test.expected, *got)
		})
	}
}

func TestExtractCityName(t *testing.T) {
	known := []string{"Perth", "Mount Isa", "Adelaide", "Alice Springs"}

	tests := []struct {
		name     string
		raw      any
		expected string
	}{
		{"exact", "Adelaide", "Adelaide"},
		{"case insensitive", "mount isa", "Mount Isa"},
		{"sentence", "The answer is Alice Springs.", "Alice Springs"},
		{"IRI", "http://example.org/cities#Mount_Isa", "Mount Isa"},
		{"prefixed name", "ns1:Mount_Isa", "Mount Isa"},
		{"typo", "Adelaid", "Adelaide"},
		{"list", []any{"Perth", "Adelaide"}, "Perth"},
		{"unknown city kept", "Kalgoorlie", "Kalgoorlie"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ExtractCityName(test.raw, known)
			require.NotNil(t, got)
			assert.Equal(t, test.expected, *got)
		})
	}

	t.Run("Abstentions", func(t *testing.T) {
		for _, raw := range []any{nil, "", "  ", "None", "I don't know.", []any{}, 42.0} {
			assert.Nil(t, ExtractCityName(raw, known), "Expected %v to abstain", raw)
		}
	})
}

func TestScore(t *testing.T) {
	cfg := model.DefaultEvalConfig()

	t.Run("Residual inside the first bucket", func(t *testing.T) {
		r := Score(ptr(150), ptr(100), cfg)
		require.NotNil(t, r.Residual)
		assert.Equal(t, 50.0, *r.Residual)
		assert.Equal(t, "[0,100)", r.Bucket)
		assert.True(t, r.Valid())
	})

	t.Run("Nil answer abstains", func(t *testing.T) {
		r := Score(nil, ptr(100), cfg)
		assert.True(t, r.Abstained)
		assert.False(t, r.Outlier)
		assert.Nil(t, r.Residual)
		assert.Equal(t, ">700", r.Bucket)
	})

	t.Run("Large residual is an outlier, not an abstention", func(t *testing.T) {
		r := Score(ptr(1500), ptr(200), cfg)
		assert.True(t, r.Outlier)
		assert.False(t, r.Abstained)
		assert.Nil(t, r.Residual)
		require.NotNil(t, r.OutlierResidual)
		assert.Equal(t, 1300.0, *r.OutlierResidual)
	})

	t.Run("Threshold itself is not an outlier", func(t *testing.T) {
		r := Score(ptr(800), ptr(100), cfg)
		assert.False(t, r.Outlier)
		assert.Equal(t, "[600,700]", r.Bucket)
	})

	t.Run("Custom threshold", func(t *testing.T) {
		r := Score(ptr(300), ptr(100), model.EvalConfig{OutlierThreshold: 100, BinWidth: 50})
		assert.True(t, r.Outlier)
	})
}

func TestBucket(t *testing.T) {
	cfg := model.DefaultEvalConfig()

	tests := []struct {
		residual *float64
		expected string
	}{
		{ptr(0), "[0,100)"},
		{ptr(99.9), "[0,100)"},
		{ptr(100), "[100,200)"},
		{ptr(599), "[500,600)"},
		{ptr(600), "[600,700]"},
		{ptr(700), "[600,700]"},
		{ptr(700.5), ">700"},
		{nil, ">700"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, Bucket(test.residual, cfg))
	}

	assert.Equal(t, []string{
		"[0,100)", "[100,200)", "[200,300)", "[300,400)", "[400,500)", "[500,600)", "[600,700]", ">700",
	}, BucketLabels(cfg))
}

func TestAggregate(t *testing.T) {
	cfg := model.DefaultEvalConfig()

	t.Run("Empty valid subset gives zero MSE", func(t *testing.T) {
		m := Aggregate([]model.ScoredResult{Score(nil, ptr(1), cfg), Score(ptr(5000), ptr(1), cfg)})
		assert.Equal(t, 0.0, m.MSE)
		assert.Equal(t, 1, m.Abstained)
		assert.Equal(t, 1, m.Outliers)
		assert.Equal(t, 0, m.Valid)
		assert.Equal(t, 2, m.Total)
	})

	t.Run("MSE over valid results", func(t *testing.T) {
		results := []model.ScoredResult{
			Score(ptr(110), ptr(100), cfg),
			Score(ptr(70), ptr(100), cfg),
			Score(nil, ptr(100), cfg),
		}
		m := Aggregate(results)
		assert.Equal(t, 500.0, m.MSE)
		assert.Equal(t, m.Total, m.Valid+m.Abstained+m.Outliers)
	})

	t.Run("Abstaining does not change the MSE of the others", func(t *testing.T) {
		base := []model.ScoredResult{Score(ptr(110), ptr(100), cfg)}
		withAbstention := append(base, Score(nil, ptr(100), cfg))
		assert.Equal(t, Aggregate(base).MSE, Aggregate(withAbstention).MSE)
	})

	t.Run("Bucket counts include empty buckets", func(t *testing.T) {
		counts := BucketCounts([]model.ScoredResult{Score(ptr(150), ptr(100), cfg), Score(nil, nil, cfg)}, cfg)
		assert.Len(t, counts, 8)
		assert.Equal(t, 1, counts["[0,100)"])
		assert.Equal(t, 1, counts[">700"])
		assert.Equal(t, 0, counts["[300,400)"])
	})
}

type staticLocator map[string]model.City

func (l staticLocator) Locate(ctx context.Context, name string) (model.City, error) {
	city, ok := l[name]
	if !ok {
		return model.City{}, fmt.Errorf("%w: %s", model.ErrNotFound, name)
	}
	return city, nil
}

func hardFixture(t *testing.T) (*graph.Graph, model.Question) {
	t.Helper()
	g, err := graph.Build([]model.City{
		{Name: "A", Lat: 0, Lon: 0},
		{Name: "B", Lat: 0, Lon: 1},
		{Name: "C", Lat: 1, Lon: 0},
		{Name: "D", Lat: 0, Lon: 3},
	})
	require.NoError(t, err)

	text, err := questions.Render(model.DifficultyHard, "A", "B", "C")
	require.NoError(t, err)
	km, err := g.Distance("C", "D")
	require.NoError(t, err)

	return g, model.Question{
		ID:          model.NewQuestionID(0, model.DifficultyHard, text),
		Difficulty:  model.DifficultyHard,
		Text:        text,
		Cities:      []string{"A", "B", "C"},
		GroundTruth: model.CityTruth("D", km),
	}
}

func TestEvaluateHard(t *testing.T) {
	g, q := hardFixture(t)
	ctx := context.Background()

	t.Run("Correct city has zero residual", func(t *testing.T) {
		r := NewEvaluator(g).Evaluate(ctx, q, "d")
		require.NotNil(t, r.Residual)
		assert.Equal(t, 0.0, *r.Residual)
	})

	t.Run("Wrong city is scored by distance difference", func(t *testing.T) {
		r := NewEvaluator(g).Evaluate(ctx, q, "ns1:A")
		ca, err := g.Distance("C", "A")
		require.NoError(t, err)
		require.NotNil(t, r.Residual)
		assert.Equal(t, *q.GroundTruth.Km-ca, *r.Residual)
	})

	t.Run("Unknown city is resolved by the locator", func(t *testing.T) {
		locator := staticLocator{"Atlantis": {Name: "Atlantis", Lat: 0, Lon: 3}}
		r := NewEvaluator(g, WithLocator(locator)).Evaluate(ctx, q, "Atlantis")
		require.NotNil(t, r.Residual)
		assert.Equal(t, 0.0, *r.Residual)
	})

	t.Run("Unknown city without locator abstains", func(t *testing.T) {
		r := NewEvaluator(g).Evaluate(ctx, q, "Atlantis")
		assert.True(t, r.Abstained)
	})

	t.Run("Missing truth distance is taken from the graph", func(t *testing.T) {
		cityOnly := q
		cityOnly.GroundTruth = model.GroundTruth{City: q.GroundTruth.City}
		r := NewEvaluator(g).Evaluate(ctx, cityOnly, "D")
		require.NotNil(t, r.Residual)
		assert.Equal(t, 0.0, *r.Residual)
	})

	t.Run("Unanswerable question abstains", func(t *testing.T) {
		unanswerable := q
		unanswerable.GroundTruth = model.GroundTruth{}
		r := NewEvaluator(g).Evaluate(ctx, unanswerable, "D")
		assert.True(t, r.Abstained)
		assert.True(t, r.Unanswerable)
	})
}

func TestEvaluateStrategy(t *testing.T) {
	g, hard := hardFixture(t)
	ctx := context.Background()

	easyText, err := questions.Render(model.DifficultyEasy, "A", "B")
	require.NoError(t, err)
	mediumText, err := questions.Render(model.DifficultyMedium, "A")
	require.NoError(t, err)
	sets := []model.QuestionSet{{
		Index:  0,
		Easy:   model.Question{Difficulty: model.DifficultyEasy, Text: easyText, Cities: []string{"A", "B"}, GroundTruth: model.NumericTruth(111)},
		Medium: model.Question{Difficulty: model.DifficultyMedium, Text: mediumText, Cities: []string{"A"}, GroundTruth: model.CityTruth("B", 111)},
		Hard:   hard,
	}}

	t.Run("Valid call EvaluateStrategy", func(t *testing.T) {
		answers := model.AnswerFile{
			Strategy: model.StrategyPlain,
			Answers: []model.AnswerSet{{
				Index:  0,
				Easy:   model.AnswerRecord{Difficulty: model.DifficultyEasy, Raw: "161 km"},
				Medium: model.AnswerRecord{Difficulty: model.DifficultyMedium, Raw: nil},
				Hard:   model.AnswerRecord{Difficulty: model.DifficultyHard, Raw: "D"},
			}},
			ExecutionTimeSeconds: 1.5,
		}

		report, err := NewEvaluator(g).EvaluateStrategy(ctx, sets, answers)
		require.NoError(t, err)
		assert.Equal(t, model.StrategyPlain, report.Strategy)
		assert.Equal(t, 2500.0, report.Metrics[model.DifficultyEasy].MSE)
		assert.Equal(t, 1, report.Metrics[model.DifficultyMedium].Abstained)
		assert.Equal(t, 0.0, report.Metrics[model.DifficultyHard].MSE)
		assert.Equal(t, 1, report.Metrics[model.DifficultyHard].Valid)
		assert.Len(t, report.Results[model.DifficultyEasy], 1)
	})

	t.Run("Invalid call EvaluateStrategy with length mismatch", func(t *testing.T) {
		_, err := NewEvaluator(g).EvaluateStrategy(ctx, sets, model.AnswerFile{Strategy: model.StrategyGraph})
		assert.ErrorIs(t, err, model.ErrInput)
	})

	t.Run("Invalid call EvaluateStrategy with misaligned index", func(t *testing.T) {
		answers := model.AnswerFile{Answers: []model.AnswerSet{{Index: 5}}}
		_, err := NewEvaluator(g).EvaluateStrategy(ctx, sets, answers)
		assert.ErrorIs(t, err, model.ErrInput)
	})
}
