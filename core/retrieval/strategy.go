package retrieval

import (
	"context"
	"sort"

	"github.com/siherrmann/geobench/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, embedding []float32, config model.QueryConfig) ([]model.RetrievalResult, error)
}

// VectorOnlyStrategy performs pure vector similarity search
type VectorOnlyStrategy struct {
	engine *Engine
}

// NewVectorOnlyStrategy creates a new vector-only strategy
func NewVectorOnlyStrategy(engine *Engine) *VectorOnlyStrategy {
	return &VectorOnlyStrategy{engine: engine}
}

// Retrieve performs vector-only retrieval
func (s *VectorOnlyStrategy) Retrieve(ctx context.Context, embedding []float32, config model.QueryConfig) ([]model.RetrievalResult, error) {
	return s.engine.VectorRetrieve(ctx, embedding, config)
}

// ContextualStrategy adds the passages to the nearest cities of every city
// found by vector search, which helps with closest-city questions
type ContextualStrategy struct {
	engine *Engine
}

// NewContextualStrategy creates a new contextual strategy
func NewContextualStrategy(engine *Engine) *ContextualStrategy {
	return &ContextualStrategy{engine: engine}
}

// Retrieve performs contextual retrieval
func (s *ContextualStrategy) Retrieve(ctx context.Context, embedding []float32, config model.QueryConfig) ([]model.RetrievalResult, error) {
	vectorResults, err := s.engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	resultMap := make(map[string]model.RetrievalResult)
	for _, result := range vectorResults {
		resultMap[result.Passage.Text] = result
	}

	expanded := make(map[string]bool)
	for _, result := range vectorResults {
		for _, city := range []string{result.Passage.From, result.Passage.To} {
			if expanded[city] {
				continue
			}
			expanded[city] = true

			neighbors, err := s.engine.GetNeighbors(ctx, city, config.Neighbors)
			if err != nil {
				continue
			}
			for _, neighbor := range neighbors {
				if _, exists := resultMap[neighbor.Text]; !exists {
					resultMap[neighbor.Text] = model.RetrievalResult{
						Passage:         neighbor,
						Score:           result.Score * config.GraphWeight,
						RetrievalMethod: "graph_neighbor",
					}
				}
			}
		}
	}

	results := make([]model.RetrievalResult, 0, len(resultMap))
	for _, result := range resultMap {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Passage.Text < results[j].Passage.Text
		}
		return results[i].Score > results[j].Score
	})

	return results, nil
}
