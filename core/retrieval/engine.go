package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Engine embeds passages and questions and retrieves context for them
type Engine struct {
	embed  func(text string) ([]float32, error)
	index  Index
	graph  *graph.Graph
	logger *slog.Logger

	mu      sync.RWMutex
	indexed map[string][]model.Passage
}

// NewEngine creates a new retrieval engine. The graph is optional and only
// used to resolve city names for neighbour expansion.
func NewEngine(embed func(text string) ([]float32, error), index Index, g *graph.Graph, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embed:   embed,
		index:   index,
		graph:   g,
		logger:  logger,
		indexed: map[string][]model.Passage{},
	}
}

// IndexPassages embeds and stores passages
func (e *Engine) IndexPassages(ctx context.Context, passages []model.Passage) error {
	embedded := make([]model.Passage, 0, len(passages))
	for _, p := range passages {
		if err := ctx.Err(); err != nil {
			return err
		}
		embedding, err := e.embed(p.Text)
		if err != nil {
			return helper.NewError("embed passage", err)
		}
		p.Embedding = embedding
		embedded = append(embedded, p)
	}

	if err := e.index.Add(ctx, embedded); err != nil {
		return helper.NewError("index passages", err)
	}

	e.mu.Lock()
	for _, p := range embedded {
		p.Embedding = nil
		e.indexed[p.From] = append(e.indexed[p.From], p)
	}
	e.mu.Unlock()

	e.logger.Info("Indexed passages", slog.Int("count", len(embedded)))
	return nil
}

// Embed returns the embedding of a query text
func (e *Engine) Embed(text string) ([]float32, error) {
	embedding, err := e.embed(text)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	return embedding, nil
}

// VectorRetrieve performs pure vector similarity search
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config model.QueryConfig) ([]model.RetrievalResult, error) {
	passages, err := e.index.Search(ctx, embedding, config.TopK, config.SimilarityThreshold)
	if err != nil {
		return nil, helper.NewError("search index", err)
	}

	results := make([]model.RetrievalResult, len(passages))
	for i, p := range passages {
		score := 0.0
		if p.Similarity != nil {
			score = *p.Similarity
		}
		results[i] = model.RetrievalResult{
			Passage:         p,
			Score:           score,
			SimilarityScore: score,
			RetrievalMethod: "vector",
		}
	}
	return results, nil
}

// GetNeighbors returns the indexed passages from a city to its k closest
// cities. Pairs that were never indexed are not returned.
func (e *Engine) GetNeighbors(ctx context.Context, city string, k int) ([]model.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.graph != nil {
		resolved, err := e.graph.Resolve(city)
		if err != nil {
			return nil, err
		}
		city = resolved
	}

	e.mu.RLock()
	passages := append([]model.Passage(nil), e.indexed[city]...)
	e.mu.RUnlock()

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Km < passages[j].Km
	})
	if len(passages) > k {
		passages = passages[:max(k, 0)]
	}
	return passages, nil
}
