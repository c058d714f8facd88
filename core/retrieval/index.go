package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/siherrmann/geobench/database"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Index stores embedded passages and answers similarity queries
type Index interface {
	Add(ctx context.Context, passages []model.Passage) error
	Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]model.Passage, error)
	Len(ctx context.Context) (int, error)
}

// MemoryIndex is an in-process Index using cosine similarity
type MemoryIndex struct {
	mu       sync.RWMutex
	passages []model.Passage
}

// NewMemoryIndex returns an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add appends passages. Every passage needs an embedding.
func (m *MemoryIndex) Add(ctx context.Context, passages []model.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range passages {
		if len(p.Embedding) == 0 {
			return helper.NewError("add passage", fmt.Errorf("%w: passage %q has no embedding", model.ErrInput, p.Text))
		}
		p.ID = len(m.passages) + 1
		m.passages = append(m.passages, p)
	}
	return nil
}

// Search returns the limit most similar passages with a similarity of at
// least threshold, most similar first
func (m *MemoryIndex) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]model.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]model.Passage, 0, len(m.passages))
	for _, p := range m.passages {
		similarity := cosine(embedding, p.Embedding)
		if similarity < threshold {
			continue
		}
		p.Similarity = &similarity
		results = append(results, p)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Similarity > *results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of indexed passages
func (m *MemoryIndex) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.passages), nil
}

func cosine(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// PostgresIndex stores passages in PostgreSQL with pgvector
type PostgresIndex struct {
	passages *database.PassagesDBHandler
}

// NewPostgresIndex wraps a passages handler
func NewPostgresIndex(passages *database.PassagesDBHandler) *PostgresIndex {
	return &PostgresIndex{passages: passages}
}

// Add inserts passages in one transaction
func (p *PostgresIndex) Add(ctx context.Context, passages []model.Passage) error {
	ptrs := make([]*model.Passage, len(passages))
	for i := range passages {
		ptrs[i] = &passages[i]
	}
	return p.passages.InsertPassages(ctx, ptrs)
}

// Search runs a cosine similarity query
func (p *PostgresIndex) Search(ctx context.Context, embedding []float32, limit int, threshold float64) ([]model.Passage, error) {
	rows, err := p.passages.SelectPassagesBySimilarity(ctx, embedding, limit, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]model.Passage, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}

// Len counts the stored passages
func (p *PostgresIndex) Len(ctx context.Context) (int, error) {
	return p.passages.CountPassages(ctx)
}
