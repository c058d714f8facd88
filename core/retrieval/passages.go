package retrieval

import (
	"math"
	"math/rand/v2"

	"github.com/siherrmann/geobench/core/graph"
	"github.com/siherrmann/geobench/model"
)

// BuildPassages renders one passage per directed edge of the graph.
// A sparsity above zero drops that fraction of city pairs (both directions),
// chosen deterministically from the seed.
func BuildPassages(g *graph.Graph, sparsity float64, seed uint64) []model.Passage {
	names := g.Names()

	type pair struct{ a, b int }
	pairs := make([]pair, 0, len(names)*(len(names)-1)/2)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	dropped := make(map[pair]bool)
	if sparsity > 0 {
		drop := int(math.Floor(math.Min(sparsity, 1) * float64(len(pairs))))
		rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
		order := rng.Perm(len(pairs))
		for _, k := range order[:drop] {
			dropped[pairs[k]] = true
		}
	}

	passages := make([]model.Passage, 0, 2*len(pairs))
	for i, from := range names {
		for j, to := range names {
			if i == j {
				continue
			}
			key := pair{min(i, j), max(i, j)}
			if dropped[key] {
				continue
			}
			km, err := g.Distance(from, to)
			if err != nil {
				continue
			}
			passages = append(passages, model.NewPassage(from, to, km))
		}
	}
	return passages
}
