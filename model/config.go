package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	TopK                int     `json:"top_k" yaml:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold"`
	// Sparsity is the fraction of city pairs left out of the index (0 keeps all)
	Sparsity float64 `json:"sparsity,omitempty" yaml:"sparsity"`
	Seed     uint64  `json:"seed,omitempty" yaml:"seed"`

	// Neighbour expansion of the contextual strategy
	Neighbors   int     `json:"neighbors,omitempty" yaml:"neighbors"`
	GraphWeight float64 `json:"graph_weight" yaml:"graph_weight"`
}

// DefaultQueryConfig returns the retrieval settings used by the vector strategy
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                10,
		SimilarityThreshold: 0,
		Sparsity:            0,
		Seed:                1,
		Neighbors:           1,
		GraphWeight:         0.5,
	}
}

// EvalConfig configures scoring
type EvalConfig struct {
	// OutlierThreshold is the residual in km above which an answer is an outlier
	OutlierThreshold float64 `json:"outlier_threshold" yaml:"outlier_threshold"`
	// BinWidth is the width of the residual histogram bins in km
	BinWidth float64 `json:"bin_width" yaml:"bin_width"`
}

// DefaultEvalConfig returns the 700 km outlier threshold with 100 km bins
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		OutlierThreshold: 700,
		BinWidth:         100,
	}
}
