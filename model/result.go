package model

// ScoredResult is the outcome of comparing one answer with its ground truth.
// Residual is nil when the answer abstained or was an outlier.
type ScoredResult struct {
	Residual        *float64 `json:"residual"`
	Abstained       bool     `json:"abstained"`
	Outlier         bool     `json:"outlier"`
	Unanswerable    bool     `json:"unanswerable,omitempty"`
	OutlierResidual *float64 `json:"outlier_residual,omitempty"`
	Bucket          string   `json:"bucket"`
}

// Valid reports whether the result takes part in the error metric
func (r ScoredResult) Valid() bool {
	return r.Residual != nil && !r.Outlier
}

// Metrics aggregates scored results.
// Valid + Abstained + Outliers == Total.
type Metrics struct {
	MSE       float64 `json:"mse"`
	Abstained int     `json:"abstained"`
	Outliers  int     `json:"outliers"`
	Valid     int     `json:"valid"`
	Total     int     `json:"total"`
}
