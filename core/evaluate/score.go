package evaluate

import (
	"fmt"
	"math"

	"github.com/siherrmann/geobench/model"
)

// Score compares an extracted answer with the ground truth.
// A nil side is an abstention; a residual above the outlier threshold is an
// outlier whose residual is kept out of the error metric.
func Score(answer *float64, truth *float64, cfg model.EvalConfig) model.ScoredResult {
	cfg = normalize(cfg)
	if answer == nil || truth == nil {
		return model.ScoredResult{Abstained: true, Bucket: Bucket(nil, cfg)}
	}

	residual := math.Abs(*answer - *truth)
	if residual > cfg.OutlierThreshold {
		return model.ScoredResult{Outlier: true, OutlierResidual: &residual, Bucket: Bucket(nil, cfg)}
	}
	return model.ScoredResult{Residual: &residual, Bucket: Bucket(&residual, cfg)}
}

// Aggregate computes the mean squared error over valid results.
// With no valid results the MSE is 0.
func Aggregate(results []model.ScoredResult) model.Metrics {
	m := model.Metrics{Total: len(results)}
	sum := 0.0
	for _, r := range results {
		switch {
		case r.Outlier:
			m.Outliers++
		case r.Abstained || r.Residual == nil:
			m.Abstained++
		default:
			m.Valid++
			sum += *r.Residual * *r.Residual
		}
	}
	if m.Valid > 0 {
		m.MSE = sum / float64(m.Valid)
	}
	return m
}

// Bucket returns the histogram label of a residual: [0,100) up to the last
// bin below the threshold, which is closed ([600,700]), then >700 for
// residuals above the threshold and for nil.
func Bucket(residual *float64, cfg model.EvalConfig) string {
	cfg = normalize(cfg)
	overflow := fmt.Sprintf(">%g", cfg.OutlierThreshold)
	if residual == nil || *residual > cfg.OutlierThreshold || *residual < 0 {
		return overflow
	}

	last := lastBin(cfg)
	i := int(math.Floor(*residual / cfg.BinWidth))
	if i >= last {
		return fmt.Sprintf("[%g,%g]", float64(last)*cfg.BinWidth, cfg.OutlierThreshold)
	}
	return fmt.Sprintf("[%g,%g)", float64(i)*cfg.BinWidth, float64(i+1)*cfg.BinWidth)
}

// BucketLabels returns all bucket labels in ascending order
func BucketLabels(cfg model.EvalConfig) []string {
	cfg = normalize(cfg)
	last := lastBin(cfg)
	labels := make([]string, 0, last+2)
	for i := 0; i <= last; i++ {
		lo := float64(i) * cfg.BinWidth
		labels = append(labels, Bucket(&lo, cfg))
	}
	return append(labels, Bucket(nil, cfg))
}

// BucketCounts counts results per bucket, including empty buckets
func BucketCounts(results []model.ScoredResult, cfg model.EvalConfig) map[string]int {
	counts := make(map[string]int)
	for _, label := range BucketLabels(cfg) {
		counts[label] = 0
	}
	for _, r := range results {
		label := r.Bucket
		if label == "" {
			label = Bucket(r.Residual, cfg)
		}
		counts[label]++
	}
	return counts
}

func lastBin(cfg model.EvalConfig) int {
	return max(0, int(math.Ceil(cfg.OutlierThreshold/cfg.BinWidth))-1)
}

func normalize(cfg model.EvalConfig) model.EvalConfig {
	def := model.DefaultEvalConfig()
	if cfg.OutlierThreshold <= 0 {
		cfg.OutlierThreshold = def.OutlierThreshold
	}
	if cfg.BinWidth <= 0 {
		cfg.BinWidth = def.BinWidth
	}
	return cfg
}
