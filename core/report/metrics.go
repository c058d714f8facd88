package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/geobench/core/evaluate"
	"github.com/siherrmann/geobench/helper"
	"github.com/siherrmann/geobench/model"
)

// Collect registers the metrics of the reports as gauges on reg
func Collect(reg prometheus.Registerer, reports []evaluate.StrategyReport) error {
	labels := []string{"strategy", "difficulty"}
	mse := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geobench_mse_km2",
		Help: "Mean squared error of valid answers in km²",
	}, labels)
	answers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geobench_answers",
		Help: "Answers by outcome (valid, abstained, outlier)",
	}, append(labels, "outcome"))
	buckets := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geobench_residual_bucket",
		Help: "Answers per residual histogram bucket",
	}, append(labels, "bucket"))
	seconds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geobench_execution_seconds",
		Help: "Wall time of answering all questions",
	}, []string{"strategy"})

	for _, c := range []prometheus.Collector{mse, answers, buckets, seconds} {
		if err := reg.Register(c); err != nil {
			return helper.NewError("register metrics", err)
		}
	}

	for _, r := range reports {
		strategy := string(r.Strategy)
		seconds.WithLabelValues(strategy).Set(r.ExecutionTimeSeconds)

		for _, d := range model.Difficulties {
			m, ok := r.Metrics[d]
			if !ok {
				continue
			}
			difficulty := string(d)
			mse.WithLabelValues(strategy, difficulty).Set(m.MSE)
			answers.WithLabelValues(strategy, difficulty, "valid").Set(float64(m.Valid))
			answers.WithLabelValues(strategy, difficulty, "abstained").Set(float64(m.Abstained))
			answers.WithLabelValues(strategy, difficulty, "outlier").Set(float64(m.Outliers))

			for bucket, count := range evaluate.BucketCounts(r.Results[d], r.Config) {
				buckets.WithLabelValues(strategy, difficulty, bucket).Set(float64(count))
			}
		}
	}
	return nil
}

// WriteMetrics writes the report metrics, together with everything else
// registered on base, in the Prometheus text format. The report gauges live
// on a registry of their own, so WriteMetrics can run any number of times
// against the same base. base may be nil.
func WriteMetrics(path string, base *prometheus.Registry, reports []evaluate.StrategyReport) error {
	reportReg := prometheus.NewRegistry()
	if err := Collect(reportReg, reports); err != nil {
		return err
	}

	gatherers := prometheus.Gatherers{reportReg}
	if base != nil {
		gatherers = append(gatherers, base)
	}
	if err := prometheus.WriteToTextfile(path, gatherers); err != nil {
		return helper.NewError("write metrics", err)
	}
	return nil
}
