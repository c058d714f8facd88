package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/siherrmann/geobench/core/evaluate"
	"github.com/siherrmann/geobench/model"
)

const barWidth = 40

// Line renders the summary of one strategy and difficulty
func Line(strategy model.Strategy, d model.Difficulty, m model.Metrics) string {
	return fmt.Sprintf("MSE for %s (%s): %.2e [%d/%d abstained, %d outliers]", strategy, d, m.MSE, m.Abstained, m.Total, m.Outliers)
}

// Text renders one summary line per strategy and difficulty
func Text(reports []evaluate.StrategyReport) string {
	var b strings.Builder
	for _, r := range reports {
		for _, d := range model.Difficulties {
			m, ok := r.Metrics[d]
			if !ok {
				continue
			}
			b.WriteString(Line(r.Strategy, d, m))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Histogram writes the residual distribution of every strategy and
// difficulty as horizontal bars
func Histogram(w io.Writer, reports []evaluate.StrategyReport) error {
	title := color.New(color.Bold)

	for _, r := range reports {
		labels := evaluate.BucketLabels(r.Config)
		for _, d := range model.Difficulties {
			results, ok := r.Results[d]
			if !ok {
				continue
			}
			counts := evaluate.BucketCounts(results, r.Config)

			peak := 0
			for _, label := range labels {
				peak = max(peak, counts[label])
			}

			if _, err := fmt.Fprintln(w, title.Sprintf("%s (%s), execution time %.1fs", r.Strategy, d, r.ExecutionTimeSeconds)); err != nil {
				return err
			}
			for i, label := range labels {
				bar := ""
				if peak > 0 {
					bar = strings.Repeat("█", counts[label]*barWidth/peak)
				}
				if _, err := fmt.Fprintf(w, "  %-11s %s %d\n", label, barColor(i, len(labels)).Sprint(bar), counts[label]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// barColor goes from green for small residuals to red for the overflow bucket
func barColor(i int, n int) *color.Color {
	switch {
	case i == n-1:
		return color.New(color.FgRed)
	case i < (n-1)/2:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}
