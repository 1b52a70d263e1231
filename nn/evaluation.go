package nn

import (
	"fmt"
	"math"

	"github.com/dragunovdenis/banalyzer-native/parallel"
)

// DeviationBucket counts predictions whose percentage deviation from the
// expected value falls inside one range.
type DeviationBucket struct {
	RangeMin float64 `json:"range_min"`
	RangeMax float64 `json:"range_max"`
	Count    int     `json:"count"`
}

// DeviationMetrics is a per-component breakdown of how far a network's
// outputs deviate from reference values.
type DeviationMetrics struct {
	Buckets          map[string]*DeviationBucket `json:"buckets"`
	Score            float64                     `json:"score"` // average quality, 0-100
	TotalSamples     int                         `json:"total_samples"`
	Failures         int                         `json:"failures"` // deviations beyond 100%
	AverageDeviation float64                     `json:"avg_deviation"`

	totalDeviation float64
}

var bucketOrder = []string{"0-10%", "10-20%", "20-30%", "30-40%", "40-50%", "50-100%", "100%+"}

// NewDeviationMetrics initializes an empty metrics struct.
func NewDeviationMetrics() *DeviationMetrics {
	return &DeviationMetrics{
		Buckets: map[string]*DeviationBucket{
			"0-10%":   {RangeMin: 0, RangeMax: 10},
			"10-20%":  {RangeMin: 10, RangeMax: 20},
			"20-30%":  {RangeMin: 20, RangeMax: 30},
			"30-40%":  {RangeMin: 30, RangeMax: 40},
			"40-50%":  {RangeMin: 40, RangeMax: 50},
			"50-100%": {RangeMin: 50, RangeMax: 100},
			"100%+":   {RangeMin: 100, RangeMax: math.Inf(1)},
		},
	}
}

// Update records one expected/actual component pair.
func (dm *DeviationMetrics) Update(expected, actual float64) {
	var deviation float64
	if math.Abs(expected) < 1e-10 {
		deviation = math.Abs(actual-expected) * 100
	} else {
		deviation = math.Abs((actual - expected) / expected * 100)
	}
	if math.IsNaN(deviation) || math.IsInf(deviation, 0) {
		deviation = 100
	}

	var name string
	switch {
	case deviation <= 10:
		name = "0-10%"
	case deviation <= 20:
		name = "10-20%"
	case deviation <= 30:
		name = "20-30%"
	case deviation <= 40:
		name = "30-40%"
	case deviation <= 50:
		name = "40-50%"
	case deviation <= 100:
		name = "50-100%"
	default:
		name = "100%+"
	}

	dm.Buckets[name].Count++
	dm.TotalSamples++
	if name == "100%+" {
		dm.Failures++
	}
	dm.Score += math.Max(0, 100-deviation)
	dm.totalDeviation += deviation
}

// Finalize turns the running sums into averages.
func (dm *DeviationMetrics) Finalize() {
	if dm.TotalSamples == 0 {
		dm.Score = 0
		dm.AverageDeviation = 0
		return
	}
	dm.Score /= float64(dm.TotalSamples)
	dm.AverageDeviation = dm.totalDeviation / float64(dm.TotalSamples)
}

// PrintSummary prints a human-readable distribution of the deviations.
func (dm *DeviationMetrics) PrintSummary() {
	fmt.Printf("\n=== Evaluation Summary ===\n")
	fmt.Printf("Total Components: %d\n", dm.TotalSamples)
	fmt.Printf("Quality Score: %.2f/100\n", dm.Score)
	fmt.Printf("Average Deviation: %.2f%%\n", dm.AverageDeviation)
	if dm.TotalSamples > 0 {
		fmt.Printf("Failures (>100%% deviation): %d (%.1f%%)\n",
			dm.Failures, float64(dm.Failures)/float64(dm.TotalSamples)*100)
	}

	fmt.Printf("\nDeviation Distribution:\n")
	for _, name := range bucketOrder {
		bucket := dm.Buckets[name]
		percentage := 0.0
		if dm.TotalSamples > 0 {
			percentage = float64(bucket.Count) / float64(dm.TotalSamples) * 100
		}
		bar := ""
		for i := 0; i < int(percentage/2); i++ {
			bar += "█"
		}
		fmt.Printf("  %8s: %4d (%.1f%%) %s\n", name, bucket.Count, percentage, bar)
	}
	fmt.Println()
}

// EvaluateSet runs CPU forward passes over a set of (input, reference)
// sequence pairs with a bounded parallel fan-out and folds every output
// component into deviation metrics. Each goroutine gets its own context;
// weights are only read, so concurrent passes are safe. limit < 2 runs
// sequentially.
func (n *Net) EvaluateSet(inputs, refs []Sequence, limit int) (*DeviationMetrics, error) {
	if len(inputs) != len(refs) {
		return nil, fmt.Errorf("mismatched inputs (%d) vs references (%d)", len(inputs), len(refs))
	}

	actuals := make([][]float64, len(inputs))
	parallel.ForEach(len(inputs), limit, func(i int) {
		ctx := n.AllocateContext()
		out := n.actCPU(inputs[i], ctx)
		flat := make([]float64, 0, len(out)*out.ItemSize())
		for _, v := range out {
			flat = append(flat, v.RawVector().Data...)
		}
		actuals[i] = flat
	})

	dm := NewDeviationMetrics()
	for i := range refs {
		j := 0
		for _, v := range refs[i] {
			for _, expected := range v.RawVector().Data {
				dm.Update(expected, actuals[i][j])
				j++
			}
		}
	}
	dm.Finalize()
	return dm, nil
}
