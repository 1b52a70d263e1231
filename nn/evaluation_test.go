package nn

import (
	"math"
	"testing"
)

// TestDeviationBucketing checks that deviations land in the right ranges
// and the aggregates come out as expected.
func TestDeviationBucketing(t *testing.T) {
	dm := NewDeviationMetrics()
	dm.Update(1.0, 1.05) // 5%
	dm.Update(1.0, 1.15) // 15%
	dm.Update(2.0, 1.0)  // 50%
	dm.Update(1.0, 3.0)  // 200%
	dm.Update(0.0, 0.45) // near-zero expected, absolute scale: 45%

	if dm.TotalSamples != 5 {
		t.Errorf("expected 5 samples, got %d", dm.TotalSamples)
	}
	for name, want := range map[string]int{"0-10%": 1, "10-20%": 1, "40-50%": 2, "100%+": 1} {
		if got := dm.Buckets[name].Count; got != want {
			t.Errorf("bucket %s: expected %d, got %d", name, want, got)
		}
	}
	if dm.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", dm.Failures)
	}

	dm.Finalize()
	if wantAvg := 63.0; math.Abs(dm.AverageDeviation-wantAvg) > 1e-9 {
		t.Errorf("expected average deviation %.2f, got %.2f", wantAvg, dm.AverageDeviation)
	}
	if wantScore := 57.0; math.Abs(dm.Score-wantScore) > 1e-9 {
		t.Errorf("expected score %.2f, got %.2f", wantScore, dm.Score)
	}
}

// TestDeviationMetricsEmpty checks finalizing with no samples stays sane.
func TestDeviationMetricsEmpty(t *testing.T) {
	dm := NewDeviationMetrics()
	dm.Finalize()
	if dm.Score != 0 || dm.AverageDeviation != 0 {
		t.Errorf("expected zeroed aggregates, got score %.2f, deviation %.2f", dm.Score, dm.AverageDeviation)
	}
}

// TestEvaluateSetMatchesDirectForward feeds references equal to the actual
// outputs and expects a perfect score from the parallel evaluation.
func TestEvaluateSetMatchesDirectForward(t *testing.T) {
	net := buildNet(t, 2, 2, 3)

	var inputs, refs []Sequence
	for p := 0; p < 4; p++ {
		in := NewSequence(2, 2)
		for step := 0; step < 2; step++ {
			in[step].SetVec(0, float64(p)*0.1)
			in[step].SetVec(1, float64(step)*0.2-0.3)
		}
		inputs = append(inputs, in)
		refs = append(refs, net.Act(in, net.AllocateContext()).Clone())
	}

	dm, err := net.EvaluateSet(inputs, refs, 3)
	if err != nil {
		t.Fatalf("evaluate set failed: %v", err)
	}

	wantSamples := 4 * 2 * 3
	if dm.TotalSamples != wantSamples {
		t.Errorf("expected %d components, got %d", wantSamples, dm.TotalSamples)
	}
	if got := dm.Buckets["0-10%"].Count; got != wantSamples {
		t.Errorf("expected every component in the 0-10%% bucket, got %d of %d", got, wantSamples)
	}
	if math.Abs(dm.Score-100) > 1e-9 {
		t.Errorf("expected score 100, got %.4f", dm.Score)
	}
	if dm.AverageDeviation > 1e-9 {
		t.Errorf("expected zero average deviation, got %.6f", dm.AverageDeviation)
	}
}

// TestEvaluateSetRejectsMismatch checks the input/reference count guard.
func TestEvaluateSetRejectsMismatch(t *testing.T) {
	net := buildNet(t, 2, 2, 3)
	inputs := []Sequence{NewSequence(2, 2), NewSequence(2, 2)}
	refs := []Sequence{NewSequence(2, 3)}
	if _, err := net.EvaluateSet(inputs, refs, 2); err == nil {
		t.Error("expected an error for mismatched set sizes")
	}
}
