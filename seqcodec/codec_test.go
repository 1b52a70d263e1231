package seqcodec

import (
	"math"
	"testing"

	"github.com/dragunovdenis/banalyzer-native/nn"
)

// TestUnpackPartitionsInOrder verifies chunk i lands in element i.
func TestUnpackPartitionsInOrder(t *testing.T) {
	const itemSize = 3
	const steps = 4
	flat := make([]float64, itemSize*steps)
	for i := range flat {
		flat[i] = float64(i)
	}

	seq := make(nn.Sequence, steps)
	Unpack(itemSize, flat, seq)

	for step := 0; step < steps; step++ {
		for j := 0; j < itemSize; j++ {
			want := float64(step*itemSize + j)
			if got := seq[step].AtVec(j); got != want {
				t.Errorf("expected seq[%d][%d] = %v, got %v", step, j, want, got)
			}
		}
	}
}

// TestRoundTrip verifies pack(unpack(buf)) reproduces buf bit-for-bit.
func TestRoundTrip(t *testing.T) {
	const itemSize = 5
	const steps = 7
	flat := make([]float64, itemSize*steps)
	for i := range flat {
		flat[i] = math.Sin(float64(i)) * 1e3
	}
	flat[0] = math.Copysign(0, -1) // negative zero must survive
	flat[1] = math.Nextafter(1, 2)

	seq := make(nn.Sequence, steps)
	Unpack(itemSize, flat, seq)

	out := make([]float64, len(flat))
	n := Pack(seq, out)
	if n != len(flat) {
		t.Fatalf("expected %d packed values, got %d", len(flat), n)
	}
	for i := range flat {
		if math.Float64bits(out[i]) != math.Float64bits(flat[i]) {
			t.Errorf("expected bit-identical value at %d, got %v want %v", i, out[i], flat[i])
		}
	}
}

// TestUnpackResizesElements verifies stale or missing destination vectors
// are replaced with correctly sized ones.
func TestUnpackResizesElements(t *testing.T) {
	flat := []float64{1, 2, 3, 4}

	seq := nn.NewSequence(2, 7) // wrong item size on purpose
	seq[1] = nil
	Unpack(2, flat, seq)

	for step := range seq {
		if seq[step].Len() != 2 {
			t.Errorf("expected element %d resized to 2, got %d", step, seq[step].Len())
		}
	}
	if seq[1].AtVec(0) != 3 || seq[1].AtVec(1) != 4 {
		t.Errorf("expected second chunk [3 4], got [%v %v]", seq[1].AtVec(0), seq[1].AtVec(1))
	}
}

// TestPackCountsMixedSizes verifies Pack sums element sizes.
func TestPackCountsMixedSizes(t *testing.T) {
	seq := nn.Sequence{
		nn.NewSequence(1, 2)[0],
		nn.NewSequence(1, 3)[0],
	}
	seq[0].SetVec(0, 10)
	seq[0].SetVec(1, 11)
	seq[1].SetVec(0, 20)
	seq[1].SetVec(1, 21)
	seq[1].SetVec(2, 22)

	flat := make([]float64, 5)
	if n := Pack(seq, flat); n != 5 {
		t.Fatalf("expected 5 packed values, got %d", n)
	}
	want := []float64{10, 11, 20, 21, 22}
	for i, w := range want {
		if flat[i] != w {
			t.Errorf("expected flat[%d] = %v, got %v", i, w, flat[i])
		}
	}
}
