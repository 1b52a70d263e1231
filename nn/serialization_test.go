package nn

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// TestSaveLoadRoundTrip checks that a reloaded network reproduces the
// original outputs bit for bit.
func TestSaveLoadRoundTrip(t *testing.T) {
	net := buildNet(t, 3, 3, 4, 2)
	in := flatSequence(3, 3, []float64{
		0.1, -0.2, 0.3,
		0.4, 0.5, -0.6,
		-0.7, 0.8, 0.9,
	})
	want := net.Act(in, net.AllocateContext()).Clone()

	s, err := net.SaveToString()
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	loaded, err := LoadNetFromString(s)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if loaded.Depth() != 3 || loaded.LayerCount() != 2 || loaded.OutItemSize() != 2 {
		t.Fatalf("loaded shape differs: depth %d, layers %d, out %d",
			loaded.Depth(), loaded.LayerCount(), loaded.OutItemSize())
	}

	got := loaded.Act(in, loaded.AllocateContext())
	for step := range want {
		for j := 0; j < want.ItemSize(); j++ {
			if math.Float64bits(want[step].AtVec(j)) != math.Float64bits(got[step].AtVec(j)) {
				t.Fatalf("output differs at step %d component %d", step, j)
			}
		}
	}
}

// TestSavedModelHeader checks the bundle metadata.
func TestSavedModelHeader(t *testing.T) {
	net := buildNet(t, 2, 3, 4)
	s, err := net.SaveToString()
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	var model SavedModel
	if err := json.Unmarshal([]byte(s), &model); err != nil {
		t.Fatalf("failed to parse bundle: %v", err)
	}
	if model.Format != modelFormat {
		t.Errorf("expected format %q, got %q", modelFormat, model.Format)
	}
	if model.TimeDepth != 2 || model.InputItemSize != 3 {
		t.Errorf("expected header 2/3, got %d/%d", model.TimeDepth, model.InputItemSize)
	}
	if len(model.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(model.Layers))
	}
	if model.Layers[0].Activation != "sigmoid" {
		t.Errorf("expected sigmoid activation, got %q", model.Layers[0].Activation)
	}
	if _, err := uuid.Parse(model.ID); err != nil {
		t.Errorf("expected a valid bundle id, got %q", model.ID)
	}
}

// TestLoadRejectsBadBundles checks format, version and chaining validation.
func TestLoadRejectsBadBundles(t *testing.T) {
	net := buildNet(t, 2, 3, 4)
	s, err := net.SaveToString()
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	corrupt := func(mutate func(*SavedModel)) string {
		var model SavedModel
		if err := json.Unmarshal([]byte(s), &model); err != nil {
			t.Fatalf("failed to parse bundle: %v", err)
		}
		mutate(&model)
		data, err := json.Marshal(model)
		if err != nil {
			t.Fatalf("failed to re-marshal bundle: %v", err)
		}
		return string(data)
	}

	if _, err := LoadNetFromString("not json"); err == nil {
		t.Error("expected an error for malformed JSON")
	}
	if _, err := LoadNetFromString(corrupt(func(m *SavedModel) { m.Format = "other" })); err == nil {
		t.Error("expected an error for a foreign format")
	}
	if _, err := LoadNetFromString(corrupt(func(m *SavedModel) { m.Version = 99 })); err == nil {
		t.Error("expected an error for an unsupported version")
	}
	if _, err := LoadNetFromString(corrupt(func(m *SavedModel) { m.Layers[0].InputSize = 7 })); err == nil {
		t.Error("expected an error for a broken size chain")
	}
	if _, err := LoadNetFromString(corrupt(func(m *SavedModel) { m.Layers[0].WIn = "AAAA" })); err == nil {
		t.Error("expected an error for a truncated weight blob")
	}
}

// TestSaveToFileRoundTrip checks the file based variant preserves weights.
func TestSaveToFileRoundTrip(t *testing.T) {
	net := buildNet(t, 2, 2, 3)
	path := filepath.Join(t.TempDir(), "model.json")

	if err := net.SaveToFile(path); err != nil {
		t.Fatalf("failed to save to file: %v", err)
	}
	loaded, err := LoadNetFromFile(path)
	if err != nil {
		t.Fatalf("failed to load from file: %v", err)
	}

	want := net.Layer(0).WIn.RawMatrix().Data
	got := loaded.Layer(0).WIn.RawMatrix().Data
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Fatalf("input weight %d differs after the file round trip", i)
		}
	}
}
