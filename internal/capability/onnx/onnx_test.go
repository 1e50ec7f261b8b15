package onnx

import (
	"math"
	"testing"
)

func TestMeanPoolMaskedAverage(t *testing.T) {
	// batch=1, seqLen=3, dim=2; third position is padding
	hidden := []float32{1, 2, 3, 4, 100, 100}
	mask := []int64{1, 1, 0}

	out := meanPool(hidden, mask, 1, 3, 2)
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	if math.Abs(float64(out[0]-2)) > 1e-6 || math.Abs(float64(out[1]-3)) > 1e-6 {
		t.Errorf("pooled = %v, want [2 3]", out)
	}
}

func TestMeanPoolAllPadding(t *testing.T) {
	out := meanPool([]float32{1, 2}, []int64{0}, 1, 1, 2)
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("pooled = %v, want zeros", out)
	}
}

func TestMeanPoolBatchIndependence(t *testing.T) {
	// two rows, dim 1: row 0 averages {1,3}, row 1 averages {10}
	hidden := []float32{1, 3, 10, 99}
	mask := []int64{1, 1, 1, 0}

	out := meanPool(hidden, mask, 2, 2, 1)
	if out[0] != 2 || out[1] != 10 {
		t.Errorf("pooled = %v, want [2 10]", out)
	}
}
