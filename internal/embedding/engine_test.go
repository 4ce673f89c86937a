package embedding

import (
	"math"
	"testing"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	vecs := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 2.1},
		{5, 5, 5, 5, 5},
	}
	for _, v := range vecs {
		got := CosineSimilarity(v, v)
		if math.Abs(got-1.0) > 1e-6 {
			t.Errorf("CosineSimilarity(v, v) = %f, want 1.0 for %v", got, v)
		}
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-6 {
		t.Errorf("expected 0 for orthogonal vectors, got %f", got)
	}
}

func TestCosineSimilarity_DegenerateInputsScoreZero(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
	}{
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"empty a", nil, []float32{1, 2}},
		{"empty b", []float32{1, 2}, nil},
		{"both empty", nil, nil},
		{"zero magnitude", []float32{0, 0, 0}, []float32{1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CosineSimilarity(tc.a, tc.b); got != 0 {
				t.Errorf("expected 0, got %f", got)
			}
		})
	}
}

func TestFirstVector_UnwrapsNestedBatch(t *testing.T) {
	vec := FirstVector([][]float32{{0.1, 0.2}})
	if len(vec) != 2 {
		t.Fatalf("expected unwrapped vector of length 2, got %v", vec)
	}

	if FirstVector(nil) != nil {
		t.Error("expected nil for empty batch")
	}
	if FirstVector([][]float32{{}, nil}) != nil {
		t.Error("expected nil when all vectors are empty")
	}
}
