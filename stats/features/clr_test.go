package features

import (
	"math"
	"testing"
)

func TestCLRTransformCentersAtZero(t *testing.T) {
	out, err := CLRTransform([]float64{0.2, 0.3, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("clr components must sum to zero, got %v", sum)
	}
}

func TestCLRTransformOrderPreserved(t *testing.T) {
	out, err := CLRTransform([]float64{0.1, 0.4, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(out[0] < out[1] && out[1] < out[2]) {
		t.Errorf("clr must preserve ordering, got %v", out)
	}
}

func TestCLRTransformRejectsZero(t *testing.T) {
	if _, err := CLRTransform([]float64{0.5, 0, 0.5}); err == nil {
		t.Fatal("expected error for zero component")
	}
	if _, err := CLRTransform(nil); err == nil {
		t.Fatal("expected error for empty composition")
	}
}

func TestCLRWithPseudocountHandlesZero(t *testing.T) {
	out, err := CLRWithPseudocount([]float64{0.5, 0, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 components, got %d", len(out))
	}
	// The zero component maps to the smallest transformed value.
	if !(out[1] < out[0] && out[1] < out[2]) {
		t.Errorf("zero component should be smallest after transform, got %v", out)
	}
}

func TestCLRWithPseudocountRejectsNegative(t *testing.T) {
	if _, err := CLRWithPseudocount([]float64{0.5, -0.1}); err == nil {
		t.Fatal("expected error for negative component")
	}
}
