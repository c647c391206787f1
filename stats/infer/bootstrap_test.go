package infer

import (
	"testing"
)

func TestBootstrapCIDeterministicPerSeed(t *testing.T) {
	a := []float64{1.2, 2.4, 3.1, 4.8, 5.0, 2.2}
	b := []float64{3.3, 4.1, 5.9, 6.2, 7.7}

	low1, high1, err := BootstrapCI(a, b, MedianDiff, 500, 0.95, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	low2, high2, err := BootstrapCI(a, b, MedianDiff, 500, 0.95, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low1 != low2 || high1 != high2 {
		t.Errorf("same seed must reproduce the interval: [%v,%v] vs [%v,%v]",
			low1, high1, low2, high2)
	}

	low3, high3, err := BootstrapCI(a, b, MedianDiff, 500, 0.95, 43)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low1 == low3 && high1 == high3 {
		t.Error("different seeds should not produce bit-identical intervals")
	}
}

func TestBootstrapCIOrdering(t *testing.T) {
	a := []float64{10, 12, 14, 16}
	b := []float64{1, 2, 3, 4}

	low, high, err := BootstrapCI(a, b, MedianDiff, 1000, 0.95, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low > high {
		t.Errorf("interval inverted: [%v, %v]", low, high)
	}
	if low <= 0 {
		t.Errorf("interval for clearly separated groups should exclude zero, got low %v", low)
	}
}

func TestBootstrapCIInsufficientData(t *testing.T) {
	_, _, err := BootstrapCI([]float64{1}, []float64{2, 3}, MedianDiff, 100, 0.95, 1)
	if err == nil {
		t.Fatal("expected error with a single observation")
	}
}

func TestBootstrapCIInvalidParameters(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{3, 4}
	if _, _, err := BootstrapCI(a, b, MedianDiff, 0, 0.95, 1); err == nil {
		t.Error("expected error for zero resamples")
	}
	if _, _, err := BootstrapCI(a, b, MedianDiff, 100, 1.5, 1); err == nil {
		t.Error("expected error for confidence outside (0,1)")
	}
}

func TestMeanDiffAndMedianDiff(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	if d := MeanDiff(a, b); d != -3 {
		t.Errorf("expected mean diff -3, got %v", d)
	}
	if d := MedianDiff(a, b); d != -3 {
		t.Errorf("expected median diff -3, got %v", d)
	}
}
