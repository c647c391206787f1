package infer

import (
	"math"
	"testing"

	domstats "immunostat/domain/stats"
)

func TestWelchTSeparatedGroups(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{10, 11, 12, 13, 14}

	res, err := CompareGroups(a, b, domstats.TestWelchT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PValue > 0.001 {
		t.Errorf("expected very small p for separated groups, got %v", res.PValue)
	}
	if res.Statistic >= 0 {
		t.Errorf("expected negative t when A sits below B, got %v", res.Statistic)
	}
	if res.Effect != -9 {
		t.Errorf("expected mean difference -9, got %v", res.Effect)
	}
}

func TestWelchTIdenticalGroups(t *testing.T) {
	a := []float64{3, 3, 3}
	b := []float64{3, 3, 3}

	res, err := CompareGroups(a, b, domstats.TestWelchT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PValue != 1 || res.Statistic != 0 {
		t.Errorf("expected t=0 p=1 for identical constant groups, got t=%v p=%v",
			res.Statistic, res.PValue)
	}
}

func TestWelchTConstantGroupsWithDifferentMeans(t *testing.T) {
	a := []float64{5, 5, 5}
	b := []float64{2, 2, 2}

	res, err := CompareGroups(a, b, domstats.TestWelchT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(res.Statistic, 1) {
		t.Errorf("expected +Inf statistic for perfectly separated constants, got %v", res.Statistic)
	}
	if res.PValue != 0 {
		t.Errorf("expected p=0, got %v", res.PValue)
	}
}

func TestWelchTRequiresTwoPerGroup(t *testing.T) {
	_, err := CompareGroups([]float64{1}, []float64{2, 3}, domstats.TestWelchT)
	if err == nil {
		t.Fatal("expected error with a single observation")
	}
}

func TestWelchTSymmetricP(t *testing.T) {
	a := []float64{1.5, 2.5, 3.1, 4.0}
	b := []float64{2.0, 3.0, 5.5}

	ab, err := CompareGroups(a, b, domstats.TestWelchT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := CompareGroups(b, a, domstats.TestWelchT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ab.PValue-ba.PValue) > 1e-12 {
		t.Errorf("p-value should not depend on group order: %v vs %v", ab.PValue, ba.PValue)
	}
}
