package cohort

import "testing"

func TestFilterMatches(t *testing.T) {
	rec := CellCountRecord{
		Condition:  "Melanoma",
		Treatment:  "miraclib",
		SampleType: "PBMC",
		VisitTime:  0,
	}

	if !DefaultFilter().Matches(rec) {
		t.Error("default filter should match the primary cohort record")
	}

	f := DefaultFilter()
	f.Condition = "carcinoma"
	if f.Matches(rec) {
		t.Error("condition mismatch must exclude the record")
	}

	f = DefaultFilter()
	rec.VisitTime = 14
	if f.Matches(rec) {
		t.Error("baseline-only filter must exclude follow-up samples")
	}

	f.Time = TimeAll
	if !f.Matches(rec) {
		t.Error("time=all admits follow-up samples")
	}
}

func TestFilterWildcards(t *testing.T) {
	rec := CellCountRecord{Condition: "carcinoma", Treatment: "phauximab", SampleType: "WB"}

	f := Filter{Condition: "all", Treatment: "", SampleType: "ALL", Time: TimeAll}
	if !f.Matches(rec) {
		t.Error("empty and 'all' fields match everything")
	}
}

func TestFilterKeyStable(t *testing.T) {
	a := Filter{Condition: "Melanoma", Treatment: "MIRACLIB", SampleType: "pbmc", Time: TimeBaselineOnly}
	b := Filter{Condition: "melanoma", Treatment: "miraclib", SampleType: "PBMC", Time: TimeBaselineOnly}
	if a.Key() != b.Key() {
		t.Errorf("key must be case-insensitive: %q vs %q", a.Key(), b.Key())
	}

	c := b
	c.Time = ""
	if c.Key() != "condition=melanoma|treatment=miraclib|sample_type=pbmc|time=all" {
		t.Errorf("empty time renders as all, got %q", c.Key())
	}
}

func TestPartitionValidate(t *testing.T) {
	p := NewResponderPartition(map[string]GroupLabel{"p1": "yes", "p2": "no"})
	if err := p.Validate(); err != nil {
		t.Fatalf("valid partition rejected: %v", err)
	}

	oneSided := NewResponderPartition(map[string]GroupLabel{"p1": "yes"})
	if err := oneSided.Validate(); err == nil {
		t.Error("partition with an empty group must be rejected")
	}

	stray := NewResponderPartition(map[string]GroupLabel{"p1": "yes", "p2": "maybe"})
	if err := stray.Validate(); err == nil {
		t.Error("unknown group label must be rejected")
	}
}

func TestPartitionGroup(t *testing.T) {
	p := NewResponderPartition(map[string]GroupLabel{"p1": "yes", "p2": "no"})

	label, ok := p.Group("p1")
	if !ok || label != "yes" {
		t.Errorf("expected yes, got %q ok=%v", label, ok)
	}
	if _, ok := p.Group("p99"); ok {
		t.Error("unlabeled units are excluded, not defaulted")
	}
}
