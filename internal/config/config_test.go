package config

import (
	"testing"

	"immunostat/domain/stats"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected embedded sqlite default, got %s", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "immune_cells.db" {
		t.Errorf("unexpected default DSN %s", cfg.Database.DSN)
	}
	if cfg.Server.APIPort != "8081" || cfg.Server.UIPort != "8080" {
		t.Errorf("unexpected default ports %s/%s", cfg.Server.APIPort, cfg.Server.UIPort)
	}
	if cfg.Analysis.Method != stats.TestMannWhitney {
		t.Errorf("expected Mann-Whitney default, got %s", cfg.Analysis.Method)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/trial")
	t.Setenv("BOOTSTRAP_RESAMPLES", "500")
	t.Setenv("BOOTSTRAP_SEED", "7")
	t.Setenv("ANALYSIS_UNIT", "sample")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver override lost: %s", cfg.Database.Driver)
	}
	if cfg.Analysis.Resamples != 500 {
		t.Errorf("resamples override lost: %d", cfg.Analysis.Resamples)
	}
	if cfg.Analysis.RandomSeed != 7 {
		t.Errorf("seed override lost: %d", cfg.Analysis.RandomSeed)
	}
	if cfg.Analysis.Unit != stats.UnitSample {
		t.Errorf("unit override lost: %s", cfg.Analysis.Unit)
	}
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadRejectsBadAnalysisDefaults(t *testing.T) {
	t.Setenv("CONFIDENCE_LEVEL", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range confidence level")
	}
}
