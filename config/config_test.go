package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	if cfg.BatchSize != 32 || cfg.Passes != 10 || cfg.LatentDim != 100 || cfg.BufferSize != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Optimizer != "rmsprop" || cfg.LearningRate != 1e-3 {
		t.Fatalf("unexpected optimizer defaults: %s %f", cfg.Optimizer, cfg.LearningRate)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := "dataset: synthetic\nsynthetic_size: 64\npasses: 2\noptimizer: adam\ngenerator_filters: [8, 4, 2]\nhold_last_frame: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset != DatasetSynthetic || cfg.Passes != 2 || cfg.Optimizer != "adam" || !cfg.HoldLastFrame {
		t.Fatalf("file values are not applied: %+v", cfg)
	}
	if cfg.GeneratorFilters != [3]int{8, 4, 2} {
		t.Fatalf("unexpected generator filters: %v", cfg.GeneratorFilters)
	}
	if cfg.BatchSize != 32 || cfg.GridRows != 5 {
		t.Fatalf("missing values must come from defaults: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"dataset":   "dataset: cifar\n",
		"optimizer": "optimizer: sgd\n",
		"loss":      "loss: hinge\n",
		"grid":      "grid_rows: 10\ngrid_cols: 10\n",
		"kernel":    "kernel_size: 4\n",
		"syntax":    "passes: [1\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	download := false
	cfg.ApplyOverrides(Overrides{Passes: 3, BatchSize: 64, Loss: "mse", Download: &download})
	if cfg.Passes != 3 || cfg.BatchSize != 64 || cfg.Loss != "mse" || cfg.Download {
		t.Fatalf("overrides are not applied: %+v", cfg)
	}
	cfg.ApplyOverrides(Overrides{})
	if cfg.Passes != 3 || cfg.Optimizer != "rmsprop" {
		t.Fatal("zero overrides must keep values")
	}
}

func TestArchitectureMapping(t *testing.T) {
	cfg := Default()
	cfg.LatentDim = 16
	opts := cfg.TrainerOptions(8, 12)
	if opts.Architecture.ImageHeight != 8 || opts.Architecture.ImageWidth != 12 || opts.Architecture.LatentDim != 16 {
		t.Fatalf("unexpected architecture: %+v", opts.Architecture)
	}
	if opts.BatchSize != cfg.BatchSize || opts.Optimizer != cfg.Optimizer {
		t.Fatalf("unexpected trainer options: %+v", opts)
	}
}
