package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.InputFile != filepath.Join("data", "new_orders.csv") {
		t.Fatalf("unexpected input_file %q", c.InputFile)
	}
	if c.Seed != 42 || c.CVFolds != 3 || c.TestSize != 0.2 {
		t.Fatalf("unexpected training defaults: %+v", c)
	}
	if len(c.Grid.NEstimators) != 2 || len(c.Grid.MaxDepth) != 3 || len(c.Grid.LearningRate) != 3 {
		t.Fatalf("unexpected grid defaults: %+v", c.Grid)
	}
}

func TestSaveThenLoadFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Seed = 7
	c.Grid.MaxDepth = []int{2}
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := Save(c, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Seed != 7 {
		t.Fatalf("seed not persisted: %d", got.Seed)
	}
	if len(got.Grid.MaxDepth) != 1 || got.Grid.MaxDepth[0] != 2 {
		t.Fatalf("grid not persisted: %+v", got.Grid.MaxDepth)
	}
}

func TestLoadRejectsBadTestSize(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte("test_size: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error for test_size")
	}
}

func TestLoadRejectsOutOfRangeGridValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"subsample":     "grid:\n  subsample: [1.5]\n",
		"max_depth":     "grid:\n  max_depth: [3, 0]\n",
		"learning_rate": "grid:\n  learning_rate: [-0.1]\n",
	}
	for name, body := range cases {
		p := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(p)
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected grid validation error, got %v", name, err)
		}
	}
}
