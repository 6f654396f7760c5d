package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if cfg.Sampler.Sites != 4000 {
		t.Errorf("expected 4000 default sites, got %d", cfg.Sampler.Sites)
	}
	if cfg.Relax.Index != "grid" {
		t.Errorf("expected grid index, got %q", cfg.Relax.Index)
	}
	if cfg.Derived.Model == nil {
		t.Error("expected field model to be resolved")
	}
	if cfg.Derived.ScreenW32 != float32(cfg.Screen.Width) {
		t.Errorf("expected derived screen width %d, got %v", cfg.Screen.Width, cfg.Derived.ScreenW32)
	}
	if cfg.Derived.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected workers resolved to GOMAXPROCS, got %d", cfg.Derived.Workers)
	}
}

func TestSetWorkers(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.SetWorkers(3)
	if cfg.Derived.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Derived.Workers)
	}
	cfg.SetWorkers(0)
	if cfg.Derived.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected GOMAXPROCS workers, got %d", cfg.Derived.Workers)
	}
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("sampler:\n  sites: 250\nrelax:\n  index: kdtree\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading %s: %v", path, err)
	}
	if cfg.Sampler.Sites != 250 {
		t.Errorf("expected 250 sites, got %d", cfg.Sampler.Sites)
	}
	if cfg.Relax.Index != "kdtree" {
		t.Errorf("expected kdtree index, got %q", cfg.Relax.Index)
	}
	// Untouched keys keep their defaults.
	if cfg.Sampler.MaxRetries != 10000 {
		t.Errorf("expected default max_retries, got %d", cfg.Sampler.MaxRetries)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown model": "field:\n  model: sepia\n",
		"unknown index": "relax:\n  index: octree\n",
		"zero sites":    "sampler:\n  sites: 0\n",
		"negative cap":  "sampler:\n  max_retries: -1\n",
		"bad synthetic": "field:\n  synthetic: spiral\n",
		"zero size":     "field:\n  synthetic_size: 0\n",
		"neg workers":   "relax:\n  workers: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Sampler.Sites = 77

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if back.Sampler.Sites != 77 || back.Field.Model != cfg.Field.Model {
		t.Errorf("round trip mismatch: %+v vs %+v", back.Sampler, cfg.Sampler)
	}
}

func TestBuildFieldSynthetic(t *testing.T) {
	for _, kind := range []string{"radial", "rings"} {
		t.Run(kind, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			cfg.Field.Synthetic = kind
			cfg.Field.SyntheticSize = 32

			f, err := cfg.BuildField("")
			if err != nil {
				t.Fatal(err)
			}
			if f.Width() != 32 || f.Height() != 32 {
				t.Errorf("expected 32x32 field, got %dx%d", f.Width(), f.Height())
			}
			if f.Mass() <= 0 {
				t.Error("expected a field with mass")
			}
		})
	}
}

func TestBuildFieldMissingImage(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.BuildField(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing image")
	}
}
