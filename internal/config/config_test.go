package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default scenario invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := `
seed: 7
fleet:
  fishers: 12
adaptation:
  algorithm: pso
  pso:
    inertia: 0.4
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Map.Seed != 7 {
		t.Errorf("seed %d map seed %d", cfg.Seed, cfg.Map.Seed)
	}
	if cfg.Fleet.Fishers != 12 || cfg.Fleet.Friends != Default().Fleet.Friends {
		t.Errorf("fleet %+v", cfg.Fleet)
	}
	if cfg.Adaptation.Algorithm != AlgorithmPSO || cfg.Adaptation.PSO.Inertia != 0.4 {
		t.Errorf("adaptation %+v", cfg.Adaptation)
	}
	if cfg.Adaptation.PSO.SocialWeight != Default().Adaptation.PSO.SocialWeight {
		t.Errorf("unset pso fields lost their defaults: %+v", cfg.Adaptation.PSO)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLEETSIM_DB", "/tmp/other.db")
	t.Setenv("FLEETSIM_ADDR", ":9090")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path != "/tmp/other.db" || cfg.API.Addr != ":9090" {
		t.Fatalf("env ignored: %+v %+v", cfg.Storage, cfg.API)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file loaded")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Fleet.Fishers = 0
	cfg.Engine.AdaptEvery = 0
	cfg.Adaptation.Explore = 2

	err := cfg.Validate()
	if !errors.Is(err, adaptation.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	for _, want := range []string{"fisher", "adapt every", "explore probability"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateAlgorithmSpecific(t *testing.T) {
	cfg := Default()
	cfg.Adaptation.Algorithm = "annealing"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "annealing") {
		t.Errorf("unknown algorithm: %v", err)
	}

	cfg = Default()
	cfg.Adaptation.Algorithm = AlgorithmGravitational
	cfg.Adaptation.Gravitational.InitialSpeed = Parameter{Kind: "normal", A: 0, B: -1}
	if err := cfg.Validate(); err == nil {
		t.Errorf("negative deviation accepted")
	}

	cfg = Default()
	cfg.Adaptation.Beam.Unfriend = true
	cfg.Adaptation.Beam.UnfriendThreshold = 0.2
	cfg.Adaptation.Beam.Backtracks = false
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "unfriending") {
		t.Errorf("unfriending without backtracking: %v", err)
	}

	cfg = Default()
	cfg.Adaptation.Penalty = &Penalty{Increment: 0.05, Minimum: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Errorf("penalty minimum above explore accepted")
	}
}
