package planetary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gonum/floats"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.UseNBody || !cfg.UsePerturbations || cfg.TimeScale != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Start != J2000() {
		t.Fatalf("default start = %s", cfg.Start)
	}
	k := cfg.Constants
	if k.G != 6.67430e-11 || k.C != 299792458 {
		t.Fatalf("unexpected constants: %+v", k)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative time scale should be rejected")
	}
	cfg = DefaultConfig()
	cfg.Softening = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative softening should be rejected")
	}
	cfg = DefaultConfig()
	cfg.Constants.G = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero G should be rejected")
	}
	cfg = DefaultConfig()
	cfg.Step = 0
	if !errors.Is(cfg.Validate(), ErrInvalidTimeStep) {
		t.Fatal("zero integrator step should be rejected")
	}
	// A zero time scale is a legal frozen clock.
	cfg = DefaultConfig()
	cfg.TimeScale = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	scenario := `
[physics]
softening = 1000.0
relativistic = true

[sim]
start = 2010-06-01T00:00:00Z
timescale = 86400.0
step = 300.0
nbody = true
perturbations = false
`
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(scenario), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Softening != 1000 || !cfg.Relativistic || !cfg.UseNBody || cfg.UsePerturbations {
		t.Fatalf("scenario not applied: %+v", cfg)
	}
	if cfg.TimeScale != 86400 {
		t.Fatalf("timescale = %f", cfg.TimeScale)
	}
	if cfg.Step != 300 {
		t.Fatalf("step = %f", cfg.Step)
	}
	if cfg.Start.Year() != 2010 || cfg.Start.Month() != 6 {
		t.Fatalf("start = %s", cfg.Start)
	}
	// Unset keys keep their defaults.
	if !floats.EqualWithinRel(cfg.Constants.G, 6.67430e-11, 1e-12) {
		t.Fatalf("G should default, got %e", cfg.Constants.G)
	}
	if cfg.Frame.ObliquityDeg != J2000Obliquity {
		t.Fatalf("obliquity should default, got %f", cfg.Frame.ObliquityDeg)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("missing file should fail")
	}
	// A scenario that violates the invariants is rejected on load.
	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[sim]\ntimescale = -3.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatal("negative timescale scenario should fail")
	}
}
