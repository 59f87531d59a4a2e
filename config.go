package planetary

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Constants carries the physical constants used across the engine. They are
// passed explicitly to each component at construction, never read from
// mutable global state.
type Constants struct {
	G               float64 // gravitational constant, m³/(kg·s²)
	C               float64 // speed of light, m/s
	AUMeters        float64 // astronomical unit, m
	SolarPressureAU float64 // solar radiation pressure at 1 AU, N/m²
}

// DefaultConstants returns the CODATA/IAU values.
func DefaultConstants() Constants {
	return Constants{
		G:               6.67430e-11,
		C:               299792458,
		AUMeters:        1.495978707e11,
		SolarPressureAU: 4.56e-6,
	}
}

// Config is the full simulation configuration.
type Config struct {
	Constants        Constants
	Frame            FrameConfig
	Start            time.Time // absolute simulation start time
	TimeScale        float64   // real-to-simulated seconds multiplier
	Step             float64   // default integrator step, s
	Softening        float64   // N-body softening length, m
	UseNBody         bool
	UsePerturbations bool
	Relativistic     bool
}

// DefaultConfig returns a paused-free, Keplerian-mode configuration starting
// at J2000 with a unit time scale.
func DefaultConfig() Config {
	return Config{
		Constants:        DefaultConstants(),
		Frame:            DefaultFrameConfig(),
		Start:            J2000(),
		TimeScale:        1,
		Step:             60,
		Softening:        0,
		UseNBody:         false,
		UsePerturbations: true,
		Relativistic:     false,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.TimeScale < 0 {
		return ErrNegativeTimeScale
	}
	if c.Step <= 0 {
		return ErrInvalidTimeStep
	}
	if c.Softening < 0 {
		return ErrNegativeSoftening
	}
	if c.Constants.G <= 0 || c.Constants.C <= 0 || c.Constants.AUMeters <= 0 {
		return fmt.Errorf("non-positive physical constant: %+v", c.Constants)
	}
	return nil
}

// LoadConfig reads a TOML scenario file and returns the configuration merged
// over the defaults. The expected layout mirrors the scenario files of the
// cmd tools:
//
//	[physics]
//	g = 6.6743e-11
//	c = 299792458.0
//	softening = 1e3
//	relativistic = false
//
//	[frame]
//	obliquity_deg = 23.43929111
//	au_meters = 1.495978707e11
//
//	[sim]
//	start = 2000-01-01T12:00:00Z
//	timescale = 86400.0
//	step = 60.0
//	nbody = true
//	perturbations = true
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if v.IsSet("physics.g") {
		cfg.Constants.G = v.GetFloat64("physics.g")
	}
	if v.IsSet("physics.c") {
		cfg.Constants.C = v.GetFloat64("physics.c")
	}
	if v.IsSet("physics.au_meters") {
		cfg.Constants.AUMeters = v.GetFloat64("physics.au_meters")
	}
	if v.IsSet("physics.softening") {
		cfg.Softening = v.GetFloat64("physics.softening")
	}
	if v.IsSet("physics.relativistic") {
		cfg.Relativistic = v.GetBool("physics.relativistic")
	}
	if v.IsSet("frame.obliquity_deg") {
		cfg.Frame.ObliquityDeg = v.GetFloat64("frame.obliquity_deg")
	}
	if v.IsSet("frame.au_meters") {
		cfg.Frame.AUMeters = v.GetFloat64("frame.au_meters")
	}
	if v.IsSet("sim.start") {
		cfg.Start = v.GetTime("sim.start").UTC()
	}
	if v.IsSet("sim.timescale") {
		cfg.TimeScale = v.GetFloat64("sim.timescale")
	}
	if v.IsSet("sim.step") {
		cfg.Step = v.GetFloat64("sim.step")
	}
	if v.IsSet("sim.nbody") {
		cfg.UseNBody = v.GetBool("sim.nbody")
	}
	if v.IsSet("sim.perturbations") {
		cfg.UsePerturbations = v.GetBool("sim.perturbations")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
