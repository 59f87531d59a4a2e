package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	planetary "github.com/ARCIST-AI/PLANETARY-sub002"
	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/viper"
)

// This command only reads a scenario file, propagates the system and writes
// the final snapshot as JSON.

const defaultScenario = "~~unset~~"

var (
	scenario string
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "log every propagation step")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	if !strings.HasSuffix(scenario, ".toml") {
		scenario += ".toml"
	}
	cfg, err := planetary.LoadConfig(scenario)
	if err != nil {
		log.Fatalf("%s: %s", scenario, err)
	}

	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	klog = kitlog.With(klog, "app", "planetpropd")

	sys, err := planetary.NewSystem(cfg, klog)
	if err != nil {
		log.Fatalf("could not create system: %s", err)
	}

	v := viper.New()
	v.SetConfigFile(scenario)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("%s: %s", scenario, err)
	}

	if v.GetString("scenario.preset") == "solarsystem" {
		bodies, err := planetary.SolarSystem(sys.Time(), sys.Constants(), sys.Frame())
		if err != nil {
			log.Fatalf("could not build solar system: %s", err)
		}
		if dir := v.GetString("scenario.vsop87"); dir != "" {
			eph := planetary.NewEphemeris(dir)
			if err := eph.Seed(bodies, sys.Time(), sys.Constants(), sys.Frame()); err != nil {
				log.Fatalf("could not seed ephemeris: %s", err)
			}
		}
		for _, b := range bodies {
			if err := sys.AddBody(b); err != nil {
				log.Fatalf("could not add %s: %s", b.ID, err)
			}
		}
	}

	for bodyNo := 0; v.IsSet(fmt.Sprintf("bodies.%d", bodyNo)); bodyNo++ {
		b, err := readBody(v, bodyNo, sys)
		if err != nil {
			log.Fatalf("bodies.%d: %s", bodyNo, err)
		}
		if err := sys.AddBody(b); err != nil {
			log.Fatalf("could not add %s: %s", b.ID, err)
		}
	}

	duration := v.GetDuration("run.duration")
	step := v.GetDuration("run.step")
	if step <= 0 {
		step = time.Duration(sys.Step() * float64(time.Second))
	}
	if duration <= 0 {
		log.Fatal("run.duration must be positive")
	}
	steps := int(duration / step)
	for i := 0; i < steps; i++ {
		if err := sys.Update(step.Seconds()); err != nil {
			log.Fatalf("propagation failed at %s: %s", sys.Time(), err)
		}
		if verbose {
			klog.Log("level", "debug", "date", sys.Time(), "step", i)
		}
	}
	klog.Log("level", "info", "date", sys.Time(), "bodies", len(sys.Bodies()), "status", "done")

	out := os.Stdout
	if name := v.GetString("run.output"); name != "" && name != "-" {
		f, err := os.Create(name)
		if err != nil {
			log.Fatalf("could not create %s: %s", name, err)
		}
		defer f.Close()
		out = f
	}
	if err := sys.WriteJSON(out); err != nil {
		log.Fatalf("could not export: %s", err)
	}
}

func readBody(v *viper.Viper, n int, sys *planetary.System) (*planetary.Body, error) {
	pre := func(key string) string { return fmt.Sprintf("bodies.%d.%s", n, key) }
	cat, err := planetary.ParseBodyCategory(v.GetString(pre("category")))
	if err != nil {
		return nil, err
	}
	b := planetary.NewBody(v.GetString(pre("id")), v.GetString(pre("name")), cat, v.GetFloat64(pre("mass")), v.GetFloat64(pre("radius")))
	b.ParentID = v.GetString(pre("parent"))
	b.J2 = v.GetFloat64(pre("j2"))
	if v.IsSet(pre("position")) {
		b.Position = floats3(v, pre("position"))
	}
	if v.IsSet(pre("velocity")) {
		b.Velocity = floats3(v, pre("velocity"))
	}
	if v.IsSet(pre("orbit.sma")) {
		parent, err := sys.Body(b.ParentID)
		if err != nil {
			return nil, fmt.Errorf("orbit requires a registered parent: %w", err)
		}
		oe, err := planetary.NewOrbitalElements(
			v.GetFloat64(pre("orbit.sma")),
			v.GetFloat64(pre("orbit.ecc")),
			v.GetFloat64(pre("orbit.inc")),
			v.GetFloat64(pre("orbit.RAAN")),
			v.GetFloat64(pre("orbit.argPeri")),
			v.GetFloat64(pre("orbit.meanAnom")),
			parent.Mass, sys.Time(), sys.Constants())
		if err != nil {
			return nil, err
		}
		b.Elements = oe
		R, V, err := oe.StateAt(sys.Time(), sys.Constants())
		if err != nil {
			return nil, err
		}
		b.Position = addVec(parent.Position, R)
		b.Velocity = addVec(parent.Velocity, V)
	}
	if v.IsSet(pre("drag.area")) {
		b.Drag = &planetary.DragProperties{Coeff: v.GetFloat64(pre("drag.cd")), Area: v.GetFloat64(pre("drag.area"))}
	}
	if v.IsSet(pre("srp.area")) {
		b.Radiation = &planetary.RadiationProperties{Area: v.GetFloat64(pre("srp.area")), Reflectivity: v.GetFloat64(pre("srp.reflectivity"))}
	}
	return b, nil
}

func floats3(v *viper.Viper, key string) []float64 {
	out := make([]float64, 3)
	raw, _ := v.Get(key).([]interface{})
	for i := 0; i < 3 && i < len(raw); i++ {
		switch x := raw[i].(type) {
		case float64:
			out[i] = x
		case int64:
			out[i] = float64(x)
		case int:
			out[i] = float64(x)
		}
	}
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = a[i] + b[i]
	}
	return out
}
