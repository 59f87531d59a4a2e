package planetary

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestPresetBodies(t *testing.T) {
	sun := NewSun()
	if sun.Category != CategoryStar || !sun.GravitySource {
		t.Fatal("the Sun should be a gravity-source star")
	}
	earth := NewEarth()
	if earth.ParentID != "sun" || !earth.HasOblateness() || earth.Atmosphere == nil {
		t.Fatalf("unexpected Earth preset: %+v", earth)
	}
	moon := NewMoon()
	if moon.ParentID != "earth" {
		t.Fatal("the Moon orbits Earth")
	}
	for _, b := range []*Body{sun, NewMercury(), NewVenus(), earth, moon, NewMars(), NewJupiter(), NewSaturn()} {
		if err := b.Validate(); err != nil {
			t.Fatalf("%s: %s", b.ID, err)
		}
	}
	// Sanity on the mass ordering.
	if !(sun.Mass > NewJupiter().Mass && NewJupiter().Mass > earth.Mass && earth.Mass > moon.Mass) {
		t.Fatal("mass ordering is wrong")
	}
}

func TestSolarSystem(t *testing.T) {
	k := DefaultConstants()
	frame := DefaultFrameConfig()
	bodies, err := SolarSystem(J2000(), k, frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 8 {
		t.Fatalf("expected 8 bodies, got %d", len(bodies))
	}
	byID := make(map[string]*Body, len(bodies))
	for _, b := range bodies {
		byID[b.ID] = b
	}
	// Heliocentric distances at J2000 stay within each orbit's apsides.
	for id, limits := range map[string][2]float64{
		"mercury": {0.30, 0.47},
		"venus":   {0.71, 0.73},
		"earth":   {0.97, 1.03},
		"mars":    {1.35, 1.70},
		"jupiter": {4.9, 5.5},
		"saturn":  {9.0, 10.1},
	} {
		r := frame.Meters2AU(norm(byID[id].Position))
		if r < limits[0] || r > limits[1] {
			t.Fatalf("%s at %f AU", id, r)
		}
		// And the speed is near the vis-viva value.
		μ := k.G * byID["sun"].Mass
		vv := math.Sqrt(μ * (2/norm(byID[id].Position) - 1/byID[id].Elements.SemiMajorAxis))
		if !floats.EqualWithinRel(norm(byID[id].Velocity), vv, 1e-6) {
			t.Fatalf("%s speed %f != vis-viva %f", id, norm(byID[id].Velocity), vv)
		}
	}
	// The Moon sits within half a million km of Earth.
	if d := distance(byID["moon"].Position, byID["earth"].Position); d > 5e8 || d < 3e8 {
		t.Fatalf("Earth-Moon distance = %e", d)
	}
	// The whole set drops into a system and propagates.
	s := newTestSystem(t)
	for _, b := range bodies {
		if err := s.AddBody(b); err != nil {
			t.Fatal(err)
		}
	}
	for day := 0; day < 10; day++ {
		if err := s.Update(86400); err != nil {
			t.Fatal(err)
		}
	}
	e, _ := s.Body("earth")
	if r := frame.Meters2AU(norm(e.Position)); r < 0.97 || r > 1.03 {
		t.Fatalf("Earth drifted to %f AU", r)
	}
}
