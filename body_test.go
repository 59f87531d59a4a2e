package planetary

import (
	"errors"
	"testing"
)

func TestBodyCategory(t *testing.T) {
	for _, name := range []string{"generic", "star", "planet", "moon", "asteroid", "comet", "spacecraft"} {
		cat, err := ParseBodyCategory(name)
		if err != nil {
			t.Fatal(err)
		}
		if cat.String() != name {
			t.Fatalf("%s round trip gave %s", name, cat)
		}
	}
	if cat, err := ParseBodyCategory("PLANET"); err != nil || cat != CategoryPlanet {
		t.Fatal("parsing should be case insensitive")
	}
	if _, err := ParseBodyCategory("blackhole"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("unknown category should fail, got %v", err)
	}
	assertPanic(t, func() {
		_ = BodyCategory(200).String()
	})
}

func TestNewBodyDefaults(t *testing.T) {
	for _, tc := range []struct {
		cat  BodyCategory
		grav bool
	}{
		{CategoryStar, true},
		{CategoryPlanet, true},
		{CategoryMoon, true},
		{CategoryAsteroid, false},
		{CategoryComet, false},
		{CategorySpacecraft, false},
		{CategoryGeneric, false},
	} {
		b := NewBody("x", "X", tc.cat, 1, 1)
		if b.GravitySource != tc.grav {
			t.Fatalf("%s gravity-source default = %v", tc.cat, b.GravitySource)
		}
	}
	b := NewBody("iss", "ISS", CategorySpacecraft, 420e3, 0)
	if norm(b.Position) != 0 || norm(b.Velocity) != 0 || norm(b.Acceleration) != 0 {
		t.Fatal("new body should be at rest at the origin")
	}
	if b.HasOblateness() {
		t.Fatal("oblateness defaults to off")
	}
	b.J2 = 1e-3
	if !b.HasOblateness() {
		t.Fatal("non-zero J2 means oblate")
	}
}

func TestBodyValidate(t *testing.T) {
	b := NewBody("", "Nameless", CategoryGeneric, 1, 1)
	if err := b.Validate(); err == nil {
		t.Fatal("empty id should be rejected")
	}
	b = NewBody("x", "X", CategoryGeneric, 0, 1)
	if err := b.Validate(); !errors.Is(err, ErrInvalidMass) {
		t.Fatalf("zero mass should be rejected, got %v", err)
	}
	b = NewBody("x", "X", CategoryGeneric, 1, -1)
	if err := b.Validate(); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("negative radius should be rejected, got %v", err)
	}
	// Radius zero is fine: point masses are legal.
	b = NewBody("x", "X", CategoryGeneric, 1, 0)
	b.Position = []float64{1, 2} // malformed vector gets normalized
	if err := b.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(b.Position) != 3 {
		t.Fatal("validation should normalize vectors to 3 components")
	}
}

func TestPerturbingEntry(t *testing.T) {
	e := NewEarth()
	e.Position = []float64{1, 2, 3}
	pe := e.perturbingEntry()
	if pe.ID != e.ID || pe.Mass != e.Mass || pe.J2 != e.J2 || pe.Radius != e.Radius {
		t.Fatalf("projection mismatch: %+v", pe)
	}
	// The snapshot holds a copy, not an alias.
	e.Position[0] = 99
	if pe.Position[0] != 1 {
		t.Fatal("perturbing entry should copy the position")
	}
}
