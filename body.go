package planetary

import (
	"fmt"
	"strings"
)

// BodyCategory tags a body for bookkeeping. The physics only ever needs mass,
// position, J2 and radius, so this is a flat tag plus capability flags on the
// Body itself, not a type hierarchy.
type BodyCategory uint8

const (
	CategoryGeneric BodyCategory = iota
	CategoryStar
	CategoryPlanet
	CategoryMoon
	CategoryAsteroid
	CategoryComet
	CategorySpacecraft
)

func (c BodyCategory) String() string {
	switch c {
	case CategoryGeneric:
		return "generic"
	case CategoryStar:
		return "star"
	case CategoryPlanet:
		return "planet"
	case CategoryMoon:
		return "moon"
	case CategoryAsteroid:
		return "asteroid"
	case CategoryComet:
		return "comet"
	case CategorySpacecraft:
		return "spacecraft"
	}
	panic("cannot stringify unknown body category")
}

// ParseBodyCategory returns the category from its tag name.
func ParseBodyCategory(name string) (BodyCategory, error) {
	switch strings.ToLower(name) {
	case "generic":
		return CategoryGeneric, nil
	case "star":
		return CategoryStar, nil
	case "planet":
		return CategoryPlanet, nil
	case "moon":
		return CategoryMoon, nil
	case "asteroid":
		return CategoryAsteroid, nil
	case "comet":
		return CategoryComet, nil
	case "spacecraft":
		return CategorySpacecraft, nil
	default:
		return CategoryGeneric, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
}

// AtmosphereModel is an exponential density profile anchored at the surface.
type AtmosphereModel struct {
	SurfaceDensity float64 // ρ₀ at the body radius, kg/m³
	ScaleHeight    float64 // m
}

// DragProperties describes how a body couples to an atmosphere.
type DragProperties struct {
	Coeff float64 // dimensionless drag coefficient
	Area  float64 // cross section, m²
}

// RadiationProperties describes how a body couples to solar radiation pressure.
type RadiationProperties struct {
	Area         float64 // illuminated area, m²
	Reflectivity float64 // 0 fully absorbing, 1 fully reflecting
}

// Body is a simulated object. Position, velocity and acceleration are in the
// inertial frame in SI units; Acceleration is derived output only. ParentID is
// a weak reference naming the body whose frame the Keplerian elements are
// defined relative to, never an ownership edge.
type Body struct {
	ID           string
	Name         string
	Category     BodyCategory
	Mass         float64 // kg
	Radius       float64 // m
	Position     []float64 // m
	Velocity     []float64 // m/s
	Acceleration []float64 // m/s², derived
	J2           float64   // oblateness coefficient, 0 when not set
	ParentID     string
	Elements     *OrbitalElements // present only in Keplerian mode

	// Capability flags.
	GravitySource bool // contributes to third-body perturbations

	// Optional property blocks; nil means the matching perturbation term
	// contributes zero.
	Atmosphere *AtmosphereModel
	Drag       *DragProperties
	Radiation  *RadiationProperties
}

// NewBody returns a body at rest at the origin. Gravity-source defaults to
// true for stars, planets and moons.
func NewBody(id, name string, category BodyCategory, mass, radius float64) *Body {
	return &Body{
		ID:           id,
		Name:         name,
		Category:     category,
		Mass:         mass,
		Radius:       radius,
		Position:     make([]float64, 3),
		Velocity:     make([]float64, 3),
		Acceleration: make([]float64, 3),
		GravitySource: category == CategoryStar || category == CategoryPlanet ||
			category == CategoryMoon,
	}
}

// HasOblateness reports whether this body carries a non-zero J2 coefficient.
func (b *Body) HasOblateness() bool {
	return b.J2 != 0
}

// Validate checks the registration invariants and normalizes the state
// vectors to 3 components.
func (b *Body) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: empty id", ErrBodyNotFound)
	}
	if b.Mass <= 0 {
		return fmt.Errorf("%w: %q mass=%f", ErrInvalidMass, b.ID, b.Mass)
	}
	if b.Radius < 0 {
		return fmt.Errorf("%w: %q radius=%f", ErrInvalidRadius, b.ID, b.Radius)
	}
	b.Position = vec3(b.Position)
	b.Velocity = vec3(b.Velocity)
	b.Acceleration = vec3(b.Acceleration)
	return nil
}

// String implements the Stringer interface.
func (b *Body) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.Name, b.ID, b.Category)
}

// perturbingEntry projects this body onto the read-mostly snapshot registered
// with the perturbation model.
func (b *Body) perturbingEntry() PerturbingBody {
	return PerturbingBody{
		ID:       b.ID,
		Name:     b.Name,
		Mass:     b.Mass,
		Position: vec3(b.Position),
		J2:       b.J2,
		Radius:   b.Radius,
	}
}
