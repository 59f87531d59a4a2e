package planetary

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/julian"
	"github.com/soniakeys/meeus/planetposition"
)

// Ephemeris seeds body states from the VSOP87 planetary theory. The data
// files are not bundled; point it at a directory holding the VSOP87B files
// (the same layout soniakeys/meeus expects).
type Ephemeris struct {
	dir     string
	planets map[string]*planetposition.V87Planet
}

// NewEphemeris returns an ephemeris reading VSOP87 data from dir.
func NewEphemeris(dir string) *Ephemeris {
	return &Ephemeris{dir: dir, planets: make(map[string]*planetposition.V87Planet)}
}

var vsopIndices = map[string]int{
	"mercury": planetposition.Mercury,
	"venus":   planetposition.Venus,
	"earth":   planetposition.Earth,
	"mars":    planetposition.Mars,
	"jupiter": planetposition.Jupiter,
	"saturn":  planetposition.Saturn,
	"uranus":  planetposition.Uranus,
	"neptune": planetposition.Neptune,
}

func (e *Ephemeris) load(id string) (*planetposition.V87Planet, error) {
	if p, ok := e.planets[id]; ok {
		return p, nil
	}
	idx, ok := vsopIndices[id]
	if !ok {
		return nil, fmt.Errorf("no VSOP87 series for %q", id)
	}
	// Load the whole file up front, otherwise the first caller pins the
	// epoch range.
	p, err := planetposition.LoadPlanetPath(idx, e.dir)
	if err != nil {
		return nil, fmt.Errorf("could not load VSOP87 data for %q: %w", id, err)
	}
	e.planets[id] = p
	return p, nil
}

// HelioState returns the heliocentric ecliptic J2000 position and velocity of
// a planet at the given time, in meters and meters per second. The speed
// comes from vis-viva on the body's semi-major axis; the direction is the
// prograde tangent in the ecliptic plane.
func (e *Ephemeris) HelioState(b *Body, dt time.Time, sunMass float64, k Constants, frame FrameConfig) (R, V []float64, err error) {
	p, err := e.load(b.ID)
	if err != nil {
		return nil, nil, err
	}
	l, lat, r := p.Position2000(julian.TimeToJD(dt.UTC()))
	rm := frame.AU2Meters(r)
	R = make([]float64, 3)
	sB, cB := math.Sincos(lat.Rad())
	sL, cL := math.Sincos(l.Rad())
	R[0] = rm * cB * cL
	R[1] = rm * cB * sL
	R[2] = rm * sB
	μ := k.G * sunMass
	a := rm
	if b.Elements != nil {
		a = b.Elements.SemiMajorAxis
	}
	v := math.Sqrt(2*μ/rm - μ/a)
	vDir := unit(cross(R, []float64{0, 0, -1}))
	V = scale(v, vDir)
	return R, V, nil
}

// Seed overwrites the position and velocity of every body in the slice for
// which a VSOP87 series exists, relative to the body named "sun" if present.
func (e *Ephemeris) Seed(bodies []*Body, dt time.Time, k Constants, frame FrameConfig) error {
	var sun *Body
	for _, b := range bodies {
		if b.ID == "sun" {
			sun = b
			break
		}
	}
	sunMass := NewSun().Mass
	origin := make([]float64, 3)
	originVel := make([]float64, 3)
	if sun != nil {
		sunMass = sun.Mass
		origin = sun.Position
		originVel = sun.Velocity
	}
	for _, b := range bodies {
		if _, ok := vsopIndices[b.ID]; !ok {
			continue
		}
		R, V, err := e.HelioState(b, dt, sunMass, k, frame)
		if err != nil {
			return err
		}
		b.Position = add(origin, R)
		b.Velocity = add(originVel, V)
	}
	return nil
}
