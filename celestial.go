package planetary

import "time"

// Preset bodies use SI units and J2000 mean ecliptic orbital elements from
// the Standish tables. Positions and velocities are only filled in by
// SolarSystem (or a VSOP87 seed), the bare constructors return bodies at the
// origin.

// NewSun returns our favorite star.
func NewSun() *Body {
	return NewBody("sun", "Sun", CategoryStar, 1.989e30, 6.957e8)
}

// NewMercury returns the innermost planet.
func NewMercury() *Body {
	b := NewBody("mercury", "Mercury", CategoryPlanet, 3.3011e23, 2.4397e6)
	b.ParentID = "sun"
	return b
}

// NewVenus returns Earth's twin, oblateness-wise the roundest of the planets.
func NewVenus() *Body {
	b := NewBody("venus", "Venus", CategoryPlanet, 4.8675e24, 6.0518e6)
	b.ParentID = "sun"
	b.J2 = 4.458e-6
	return b
}

// NewEarth returns home.
func NewEarth() *Body {
	b := NewBody("earth", "Earth", CategoryPlanet, 5.9722e24, 6.378137e6)
	b.ParentID = "sun"
	b.J2 = 1.082626e-3
	b.Atmosphere = &AtmosphereModel{SurfaceDensity: 1.225, ScaleHeight: 8500}
	return b
}

// NewMoon returns Earth's moon.
func NewMoon() *Body {
	b := NewBody("moon", "Moon", CategoryMoon, 7.342e22, 1.7374e6)
	b.ParentID = "earth"
	b.J2 = 202.7e-6
	return b
}

// NewMars returns the red planet.
func NewMars() *Body {
	b := NewBody("mars", "Mars", CategoryPlanet, 6.4171e23, 3.39619e6)
	b.ParentID = "sun"
	b.J2 = 1.96045e-3
	b.Atmosphere = &AtmosphereModel{SurfaceDensity: 0.020, ScaleHeight: 11100}
	return b
}

// NewJupiter returns the gas giant.
func NewJupiter() *Body {
	b := NewBody("jupiter", "Jupiter", CategoryPlanet, 1.8982e27, 7.1492e7)
	b.ParentID = "sun"
	b.J2 = 1.4736e-2
	return b
}

// NewSaturn returns the ringed one.
func NewSaturn() *Body {
	b := NewBody("saturn", "Saturn", CategoryPlanet, 5.6834e26, 6.0268e7)
	b.ParentID = "sun"
	b.J2 = 1.6298e-2
	return b
}

// meanElements carries J2000 mean heliocentric ecliptic elements in degrees
// and AU, straight from Standish's table.
type meanElements struct {
	a, e, i, Ω, ϖ, L float64
}

var planetMeanElements = map[string]meanElements{
	"mercury": {0.38709927, 0.20563593, 7.00497902, 48.33076593, 77.45779628, 252.25032350},
	"venus":   {0.72333566, 0.00677672, 3.39467605, 76.67984255, 131.60246718, 181.97909950},
	"earth":   {1.00000261, 0.01671123, 0.0, 0.0, 102.93768193, 100.46457166},
	"mars":    {1.52371034, 0.09339410, 1.84969142, 49.55953891, -23.94362959, -4.55343205},
	"jupiter": {5.20288700, 0.04838624, 1.30439695, 100.47390909, 14.72847983, 34.39644051},
	"saturn":  {9.53667594, 0.05386179, 2.48599187, 113.66242448, 92.59887831, 49.95424423},
}

func wrapDeg(d float64) float64 {
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

// SolarSystem builds the Sun and the six classical naked-eye-to-telescope
// planets (plus the Moon, on a simplified orbit) in the heliocentric ecliptic
// J2000 frame, with orbital elements and state vectors at the given epoch.
func SolarSystem(epoch time.Time, k Constants, frame FrameConfig) ([]*Body, error) {
	sun := NewSun()
	bodies := []*Body{sun, NewMercury(), NewVenus(), NewEarth(), NewMoon(), NewMars(), NewJupiter(), NewSaturn()}
	for _, b := range bodies {
		switch b.ID {
		case "sun":
			continue
		case "moon":
			// Mean lunar orbit about Earth, good enough for seeding.
			oe, err := NewOrbitalElements(384748e3, 0.0549, 5.145, 0, 0, 0, NewEarth().Mass, epoch, k)
			if err != nil {
				return nil, err
			}
			b.Elements = oe
		default:
			m := planetMeanElements[b.ID]
			ω := wrapDeg(m.ϖ - m.Ω)
			M0 := wrapDeg(m.L - m.ϖ)
			oe, err := NewOrbitalElements(frame.AU2Meters(m.a), m.e, m.i, wrapDeg(m.Ω), ω, M0, sun.Mass, epoch, k)
			if err != nil {
				return nil, err
			}
			b.Elements = oe
		}
	}
	// Parents precede children in the slice, so absolute states resolve in
	// one pass.
	abs := map[string]*Body{"sun": sun}
	for _, b := range bodies {
		if b.Elements == nil {
			continue
		}
		parent, ok := abs[b.ParentID]
		if !ok {
			continue
		}
		R, V, err := b.Elements.StateAt(epoch, k)
		if err != nil {
			return nil, err
		}
		b.Position = add(parent.Position, R)
		b.Velocity = add(parent.Velocity, V)
		abs[b.ID] = b
	}
	return bodies, nil
}
