package planetary

import (
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 5e-7 // below this the orbit is treated as circular
	angleε        = (5e-3 / 360) * (2 * math.Pi)
	// keplerIterations is plenty for Newton-Raphson below e=0.9 with E₀=M.
	keplerIterations = 10
	keplerResidualε  = 1e-10
)

// OrbitalElements defines a closed orbit about a central mass via the six
// classical elements at a reference epoch. Angles are stored in radians,
// distances in meters. Period, SemiMajorAxis and CentralMass are kept
// mutually consistent through Kepler's third law when the period is derived.
type OrbitalElements struct {
	SemiMajorAxis float64   // a, m
	Ecc           float64   // e
	Incl          float64   // i, rad
	RAAN          float64   // Ω, rad
	ArgPeriapsis  float64   // ω, rad
	MeanAnomaly0  float64   // M₀ at Epoch, rad
	Epoch         time.Time // absolute time reference of M₀
	Period        float64   // T, s
	CentralMass   float64   // kg
}

// NewOrbitalElements creates a validated element set. The period is derived
// from Kepler's third law.
// WARNING: Angles must be in degrees not radian.
func NewOrbitalElements(a, e, i, Ω, ω, M0 float64, centralMass float64, epoch time.Time, k Constants) (*OrbitalElements, error) {
	if a <= 0 {
		return nil, fmt.Errorf("%w: semi-major axis %f", ErrInvalidElements, a)
	}
	if centralMass <= 0 {
		return nil, fmt.Errorf("%w: central mass %f", ErrInvalidElements, centralMass)
	}
	if e < 0 {
		return nil, fmt.Errorf("%w: eccentricity %f", ErrInvalidElements, e)
	}
	if e >= 1 {
		return nil, fmt.Errorf("%w: eccentricity %f", ErrUnboundOrbit, e)
	}
	μ := k.G * centralMass
	oe := &OrbitalElements{
		SemiMajorAxis: a,
		Ecc:           e,
		Incl:          Deg2rad(i),
		RAAN:          Deg2rad(Ω),
		ArgPeriapsis:  Deg2rad(ω),
		MeanAnomaly0:  Deg2rad(M0),
		Epoch:         epoch.UTC(),
		Period:        2 * math.Pi * math.Sqrt(a*a*a/μ),
		CentralMass:   centralMass,
	}
	return oe, nil
}

// MeanMotion returns the mean motion n in rad/s.
func (oe *OrbitalElements) MeanMotion() float64 {
	return 2 * math.Pi / oe.Period
}

// SemiParameter returns the semi-latus rectum p.
func (oe *OrbitalElements) SemiParameter() float64 {
	return oe.SemiMajorAxis * (1 - oe.Ecc*oe.Ecc)
}

// Apoapsis returns the apoapsis radius.
func (oe *OrbitalElements) Apoapsis() float64 {
	return oe.SemiMajorAxis * (1 + oe.Ecc)
}

// Periapsis returns the periapsis radius.
func (oe *OrbitalElements) Periapsis() float64 {
	return oe.SemiMajorAxis * (1 - oe.Ecc)
}

// SpecificEnergy returns the specific mechanical energy ξ.
func (oe *OrbitalElements) SpecificEnergy(k Constants) float64 {
	return -k.G * oe.CentralMass / (2 * oe.SemiMajorAxis)
}

// PeriodDuration returns the orbital period as a time.Duration.
func (oe *OrbitalElements) PeriodDuration() time.Duration {
	// The time package does not trivially handle fractions of a second, so
	// let's compute this in a convoluted way...
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", oe.Period))
	return duration
}

// MeanAnomalyAt returns the mean anomaly at the given time, wrapped to [0, 2π).
func (oe *OrbitalElements) MeanAnomalyAt(dt time.Time) float64 {
	Δt := dt.Sub(oe.Epoch).Seconds()
	M := math.Mod(oe.MeanAnomaly0+2*math.Pi*Δt/oe.Period, 2*math.Pi)
	if M < 0 {
		M += 2 * math.Pi
	}
	return M
}

// solveKepler solves E - e·sin(E) = M for the eccentric anomaly E via
// Newton-Raphson with a fixed iteration count and initial guess E₀ = M.
func solveKepler(M, e float64) (float64, error) {
	E := M
	for iter := 0; iter < keplerIterations; iter++ {
		E -= (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
	}
	if math.IsNaN(E) || math.Abs(E-e*math.Sin(E)-M) > keplerResidualε {
		return 0, fmt.Errorf("%w: M=%f e=%f", ErrKeplerNoConvergence, M, e)
	}
	return E, nil
}

// StateAt returns the inertial position and velocity of the orbiting body at
// the given time, relative to the central body.
func (oe *OrbitalElements) StateAt(dt time.Time, k Constants) (R, V []float64, err error) {
	if oe.Ecc >= 1 {
		return nil, nil, fmt.Errorf("%w: eccentricity %f", ErrUnboundOrbit, oe.Ecc)
	}
	M := oe.MeanAnomalyAt(dt)
	E, err := solveKepler(M, oe.Ecc)
	if err != nil {
		return nil, nil, err
	}
	e := oe.Ecc
	sinE2, cosE2 := math.Sincos(E / 2)
	ν := 2 * math.Atan2(math.Sqrt(1+e)*sinE2, math.Sqrt(1-e)*cosE2)
	r := oe.SemiMajorAxis * (1 - e*math.Cos(E))
	p := oe.SemiParameter()
	μ := k.G * oe.CentralMass
	sinν, cosν := math.Sincos(ν)
	vFac := math.Sqrt(μ / p)
	Rpqw := []float64{r * cosν, r * sinν, 0}
	Vpqw := []float64{-vFac * sinν, vFac * (e + cosν), 0}
	R = PQW2ECI(oe.Incl, oe.ArgPeriapsis, oe.RAAN, Rpqw)
	V = PQW2ECI(oe.Incl, oe.ArgPeriapsis, oe.RAAN, Vpqw)
	return R, V, nil
}

// ElementsFromRV returns the osculating orbital elements of the given state
// vectors about a central mass. This is how an N-body propagated body is
// re-expressed analytically for display or mode switching.
// From Vallado's RV2COE, page 113.
func ElementsFromRV(R, V []float64, centralMass float64, epoch time.Time, k Constants) (*OrbitalElements, error) {
	if centralMass <= 0 {
		return nil, fmt.Errorf("%w: central mass %f", ErrInvalidElements, centralMass)
	}
	μ := k.G * centralMass
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	if r == 0 {
		return nil, fmt.Errorf("%w: zero radius", ErrInvalidElements)
	}
	ξ := v*v/2 - μ/r
	a := -μ / (2 * ξ)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - dot(R, V)*V[i]) / μ
	}
	e := norm(eVec)
	if e >= 1 || a <= 0 {
		return nil, fmt.Errorf("%w: e=%f a=%f", ErrUnboundOrbit, e, a)
	}
	i := math.Acos(hVec[2] / norm(hVec))
	Ω := math.Acos(n[0] / norm(n))
	if math.IsNaN(Ω) {
		// Equatorial orbit, the node line is undefined.
		Ω = 0
	} else if n[1] < 0 {
		Ω = 2*math.Pi - Ω
	}
	var ω, ν float64
	if e < eccentricityε {
		// Circular orbit: measure position from the node line instead of the
		// undefined periapsis.
		ω = 0
		if norm(n) < normε {
			// Circular equatorial, use the true longitude.
			ν = math.Atan2(R[1], R[0])
		} else {
			ν = math.Acos(dot(n, R) / (norm(n) * r))
			if R[2] < 0 {
				ν = 2*math.Pi - ν
			}
		}
		if ν < 0 {
			ν += 2 * math.Pi
		}
	} else {
		ω = math.Acos(dot(n, eVec) / (norm(n) * e))
		if math.IsNaN(ω) {
			ω = 0
		} else if eVec[2] < 0 {
			ω = 2*math.Pi - ω
		}
		cosν := dot(eVec, R) / (e * r)
		if abscosν := math.Abs(cosν); abscosν > 1 && floats.EqualWithinAbs(abscosν, 1, 1e-12) {
			// Welcome to the edge case which took about 1.5 hours of my time.
			cosν = sign(cosν)
		}
		ν = math.Acos(cosν)
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	}
	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)
	// Back out the mean anomaly at epoch through the eccentric anomaly.
	sinν, cosν := math.Sincos(ν)
	denom := 1 + e*cosν
	E := math.Atan2(math.Sqrt(1-e*e)*sinν/denom, (e+cosν)/denom)
	M0 := math.Mod(E-e*math.Sin(E), 2*math.Pi)
	if M0 < 0 {
		M0 += 2 * math.Pi
	}
	return &OrbitalElements{
		SemiMajorAxis: a,
		Ecc:           e,
		Incl:          i,
		RAAN:          Ω,
		ArgPeriapsis:  ω,
		MeanAnomaly0:  M0,
		Epoch:         epoch.UTC(),
		Period:        2 * math.Pi * math.Sqrt(a*a*a/μ),
		CentralMass:   centralMass,
	}, nil
}

// String implements the Stringer interface.
func (oe OrbitalElements) String() string {
	return fmt.Sprintf("a=%.1f e=%.6f i=%.3f Ω=%.3f ω=%.3f M₀=%.3f", oe.SemiMajorAxis, oe.Ecc,
		Rad2deg(oe.Incl), Rad2deg(oe.RAAN), Rad2deg(oe.ArgPeriapsis), Rad2deg(oe.MeanAnomaly0))
}

// Equals returns whether two element sets describe the same orbit geometry.
func (oe OrbitalElements) Equals(o1 OrbitalElements) (bool, error) {
	if !floats.EqualWithinAbs(oe.SemiMajorAxis, o1.SemiMajorAxis, 20) {
		return false, fmt.Errorf("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(oe.Ecc, o1.Ecc, 5e-5) {
		return false, fmt.Errorf("eccentricity invalid")
	}
	if !floats.EqualWithinAbs(oe.Incl, o1.Incl, angleε) {
		return false, fmt.Errorf("inclination invalid")
	}
	if !floats.EqualWithinAbs(oe.RAAN, o1.RAAN, angleε) {
		return false, fmt.Errorf("RAAN invalid")
	}
	if oe.Ecc >= eccentricityε && !floats.EqualWithinAbs(oe.ArgPeriapsis, o1.ArgPeriapsis, angleε) {
		return false, fmt.Errorf("argument of periapsis invalid")
	}
	return true, nil
}
