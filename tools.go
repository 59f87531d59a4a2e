package planetary

import (
	"fmt"
	"math"
	"time"
)

// Hohmann computes the departure and arrival Δv magnitudes and the time of
// flight for a two-burn transfer between circular coplanar orbits of radii
// rInit and rFinal about a central body of the given mass. Radii in meters,
// Δv in meters per second.
func Hohmann(rInit, rFinal, centralMass float64, k Constants) (ΔvInit, ΔvFinal float64, tof time.Duration, err error) {
	if rInit <= 0 || rFinal <= 0 {
		return 0, 0, 0, fmt.Errorf("non-positive orbit radius")
	}
	if centralMass <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: %f", ErrInvalidMass, centralMass)
	}
	μ := k.G * centralMass
	aTransfer := 0.5 * (rInit + rFinal)
	vInit := math.Sqrt(μ / rInit)
	vFinal := math.Sqrt(μ / rFinal)
	vDeparture := math.Sqrt(μ * (2/rInit - 1/aTransfer))
	vArrival := math.Sqrt(μ * (2/rFinal - 1/aTransfer))
	ΔvInit = math.Abs(vDeparture - vInit)
	ΔvFinal = math.Abs(vFinal - vArrival)
	seconds := math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/μ)
	tof = time.Duration(seconds * float64(time.Second))
	return
}

// EscapeVelocity returns the escape speed from the surface of a body.
func EscapeVelocity(b *Body, k Constants) float64 {
	if b.Radius == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(2 * k.G * b.Mass / b.Radius)
}

// SphereOfInfluence returns the radius within which a body dominates the
// gravity of its primary, given the orbit semi-major axis about that primary.
func SphereOfInfluence(a, bodyMass, primaryMass float64) float64 {
	return a * math.Pow(bodyMass/primaryMass, 2.0/5)
}
