package planetary

import (
	"math"
)

// separationε is the separation guard below which perturbation terms return
// the zero vector instead of blowing up on near-coincident positions.
const separationε = 1e-6 // m

// PerturbingBody is a read-mostly projection of a Body registered with the
// perturbation model. It is refreshed by the orchestrator whenever the source
// body moves.
type PerturbingBody struct {
	ID       string
	Name     string
	Mass     float64   // kg
	Position []float64 // m, inertial
	J2       float64
	Radius   float64 // equatorial radius, m
}

// PerturbationContext carries the per-body inputs of a total perturbation
// evaluation. Optional blocks left nil make the matching term contribute
// zero, not an error.
type PerturbationContext struct {
	BodyID   string    // excluded from the third-body sum
	Position []float64 // inertial, m
	Velocity []float64 // inertial, m/s
	Mass     float64   // kg
	Central  *PerturbingBody

	Atmosphere *AtmosphereModel
	Drag       *DragProperties
	Radiation  *RadiationProperties
	SunID      string // registered radiation source; empty disables the term
}

// Perturbations computes the accelerations a body experiences beyond the
// two-body point-mass term from its central body. Each term is gated by its
// own enable flag plus data availability.
type Perturbations struct {
	ThirdBody    bool
	NonSpherical bool // J2 oblateness
	Relativistic bool
	Drag         bool
	Radiation    bool

	k     Constants
	order []string
	repo  map[string]*PerturbingBody
}

// NewPerturbations returns an empty model with only the third-body and J2
// terms enabled.
func NewPerturbations(k Constants) *Perturbations {
	return &Perturbations{
		ThirdBody:    true,
		NonSpherical: true,
		k:            k,
		repo:         make(map[string]*PerturbingBody),
	}
}

// Register adds or replaces a perturbing body snapshot.
func (p *Perturbations) Register(pb PerturbingBody) {
	pb.Position = vec3(pb.Position)
	if _, ok := p.repo[pb.ID]; !ok {
		p.order = append(p.order, pb.ID)
	}
	p.repo[pb.ID] = &pb
}

// Remove drops a perturbing body from the registry.
func (p *Perturbations) Remove(id string) {
	if _, ok := p.repo[id]; !ok {
		return
	}
	delete(p.repo, id)
	for i, other := range p.order {
		if other == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// UpdatePosition refreshes the position snapshot of a registered body.
func (p *Perturbations) UpdatePosition(id string, pos []float64) {
	if pb, ok := p.repo[id]; ok {
		copy(pb.Position, pos)
	}
}

// Has reports whether the given id is registered.
func (p *Perturbations) Has(id string) bool {
	_, ok := p.repo[id]
	return ok
}

// Len returns the number of registered perturbing bodies.
func (p *Perturbations) Len() int {
	return len(p.order)
}

// ThirdBodyAccel returns the direct plus indirect third-body acceleration on
// a body orbiting the given central body, summed over every registered
// perturber other than the central body itself.
func (p *Perturbations) ThirdBodyAccel(bodyID string, bodyPos []float64, central PerturbingBody) []float64 {
	acc := make([]float64, 3)
	for _, id := range p.order {
		if id == central.ID || id == bodyID {
			continue
		}
		pert := p.repo[id]
		scToPert := sub(pert.Position, bodyPos)
		cenToPert := sub(pert.Position, central.Position)
		dSc := norm(scToPert)
		dCen := norm(cenToPert)
		if dSc < separationε || dCen < separationε {
			// Near-coincident geometry, skip rather than blow up.
			continue
		}
		μ := p.k.G * pert.Mass
		for i := 0; i < 3; i++ {
			acc[i] += μ * (scToPert[i]/(dSc*dSc*dSc) - cenToPert[i]/(dCen*dCen*dCen))
		}
	}
	return acc
}

// J2Accel returns the oblateness acceleration from the central body, with the
// position given relative to the central body in its equatorial frame.
// Returns exactly the zero vector when the central J2 is zero.
func (p *Perturbations) J2Accel(relPos []float64, central PerturbingBody) []float64 {
	if central.J2 == 0 {
		return make([]float64, 3)
	}
	r := norm(relPos)
	if r < separationε {
		return make([]float64, 3)
	}
	μ := p.k.G * central.Mass
	x, y, z := relPos[0], relPos[1], relPos[2]
	r2 := r * r
	coef := -1.5 * central.J2 * μ * central.Radius * central.Radius / (r2 * r2 * r)
	zr2 := 5 * z * z / r2
	return []float64{
		coef * x * (1 - zr2),
		coef * y * (1 - zr2),
		coef * z * (3 - zr2),
	}
}

// RelativisticAccel returns the first-order Schwarzschild precession
// correction, with position and velocity relative to the central body.
// Returns the zero vector when the relativistic flag is disabled.
func (p *Perturbations) RelativisticAccel(relPos, relVel []float64, central PerturbingBody) []float64 {
	if !p.Relativistic {
		return make([]float64, 3)
	}
	r := norm(relPos)
	if r < separationε {
		return make([]float64, 3)
	}
	μ := p.k.G * central.Mass
	rs := 2 * μ / (p.k.C * p.k.C) // Schwarzschild radius
	v2 := normSq(relVel)
	rv := dot(relPos, relVel)
	coef := rs / (2 * r * r * r)
	acc := make([]float64, 3)
	for i := 0; i < 3; i++ {
		acc[i] = coef * ((4*μ/r-v2)*relPos[i] + 4*rv*relVel[i])
	}
	return acc
}

// DragAccel returns the atmospheric drag deceleration. The position and
// velocity are relative to the central body, which must carry an atmosphere
// model; below the surface or at negligible speed the result is zero.
func (p *Perturbations) DragAccel(relPos, relVel []float64, central PerturbingBody, atm *AtmosphereModel, drag *DragProperties, mass float64) []float64 {
	zero := make([]float64, 3)
	if atm == nil || drag == nil || mass <= 0 || atm.ScaleHeight <= 0 {
		return zero
	}
	altitude := norm(relPos) - central.Radius
	if altitude < 0 {
		return zero
	}
	speed := norm(relVel)
	if speed < separationε {
		return zero
	}
	ρ := atm.SurfaceDensity * math.Exp(-altitude/atm.ScaleHeight)
	aMag := 0.5 * ρ * speed * speed * drag.Coeff * drag.Area / mass
	return scale(-aMag, unit(relVel))
}

// RadiationAccel returns the solar radiation pressure acceleration, directed
// away from the Sun. sunToBody is the vector from the radiation source to the
// body.
func (p *Perturbations) RadiationAccel(sunToBody []float64, rad *RadiationProperties, mass float64) []float64 {
	zero := make([]float64, 3)
	if rad == nil || mass <= 0 {
		return zero
	}
	r := norm(sunToBody)
	if r < separationε {
		return zero
	}
	au := p.k.AUMeters
	pressure := p.k.SolarPressureAU * (au / r) * (au / r)
	aMag := pressure * rad.Area * (1 + rad.Reflectivity) / mass
	return scale(aMag, unit(sunToBody))
}

// Total sums every enabled perturbation term for the given context. With all
// flags disabled it returns exactly the zero vector regardless of the inputs.
func (p *Perturbations) Total(ctx PerturbationContext) []float64 {
	acc := make([]float64, 3)
	if ctx.Central == nil {
		return acc
	}
	relPos := sub(ctx.Position, ctx.Central.Position)
	if p.ThirdBody {
		acc = add(acc, p.ThirdBodyAccel(ctx.BodyID, ctx.Position, *ctx.Central))
	}
	if p.NonSpherical {
		acc = add(acc, p.J2Accel(relPos, *ctx.Central))
	}
	if p.Relativistic {
		acc = add(acc, p.RelativisticAccel(relPos, ctx.Velocity, *ctx.Central))
	}
	if p.Drag {
		acc = add(acc, p.DragAccel(relPos, ctx.Velocity, *ctx.Central, ctx.Atmosphere, ctx.Drag, ctx.Mass))
	}
	if p.Radiation && ctx.SunID != "" {
		if sun, ok := p.repo[ctx.SunID]; ok {
			acc = add(acc, p.RadiationAccel(sub(ctx.Position, sun.Position), ctx.Radiation, ctx.Mass))
		}
	}
	return acc
}

// SecularJ2Rates returns the long-term averaged nodal regression and apsidal
// rotation rates (rad/s) due to the central body's J2. Diagnostic only, the
// per-step integration never uses these.
func (p *Perturbations) SecularJ2Rates(oe OrbitalElements, central PerturbingBody) (raanRate, argPeriapsisRate float64) {
	if central.J2 == 0 {
		return 0, 0
	}
	n := oe.MeanMotion()
	pSemi := oe.SemiParameter()
	ratio := central.Radius / pSemi
	cosi := math.Cos(oe.Incl)
	raanRate = -1.5 * n * central.J2 * ratio * ratio * cosi
	argPeriapsisRate = 0.75 * n * central.J2 * ratio * ratio * (5*cosi*cosi - 1)
	return
}

// SecularThirdBodyRates returns the simplified coplanar-circular third-body
// nodal and apsidal rates (rad/s) for a perturber of the given mass on a
// circular orbit of the given radius about the same central body. Diagnostic
// only.
func (p *Perturbations) SecularThirdBodyRates(oe OrbitalElements, perturberMass, perturberRadius float64) (raanRate, argPeriapsisRate float64) {
	if perturberMass <= 0 || perturberRadius <= 0 {
		return 0, 0
	}
	n := oe.MeanMotion()
	μ3 := p.k.G * perturberMass
	n3 := math.Sqrt(μ3 / (perturberRadius * perturberRadius * perturberRadius))
	massRatio := perturberMass / (oe.CentralMass + perturberMass)
	cosi := math.Cos(oe.Incl)
	sini := math.Sin(oe.Incl)
	raanRate = -0.75 * massRatio * (n3 * n3 / n) * cosi
	argPeriapsisRate = 0.75 * massRatio * (n3 * n3 / n) * (4 - 5*sini*sini)
	return
}
