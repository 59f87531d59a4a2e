package planetary

import (
	"fmt"
	"math"

	"github.com/ChristopherRabotin/ode"
)

// BodyState is one entry of the deterministic snapshot produced and consumed
// by the N-body integrator.
type BodyState struct {
	ID           string
	Mass         float64
	Position     []float64
	Velocity     []float64
	Acceleration []float64
}

// NBody advances the full registered body set under mutual pairwise gravity
// with a configurable softening length, independent of any Keplerian
// structure. Time stepping is classic fixed-step RK4 over the flattened
// position/velocity state; every body is committed simultaneously, no body
// observes a partially updated sibling within one step.
//
// Add and Remove must only be called between steps.
type NBody struct {
	Softening    float64 // m
	Relativistic bool    // scale pairwise forces by the product of Lorentz factors

	k      Constants
	ids    []string
	index  map[string]int
	masses []float64
	pos    [][]float64
	vel    [][]float64
	acc    [][]float64
}

// NewNBody returns an empty integrator.
func NewNBody(k Constants, softening float64) *NBody {
	return &NBody{
		Softening: softening,
		k:         k,
		index:     make(map[string]int),
	}
}

// Add registers a body. A zero or negative mass is rejected: the force and Δv
// calculations divide by it.
func (nb *NBody) Add(id string, mass float64, pos, vel []float64) error {
	if mass <= 0 {
		return fmt.Errorf("%w: %q mass=%f", ErrInvalidMass, id, mass)
	}
	if _, ok := nb.index[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBody, id)
	}
	nb.index[id] = len(nb.ids)
	nb.ids = append(nb.ids, id)
	nb.masses = append(nb.masses, mass)
	nb.pos = append(nb.pos, vec3(pos))
	nb.vel = append(nb.vel, vec3(vel))
	nb.acc = append(nb.acc, make([]float64, 3))
	return nil
}

// Remove drops a body from the integrator.
func (nb *NBody) Remove(id string) error {
	i, ok := nb.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	nb.ids = append(nb.ids[:i], nb.ids[i+1:]...)
	nb.masses = append(nb.masses[:i], nb.masses[i+1:]...)
	nb.pos = append(nb.pos[:i], nb.pos[i+1:]...)
	nb.vel = append(nb.vel[:i], nb.vel[i+1:]...)
	nb.acc = append(nb.acc[:i], nb.acc[i+1:]...)
	delete(nb.index, id)
	for j := i; j < len(nb.ids); j++ {
		nb.index[nb.ids[j]] = j
	}
	return nil
}

// Len returns the number of registered bodies.
func (nb *NBody) Len() int {
	return len(nb.ids)
}

// Has reports whether the given id is registered.
func (nb *NBody) Has(id string) bool {
	_, ok := nb.index[id]
	return ok
}

// SetBodyState overwrites the position and velocity of a registered body.
// Used when reseeding the integrator from an external propagation mode.
func (nb *NBody) SetBodyState(id string, pos, vel []float64) error {
	i, ok := nb.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	copy(nb.pos[i], pos)
	copy(nb.vel[i], vel)
	return nil
}

// StateOf returns the snapshot of a single body.
func (nb *NBody) StateOf(id string) (BodyState, error) {
	i, ok := nb.index[id]
	if !ok {
		return BodyState{}, fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	return BodyState{
		ID:           id,
		Mass:         nb.masses[i],
		Position:     vec3(nb.pos[i]),
		Velocity:     vec3(nb.vel[i]),
		Acceleration: vec3(nb.acc[i]),
	}, nil
}

// State returns the full deterministic snapshot, in registration order.
func (nb *NBody) State() []BodyState {
	states := make([]BodyState, len(nb.ids))
	for i, id := range nb.ids {
		states[i] = BodyState{
			ID:           id,
			Mass:         nb.masses[i],
			Position:     vec3(nb.pos[i]),
			Velocity:     vec3(nb.vel[i]),
			Acceleration: vec3(nb.acc[i]),
		}
	}
	return states
}

// Restore replaces the whole registry with the given snapshot.
func (nb *NBody) Restore(states []BodyState) error {
	fresh := NewNBody(nb.k, nb.Softening)
	fresh.Relativistic = nb.Relativistic
	for _, st := range states {
		if err := fresh.Add(st.ID, st.Mass, st.Position, st.Velocity); err != nil {
			return err
		}
	}
	*nb = *fresh
	return nil
}

// lorentz returns the Lorentz factor γ for the given velocity, clamped just
// below the light-speed singularity.
func (nb *NBody) lorentz(v []float64) float64 {
	β2 := normSq(v) / (nb.k.C * nb.k.C)
	if β2 >= 1 {
		β2 = 1 - 1e-15
	}
	return 1 / math.Sqrt(1-β2)
}

// accelerationsAt evaluates the pairwise gravitational accelerations for the
// given positions and velocities. Newton's third law is applied pairwise, so
// the double loop does O(n²/2) force evaluations.
func (nb *NBody) accelerationsAt(pos, vel [][]float64) [][]float64 {
	n := len(nb.ids)
	acc := make([][]float64, n)
	for i := range acc {
		acc[i] = make([]float64, 3)
	}
	s2 := nb.Softening * nb.Softening
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sub(pos[j], pos[i])
			r2 := normSq(d)
			r := math.Sqrt(r2)
			if r < separationε {
				continue
			}
			// F = G·m₁·m₂/(r²+s²) along the unit separation vector.
			f := nb.k.G / ((r2 + s2) * r)
			if nb.Relativistic {
				f *= nb.lorentz(vel[i]) * nb.lorentz(vel[j])
			}
			for c := 0; c < 3; c++ {
				acc[i][c] += f * nb.masses[j] * d[c]
				acc[j][c] -= f * nb.masses[i] * d[c]
			}
		}
	}
	return acc
}

// ComputeAccelerations evaluates and commits the accelerations for the
// current positions and velocities, and returns the committed values.
func (nb *NBody) ComputeAccelerations() [][]float64 {
	nb.acc = nb.accelerationsAt(nb.pos, nb.vel)
	out := make([][]float64, len(nb.acc))
	for i := range nb.acc {
		out[i] = vec3(nb.acc[i])
	}
	return out
}

// Step advances every body by exactly one RK4 step of the given size.
func (nb *NBody) Step(Δt float64) error {
	if Δt < 0 {
		return fmt.Errorf("negative time step %f", Δt)
	}
	if Δt == 0 || len(nb.ids) == 0 {
		return nil
	}
	ode.NewRK4(0, Δt, nb).Solve() // Blocking.
	// Commit the accelerations of the final state.
	nb.acc = nb.accelerationsAt(nb.pos, nb.vel)
	return nil
}

// GetState implements ode.Integrable over the flattened 6n state.
func (nb *NBody) GetState() []float64 {
	s := make([]float64, 6*len(nb.ids))
	for i := range nb.ids {
		for c := 0; c < 3; c++ {
			s[6*i+c] = nb.pos[i][c]
			s[6*i+3+c] = nb.vel[i][c]
		}
	}
	return s
}

// SetState implements ode.Integrable.
func (nb *NBody) SetState(t float64, s []float64) {
	for i := range nb.ids {
		for c := 0; c < 3; c++ {
			nb.pos[i][c] = s[6*i+c]
			nb.vel[i][c] = s[6*i+3+c]
		}
	}
}

// Stop implements ode.Integrable: a Step call runs exactly one RK4 step.
func (nb *NBody) Stop(t float64) bool {
	return t > 0
}

// Func implements ode.Integrable: the derivative of position is velocity, the
// derivative of velocity is the pairwise gravitational acceleration.
func (nb *NBody) Func(t float64, f []float64) []float64 {
	n := len(nb.ids)
	pos := make([][]float64, n)
	vel := make([][]float64, n)
	for i := 0; i < n; i++ {
		pos[i] = f[6*i : 6*i+3]
		vel[i] = f[6*i+3 : 6*i+6]
	}
	acc := nb.accelerationsAt(pos, vel)
	fDot := make([]float64, 6*n)
	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			fDot[6*i+c] = vel[i][c]
			fDot[6*i+3+c] = acc[i][c]
		}
	}
	return fDot
}

// TotalEnergy returns the kinetic plus pairwise potential energy of the
// system, with the potential computed over the softened separations.
func (nb *NBody) TotalEnergy() float64 {
	var kinetic, potential float64
	n := len(nb.ids)
	s2 := nb.Softening * nb.Softening
	for i := 0; i < n; i++ {
		kinetic += 0.5 * nb.masses[i] * normSq(nb.vel[i])
		for j := i + 1; j < n; j++ {
			r := math.Sqrt(normSq(sub(nb.pos[j], nb.pos[i])) + s2)
			if r < separationε {
				continue
			}
			potential -= nb.k.G * nb.masses[i] * nb.masses[j] / r
		}
	}
	return kinetic + potential
}

// CenterOfMass returns the mass-weighted position and velocity of the system.
func (nb *NBody) CenterOfMass() (pos, vel []float64) {
	pos = make([]float64, 3)
	vel = make([]float64, 3)
	var total float64
	for i := range nb.ids {
		total += nb.masses[i]
		for c := 0; c < 3; c++ {
			pos[c] += nb.masses[i] * nb.pos[i][c]
			vel[c] += nb.masses[i] * nb.vel[i][c]
		}
	}
	if total == 0 {
		return pos, vel
	}
	for c := 0; c < 3; c++ {
		pos[c] /= total
		vel[c] /= total
	}
	return pos, vel
}
