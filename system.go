package planetary

import (
	"fmt"
	"math"
	"time"

	"github.com/go-kit/kit/log"
)

/* Handles the per-tick propagation of the whole body set. */

// System owns the body registry, advances simulated time and selects the
// propagation strategy per tick. It is single-threaded and frame-driven:
// Update is invoked once per tick by the surrounding application loop and
// must complete before the next tick; readers only touch state between ticks.
type System struct {
	k      Constants
	frame  FrameConfig
	logger log.Logger

	time             time.Time
	timeScale        float64
	step             float64
	paused           bool
	useNBody         bool
	usePerturbations bool
	softening        float64
	relativistic     bool
	sunID            string // radiation-pressure source

	bodies   map[string]*Body
	order    []string
	children map[string][]string

	integrator *NBody
	perts      *Perturbations
}

// NewSystem creates an empty simulation from the given configuration.
func NewSystem(cfg Config, logger log.Logger) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &System{
		k:                cfg.Constants,
		frame:            cfg.Frame,
		logger:           logger,
		time:             cfg.Start.UTC(),
		timeScale:        cfg.TimeScale,
		step:             cfg.Step,
		useNBody:         cfg.UseNBody,
		usePerturbations: cfg.UsePerturbations,
		softening:        cfg.Softening,
		relativistic:     cfg.Relativistic,
		bodies:           make(map[string]*Body),
		children:         make(map[string][]string),
		integrator:       NewNBody(cfg.Constants, cfg.Softening),
		perts:            NewPerturbations(cfg.Constants),
	}
	s.integrator.Relativistic = cfg.Relativistic
	s.perts.Relativistic = cfg.Relativistic
	return s, nil
}

// Constants returns the physical constants in use.
func (s *System) Constants() Constants {
	return s.k
}

// Frame returns the coordinate frame configuration.
func (s *System) Frame() FrameConfig {
	return s.frame
}

// Perturbations exposes the perturbation model for term-flag configuration.
// Only mutate it between ticks.
func (s *System) Perturbations() *Perturbations {
	return s.perts
}

// Integrator exposes the N-body integrator for diagnostics.
func (s *System) Integrator() *NBody {
	return s.integrator
}

// AddBody registers a body with the orchestrator, the N-body integrator and,
// when it is a gravity source or carries oblateness, the perturbation model.
// Validation happens before any registry is touched, so a failed add leaves
// every registry unchanged.
func (s *System) AddBody(b *Body) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, ok := s.bodies[b.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBody, b.ID)
	}
	if err := s.checkParentChain(b.ID, b.ParentID); err != nil {
		return err
	}
	if err := s.integrator.Add(b.ID, b.Mass, b.Position, b.Velocity); err != nil {
		return err
	}
	if b.GravitySource || b.HasOblateness() {
		s.perts.Register(b.perturbingEntry())
	}
	s.bodies[b.ID] = b
	s.order = append(s.order, b.ID)
	if s.sunID == "" && b.Category == CategoryStar {
		s.sunID = b.ID
	}
	s.rebuildHierarchy()
	s.logger.Log("level", "info", "subsys", "sim", "added", b.ID, "category", b.Category, "mass(kg)", b.Mass)
	return nil
}

// RemoveBody drops a body from all three registries atomically; the body is
// never referenced by the integrator after this returns.
func (s *System) RemoveBody(id string) error {
	if _, ok := s.bodies[id]; !ok {
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	if err := s.integrator.Remove(id); err != nil {
		// The orchestrator knew the body but the integrator did not.
		return fmt.Errorf("%w: %q missing from integrator", ErrRegistriesOutOfSync, id)
	}
	s.perts.Remove(id)
	delete(s.bodies, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.sunID == id {
		s.sunID = ""
		for _, other := range s.order {
			if s.bodies[other].Category == CategoryStar {
				s.sunID = other
				break
			}
		}
	}
	s.rebuildHierarchy()
	s.logger.Log("level", "info", "subsys", "sim", "removed", id)
	return nil
}

// Body returns a registered body.
func (s *System) Body(id string) (*Body, error) {
	b, ok := s.bodies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	return b, nil
}

// Bodies returns every registered body in registration order.
func (s *System) Bodies() []*Body {
	out := make([]*Body, len(s.order))
	for i, id := range s.order {
		out[i] = s.bodies[id]
	}
	return out
}

// Children returns the ids of the bodies whose parent is the given id, as of
// the latest hierarchy rebuild.
func (s *System) Children(id string) []string {
	return append([]string(nil), s.children[id]...)
}

// Roots returns the ids of the bodies with no resolvable parent.
func (s *System) Roots() (roots []string) {
	for _, id := range s.order {
		if s.parentOf(s.bodies[id]) == nil {
			roots = append(roots, id)
		}
	}
	return
}

// SetParent reassigns a body's parent reference, rejecting cycles.
func (s *System) SetParent(id, parentID string) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	if err := s.checkParentChain(id, parentID); err != nil {
		return err
	}
	b.ParentID = parentID
	s.rebuildHierarchy()
	return nil
}

// checkParentChain walks the parent chain starting at parentID and rejects a
// loop back onto id. An unresolvable parent is fine: the body is a root.
func (s *System) checkParentChain(id, parentID string) error {
	seen := map[string]bool{id: true}
	for parentID != "" {
		if seen[parentID] {
			return fmt.Errorf("%w: via %q", ErrParentCycle, parentID)
		}
		seen[parentID] = true
		next, ok := s.bodies[parentID]
		if !ok {
			return nil
		}
		parentID = next.ParentID
	}
	return nil
}

func (s *System) parentOf(b *Body) *Body {
	if b.ParentID == "" || b.ParentID == b.ID {
		return nil
	}
	return s.bodies[b.ParentID]
}

// Time returns the current absolute simulation time.
func (s *System) Time() time.Time {
	return s.time
}

// TimeScale returns the real-to-simulated seconds multiplier.
func (s *System) TimeScale() float64 {
	return s.timeScale
}

// SetTimeScale updates the time scale; negative values are rejected and the
// state is left unchanged.
func (s *System) SetTimeScale(scale float64) error {
	if scale < 0 {
		return fmt.Errorf("%w: %f", ErrNegativeTimeScale, scale)
	}
	s.timeScale = scale
	return nil
}

// Step returns the default integrator step in seconds. It is the tick length
// a driver should pass to Update when it has no cadence of its own; Update
// itself takes the step per call.
func (s *System) Step() float64 {
	return s.step
}

// SetStep updates the default integrator step; non-positive values are
// rejected and the state is left unchanged.
func (s *System) SetStep(step float64) error {
	if step <= 0 {
		return fmt.Errorf("%w: %f", ErrInvalidTimeStep, step)
	}
	s.step = step
	return nil
}

// Paused reports whether the simulation is paused.
func (s *System) Paused() bool {
	return s.paused
}

// Pause stops further time advancement.
func (s *System) Pause() {
	if !s.paused {
		s.paused = true
		s.logger.Log("level", "info", "subsys", "sim", "status", "paused", "date", s.time)
	}
}

// Resume restarts time advancement.
func (s *System) Resume() {
	if s.paused {
		s.paused = false
		s.logger.Log("level", "info", "subsys", "sim", "status", "running", "date", s.time)
	}
}

// TogglePause flips between Running and Paused.
func (s *System) TogglePause() {
	if s.paused {
		s.Resume()
	} else {
		s.Pause()
	}
}

// UseNBody reports whether direct N-body integration is active.
func (s *System) UseNBody() bool {
	return s.useNBody
}

// SetNBody switches the propagation mode, reseeding the destination
// propagator from the current body states.
func (s *System) SetNBody(enabled bool) {
	if enabled == s.useNBody {
		return
	}
	s.useNBody = enabled
	if enabled {
		s.reseedNBody()
	} else {
		s.reseedKeplerian()
	}
	s.logger.Log("level", "notice", "subsys", "sim", "nbody", enabled, "date", s.time)
}

// ToggleNBody flips the propagation mode.
func (s *System) ToggleNBody() {
	s.SetNBody(!s.useNBody)
}

// UsePerturbations reports whether the Keplerian mode applies perturbation
// accelerations.
func (s *System) UsePerturbations() bool {
	return s.usePerturbations
}

// SetPerturbationsEnabled toggles the perturbation kick of the Keplerian mode.
func (s *System) SetPerturbationsEnabled(enabled bool) {
	s.usePerturbations = enabled
}

// Softening returns the N-body softening length.
func (s *System) Softening() float64 {
	return s.softening
}

// SetSoftening updates the softening length; negative values are rejected.
func (s *System) SetSoftening(length float64) error {
	if length < 0 {
		return fmt.Errorf("%w: %f", ErrNegativeSoftening, length)
	}
	s.softening = length
	s.integrator.Softening = length
	return nil
}

// Relativistic reports whether relativistic corrections are enabled.
func (s *System) Relativistic() bool {
	return s.relativistic
}

// SetRelativistic gates both the N-body Lorentz force scaling and the
// Schwarzschild perturbation term.
func (s *System) SetRelativistic(enabled bool) {
	s.relativistic = enabled
	s.integrator.Relativistic = enabled
	s.perts.Relativistic = enabled
}

// SetGravitationalConstant overrides G across every component.
func (s *System) SetGravitationalConstant(g float64) error {
	if g <= 0 {
		return fmt.Errorf("non-positive gravitational constant %f", g)
	}
	s.k.G = g
	s.integrator.k.G = g
	s.perts.k.G = g
	return nil
}

// Update advances the simulation by the given real elapsed seconds, scaled by
// the time scale. It is a strict no-op while paused. One Update call is an
// indivisible unit: partial RK4 stages are never observable.
func (s *System) Update(deltaTime float64) error {
	if s.paused {
		return nil
	}
	if deltaTime < 0 {
		return fmt.Errorf("negative delta time %f", deltaTime)
	}
	if err := s.checkRegistries(); err != nil {
		return err
	}
	Δt := deltaTime * s.timeScale
	if Δt == 0 {
		return nil
	}
	s.time = s.time.Add(time.Duration(Δt * float64(time.Second)))
	if s.useNBody {
		if err := s.stepNBody(Δt); err != nil {
			return err
		}
	} else {
		s.stepKeplerian(Δt)
	}
	s.refreshPerturbers()
	s.rebuildHierarchy()
	return nil
}

// stepNBody delegates to the RK4 integrator and copies the resulting state
// back onto each body.
func (s *System) stepNBody(Δt float64) error {
	if err := s.integrator.Step(Δt); err != nil {
		return err
	}
	for _, id := range s.order {
		st, err := s.integrator.StateOf(id)
		if err != nil {
			return fmt.Errorf("%w: %q missing from integrator", ErrRegistriesOutOfSync, id)
		}
		b := s.bodies[id]
		copy(b.Position, st.Position)
		copy(b.Velocity, st.Velocity)
		copy(b.Acceleration, st.Acceleration)
	}
	return nil
}

// stepKeplerian propagates each body analytically from its orbital elements,
// parents before children, then integrates the perturbation acceleration into
// the velocity. Bodies without elements drift ballistically.
func (s *System) stepKeplerian(Δt float64) {
	done := make(map[string]bool, len(s.order))
	var visit func(id string)
	visit = func(id string) {
		if done[id] {
			return
		}
		done[id] = true
		b := s.bodies[id]
		parent := s.parentOf(b)
		if parent != nil {
			visit(parent.ID)
		}
		propagated := false
		if b.Elements != nil && parent != nil {
			R, V, err := b.Elements.StateAt(s.time, s.k)
			if err != nil {
				s.logger.Log("level", "warning", "subsys", "kepler", "body", id, "err", err)
			} else {
				b.Position = add(parent.Position, R)
				b.Velocity = add(parent.Velocity, V)
				propagated = true
			}
		}
		if !propagated {
			b.Position = add(b.Position, scale(Δt, b.Velocity))
		}
		if s.usePerturbations && parent != nil {
			central := parent.perturbingEntry()
			acc := s.perts.Total(PerturbationContext{
				BodyID:     id,
				Position:   b.Position,
				Velocity:   b.Velocity,
				Mass:       b.Mass,
				Central:    &central,
				Atmosphere: parent.Atmosphere,
				Drag:       b.Drag,
				Radiation:  b.Radiation,
				SunID:      s.sunID,
			})
			b.Velocity = add(b.Velocity, scale(Δt, acc))
			b.Acceleration = acc
		} else {
			b.Acceleration = make([]float64, 3)
		}
	}
	for _, id := range s.order {
		visit(id)
	}
}

// reseedNBody pushes the current body states into the integrator when
// entering N-body mode.
func (s *System) reseedNBody() {
	for _, id := range s.order {
		b := s.bodies[id]
		s.integrator.SetBodyState(id, b.Position, b.Velocity)
	}
}

// reseedKeplerian re-derives osculating elements from the current state
// vectors when leaving N-body mode. Bodies without a resolvable parent, or on
// an unbound trajectory, carry no elements and stay ballistic.
func (s *System) reseedKeplerian() {
	for _, id := range s.order {
		b := s.bodies[id]
		parent := s.parentOf(b)
		if parent == nil {
			b.Elements = nil
			continue
		}
		oe, err := ElementsFromRV(sub(b.Position, parent.Position), sub(b.Velocity, parent.Velocity), parent.Mass, s.time, s.k)
		if err != nil {
			s.logger.Log("level", "warning", "subsys", "kepler", "body", id, "err", err)
			b.Elements = nil
			continue
		}
		b.Elements = oe
	}
}

// refreshPerturbers pushes the latest positions into the perturbing-body
// snapshots.
func (s *System) refreshPerturbers() {
	for _, id := range s.order {
		if s.perts.Has(id) {
			s.perts.UpdatePosition(id, s.bodies[id].Position)
		}
	}
}

// rebuildHierarchy replaces the parent/child snapshot wholesale from the flat
// parent ids. O(n), never patched incrementally.
func (s *System) rebuildHierarchy() {
	s.children = make(map[string][]string, len(s.order))
	for _, id := range s.order {
		if parent := s.parentOf(s.bodies[id]); parent != nil {
			s.children[parent.ID] = append(s.children[parent.ID], id)
		}
	}
}

// checkRegistries audits the synchronization invariant across the three body
// registries. A mismatch is an internal invariant violation, not a
// recoverable user error.
func (s *System) checkRegistries() error {
	if s.integrator.Len() != len(s.order) {
		return fmt.Errorf("%w: %d bodies vs %d in integrator", ErrRegistriesOutOfSync, len(s.order), s.integrator.Len())
	}
	for _, id := range s.order {
		b := s.bodies[id]
		if !s.integrator.Has(id) {
			return fmt.Errorf("%w: %q missing from integrator", ErrRegistriesOutOfSync, id)
		}
		if (b.GravitySource || b.HasOblateness()) != s.perts.Has(id) {
			return fmt.Errorf("%w: %q perturbing registration mismatch", ErrRegistriesOutOfSync, id)
		}
	}
	return nil
}

// TotalMass returns the summed mass of every registered body.
func (s *System) TotalMass() float64 {
	var total float64
	for _, id := range s.order {
		total += s.bodies[id].Mass
	}
	return total
}

// CenterOfMass returns the mass-weighted position and velocity of the system.
func (s *System) CenterOfMass() (pos, vel []float64) {
	pos = make([]float64, 3)
	vel = make([]float64, 3)
	var total float64
	for _, id := range s.order {
		b := s.bodies[id]
		total += b.Mass
		for c := 0; c < 3; c++ {
			pos[c] += b.Mass * b.Position[c]
			vel[c] += b.Mass * b.Velocity[c]
		}
	}
	if total == 0 {
		return
	}
	for c := 0; c < 3; c++ {
		pos[c] /= total
		vel[c] /= total
	}
	return
}

// TotalAngularMomentum returns the summed angular momentum Σ m·(r × v) about
// the origin.
func (s *System) TotalAngularMomentum() []float64 {
	L := make([]float64, 3)
	for _, id := range s.order {
		b := s.bodies[id]
		L = add(L, scale(b.Mass, cross(b.Position, b.Velocity)))
	}
	return L
}

// TotalEnergy returns kinetic plus pairwise potential energy of the body set,
// using the configured softening in the potential.
func (s *System) TotalEnergy() float64 {
	var kinetic, potential float64
	s2 := s.softening * s.softening
	for i, id := range s.order {
		b := s.bodies[id]
		kinetic += 0.5 * b.Mass * normSq(b.Velocity)
		for _, otherID := range s.order[i+1:] {
			o := s.bodies[otherID]
			r := math.Sqrt(normSq(sub(o.Position, b.Position)) + s2)
			if r < separationε {
				continue
			}
			potential -= s.k.G * b.Mass * o.Mass / r
		}
	}
	return kinetic + potential
}
