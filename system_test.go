package planetary

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func newTestSystem(t *testing.T) *System {
	t.Helper()
	s, err := NewSystem(DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// earthSunSystem returns a Keplerian-mode system with the Sun at the origin
// and the Earth on a circular heliocentric orbit.
func earthSunSystem(t *testing.T) *System {
	t.Helper()
	s := newTestSystem(t)
	sun := NewSun()
	if err := s.AddBody(sun); err != nil {
		t.Fatal(err)
	}
	earth := NewEarth()
	oe, err := NewOrbitalElements(1.496e11, 0, 0, 0, 0, 0, sun.Mass, s.Time(), s.Constants())
	if err != nil {
		t.Fatal(err)
	}
	earth.Elements = oe
	R, V, err := oe.StateAt(s.Time(), s.Constants())
	if err != nil {
		t.Fatal(err)
	}
	earth.Position = R
	earth.Velocity = V
	if err := s.AddBody(earth); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSystem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = -1
	if _, err := NewSystem(cfg, nil); err == nil {
		t.Fatal("invalid config should be rejected")
	}
	s := newTestSystem(t)
	if s.Paused() || s.UseNBody() || !s.UsePerturbations() {
		t.Fatal("unexpected initial state")
	}
	if s.Time() != J2000() {
		t.Fatalf("start time = %s", s.Time())
	}
}

func TestAddRemoveBody(t *testing.T) {
	s := newTestSystem(t)
	bad := NewBody("x", "X", CategoryGeneric, -1, 1)
	if err := s.AddBody(bad); !errors.Is(err, ErrInvalidMass) {
		t.Fatalf("invalid body should be rejected, got %v", err)
	}
	// A failed add touches no registry.
	if len(s.Bodies()) != 0 || s.Integrator().Len() != 0 || s.Perturbations().Len() != 0 {
		t.Fatal("failed add leaked into a registry")
	}
	earth := NewEarth()
	earth.ParentID = ""
	if err := s.AddBody(earth); err != nil {
		t.Fatal(err)
	}
	if err := s.AddBody(NewEarth()); !errors.Is(err, ErrDuplicateBody) {
		t.Fatalf("duplicate id should be rejected, got %v", err)
	}
	sat := NewBody("sat", "Sat", CategorySpacecraft, 1000, 1)
	sat.ParentID = "earth"
	if err := s.AddBody(sat); err != nil {
		t.Fatal(err)
	}
	// Every body is in the integrator; only gravity sources and oblate
	// bodies are perturbers.
	if !s.Integrator().Has("earth") || !s.Integrator().Has("sat") {
		t.Fatal("integrator registry incomplete")
	}
	if !s.Perturbations().Has("earth") || s.Perturbations().Has("sat") {
		t.Fatal("perturbing registry wrong")
	}
	if _, err := s.Body("nope"); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("unknown id lookup, got %v", err)
	}
	if err := s.RemoveBody("nope"); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("unknown id removal, got %v", err)
	}
	if err := s.RemoveBody("earth"); err != nil {
		t.Fatal(err)
	}
	if s.Integrator().Has("earth") || s.Perturbations().Has("earth") {
		t.Fatal("removal left a registry entry behind")
	}
	if len(s.Bodies()) != 1 || s.Bodies()[0].ID != "sat" {
		t.Fatal("wrong body set after removal")
	}
	// The simulation still updates with the orphaned satellite.
	if err := s.Update(60); err != nil {
		t.Fatal(err)
	}
}

func TestParentCycle(t *testing.T) {
	s := newTestSystem(t)
	a := NewBody("a", "A", CategoryGeneric, 1, 1)
	b := NewBody("b", "B", CategoryGeneric, 1, 1)
	b.ParentID = "a"
	if err := s.AddBody(a); err != nil {
		t.Fatal(err)
	}
	if err := s.AddBody(b); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParent("a", "b"); !errors.Is(err, ErrParentCycle) {
		t.Fatalf("two-body cycle should be rejected, got %v", err)
	}
	c := NewBody("c", "C", CategoryGeneric, 1, 1)
	c.ParentID = "c"
	if err := s.AddBody(c); !errors.Is(err, ErrParentCycle) {
		t.Fatalf("self-parent should be rejected, got %v", err)
	}
	// A dangling parent is a root, not an error.
	d := NewBody("d", "D", CategoryGeneric, 1, 1)
	d.ParentID = "ghost"
	if err := s.AddBody(d); err != nil {
		t.Fatal(err)
	}
	roots := s.Roots()
	if len(roots) != 2 {
		t.Fatalf("roots = %v", roots)
	}
}

func TestHierarchy(t *testing.T) {
	s := earthSunSystem(t)
	moon := NewMoon()
	if err := s.AddBody(moon); err != nil {
		t.Fatal(err)
	}
	if kids := s.Children("sun"); len(kids) != 1 || kids[0] != "earth" {
		t.Fatalf("sun children = %v", kids)
	}
	if kids := s.Children("earth"); len(kids) != 1 || kids[0] != "moon" {
		t.Fatalf("earth children = %v", kids)
	}
	if roots := s.Roots(); len(roots) != 1 || roots[0] != "sun" {
		t.Fatalf("roots = %v", roots)
	}
	// Reparent the moon and the snapshot is rebuilt wholesale.
	if err := s.SetParent("moon", "sun"); err != nil {
		t.Fatal(err)
	}
	if kids := s.Children("earth"); len(kids) != 0 {
		t.Fatalf("earth children after reparent = %v", kids)
	}
	if kids := s.Children("sun"); len(kids) != 2 {
		t.Fatalf("sun children after reparent = %v", kids)
	}
}

func TestPause(t *testing.T) {
	s := earthSunSystem(t)
	s.Pause()
	if !s.Paused() {
		t.Fatal("should be paused")
	}
	earth, _ := s.Body("earth")
	before := vec3(earth.Position)
	t0 := s.Time()
	for i := 0; i < 10; i++ {
		if err := s.Update(3600); err != nil {
			t.Fatal(err)
		}
	}
	if s.Time() != t0 {
		t.Fatal("paused update advanced the clock")
	}
	for i := 0; i < 3; i++ {
		if earth.Position[i] != before[i] {
			t.Fatal("paused update moved a body")
		}
	}
	s.TogglePause()
	if s.Paused() {
		t.Fatal("toggle should resume")
	}
	if err := s.Update(3600); err != nil {
		t.Fatal(err)
	}
	if s.Time() == t0 {
		t.Fatal("resumed update should advance the clock")
	}
}

func TestTimeScale(t *testing.T) {
	s := earthSunSystem(t)
	if err := s.SetTimeScale(-1); !errors.Is(err, ErrNegativeTimeScale) {
		t.Fatalf("negative time scale, got %v", err)
	}
	if s.TimeScale() != 1 {
		t.Fatal("rejected scale must leave the state unchanged")
	}
	if err := s.SetTimeScale(60); err != nil {
		t.Fatal(err)
	}
	t0 := s.Time()
	if err := s.Update(1); err != nil {
		t.Fatal(err)
	}
	if got := s.Time().Sub(t0); got != time.Minute {
		t.Fatalf("1 real second at scale 60 advanced %s", got)
	}
	// Scale zero freezes the clock without pausing.
	if err := s.SetTimeScale(0); err != nil {
		t.Fatal(err)
	}
	t0 = s.Time()
	if err := s.Update(3600); err != nil {
		t.Fatal(err)
	}
	if s.Time() != t0 {
		t.Fatal("zero scale should freeze the clock")
	}
	if err := s.Update(-1); err == nil {
		t.Fatal("negative delta time should be rejected")
	}
}

func TestKeplerianPropagation(t *testing.T) {
	s := earthSunSystem(t)
	sun, _ := s.Body("sun")
	earth, _ := s.Body("earth")
	for day := 0; day < 30; day++ {
		if err := s.Update(86400); err != nil {
			t.Fatal(err)
		}
		r := distance(earth.Position, sun.Position)
		if !floats.EqualWithinRel(r, 1.496e11, 1e-9) {
			t.Fatalf("circular orbit radius drifted to %e on day %d", r, day)
		}
	}
	// Roughly a degree per day around the Sun.
	angle := math.Atan2(earth.Position[1], earth.Position[0])
	expected := 2 * math.Pi * 30 * 86400 / earth.Elements.Period
	if !floats.EqualWithinAbs(angle, expected, 1e-3) {
		t.Fatalf("swept angle = %f, expected %f", angle, expected)
	}
	// An element-less body drifts ballistically.
	rock := NewBody("rock", "Rock", CategoryAsteroid, 1e10, 100)
	rock.Position = []float64{0, 0, 1e9}
	rock.Velocity = []float64{1e3, 0, 0}
	if err := s.AddBody(rock); err != nil {
		t.Fatal(err)
	}
	if err := s.Update(100); err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(rock.Position[0], 1e5, 1) {
		t.Fatalf("ballistic drift = %v", rock.Position)
	}
}

func TestModeSwitching(t *testing.T) {
	s := earthSunSystem(t)
	earth, _ := s.Body("earth")
	if err := s.Update(86400); err != nil {
		t.Fatal(err)
	}
	s.SetNBody(true)
	if !s.UseNBody() {
		t.Fatal("mode switch failed")
	}
	// The integrator was reseeded from the current states.
	st, err := s.Integrator().StateOf("earth")
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsEqual(st.Position, earth.Position) || !vectorsEqual(st.Velocity, earth.Velocity) {
		t.Fatal("N-body reseed mismatch")
	}
	// Propagate numerically for a while; the circular orbit must hold.
	for day := 0; day < 10; day++ {
		for hour := 0; hour < 24; hour++ {
			if err := s.Update(3600); err != nil {
				t.Fatal(err)
			}
		}
	}
	sun, _ := s.Body("sun")
	r := distance(earth.Position, sun.Position)
	if !floats.EqualWithinRel(r, 1.496e11, 1e-4) {
		t.Fatalf("N-body orbit radius drifted to %e", r)
	}
	// Switching back re-derives osculating elements.
	s.ToggleNBody()
	if s.UseNBody() {
		t.Fatal("toggle failed")
	}
	if earth.Elements == nil {
		t.Fatal("Keplerian reseed should restore elements")
	}
	if !floats.EqualWithinRel(earth.Elements.SemiMajorAxis, 1.496e11, 1e-3) {
		t.Fatalf("re-derived semi-major axis = %e", earth.Elements.SemiMajorAxis)
	}
	// And the analytic propagation carries on from there.
	if err := s.Update(86400); err != nil {
		t.Fatal(err)
	}
	r = distance(earth.Position, sun.Position)
	if !floats.EqualWithinRel(r, 1.496e11, 1e-3) {
		t.Fatalf("post-switch radius = %e", r)
	}
}

func TestSystemSetters(t *testing.T) {
	s := newTestSystem(t)
	if err := s.SetSoftening(-1); !errors.Is(err, ErrNegativeSoftening) {
		t.Fatalf("negative softening, got %v", err)
	}
	if err := s.SetSoftening(1e3); err != nil {
		t.Fatal(err)
	}
	if s.Softening() != 1e3 || s.Integrator().Softening != 1e3 {
		t.Fatal("softening not propagated")
	}
	s.SetRelativistic(true)
	if !s.Relativistic() || !s.Integrator().Relativistic || !s.Perturbations().Relativistic {
		t.Fatal("relativistic flag not propagated")
	}
	if err := s.SetGravitationalConstant(0); err == nil {
		t.Fatal("zero G should be rejected")
	}
	if err := s.SetGravitationalConstant(6.674e-11); err != nil {
		t.Fatal(err)
	}
	if s.Constants().G != 6.674e-11 {
		t.Fatal("G not updated")
	}
	s.SetPerturbationsEnabled(false)
	if s.UsePerturbations() {
		t.Fatal("perturbations flag not updated")
	}
	if err := s.SetStep(0); !errors.Is(err, ErrInvalidTimeStep) {
		t.Fatalf("zero step, got %v", err)
	}
	if err := s.SetStep(300); err != nil {
		t.Fatal(err)
	}
	if s.Step() != 300 {
		t.Fatal("step not updated")
	}
}

func TestSystemDiagnostics(t *testing.T) {
	s := earthSunSystem(t)
	sun, earth := NewSun(), NewEarth()
	if !floats.EqualWithinRel(s.TotalMass(), sun.Mass+earth.Mass, 1e-12) {
		t.Fatalf("total mass = %e", s.TotalMass())
	}
	// The center of mass sits almost at the Sun.
	com, _ := s.CenterOfMass()
	if norm(com) > 1e6 {
		t.Fatalf("center of mass = %v", com)
	}
	// Angular momentum of a prograde orbit points along +z.
	L := s.TotalAngularMomentum()
	if L[2] <= 0 {
		t.Fatalf("angular momentum = %v", L)
	}
	// A bound system has negative total energy.
	if s.TotalEnergy() >= 0 {
		t.Fatalf("total energy = %e", s.TotalEnergy())
	}
}
