package planetary

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/kit/log"
)

// SnapshotVersion tags the serialized format.
const SnapshotVersion = 1

// Snapshot is the full serializable state of a System. It carries everything
// needed to resume the simulation bit-for-bit on the orchestrator side:
// integrator and perturbation registries are rebuilt from the body list.
type Snapshot struct {
	Version          int                  `json:"version"`
	Time             time.Time            `json:"time"`
	TimeScale        float64              `json:"timeScale"`
	Paused           bool                 `json:"paused"`
	UseNBody         bool                 `json:"useNBody"`
	UsePerturbations bool                 `json:"usePerturbations"`
	Physics          PhysicsSnapshot      `json:"physics"`
	Perturbations    PerturbationSnapshot `json:"perturbations"`
	Frame            FrameSnapshot        `json:"frame"`
	Bodies           []BodySnapshot       `json:"bodies"`
}

type PhysicsSnapshot struct {
	G            float64 `json:"g"`
	C            float64 `json:"c"`
	Softening    float64 `json:"softening"`
	Step         float64 `json:"step"`
	Relativistic bool    `json:"relativistic"`
}

type PerturbationSnapshot struct {
	ThirdBody    bool `json:"thirdBody"`
	NonSpherical bool `json:"nonSpherical"`
	Relativistic bool `json:"relativistic"`
	Drag         bool `json:"drag"`
	Radiation    bool `json:"radiation"`
}

type FrameSnapshot struct {
	Epoch        time.Time `json:"epoch"`
	ObliquityDeg float64   `json:"obliquityDeg"`
	AUMeters     float64   `json:"auMeters"`
}

type BodySnapshot struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Category     string               `json:"category"`
	Mass         float64              `json:"mass"`
	Radius       float64              `json:"radius"`
	Position     []float64            `json:"position"`
	Velocity     []float64            `json:"velocity"`
	Acceleration []float64            `json:"acceleration"`
	J2           float64              `json:"j2,omitempty"`
	ParentID     string               `json:"parentId,omitempty"`
	GravSource   bool                 `json:"gravitySource"`
	Atmosphere   *AtmosphereModel     `json:"atmosphere,omitempty"`
	Drag         *DragProperties      `json:"drag,omitempty"`
	Radiation    *RadiationProperties `json:"radiation,omitempty"`
	Elements     *ElementsSnapshot    `json:"elements,omitempty"`
}

// ElementsSnapshot stores angles in degrees, matching the constructor.
type ElementsSnapshot struct {
	SemiMajorAxis float64   `json:"semiMajorAxis"`
	Ecc           float64   `json:"eccentricity"`
	InclDeg       float64   `json:"inclinationDeg"`
	RAANDeg       float64   `json:"raanDeg"`
	ArgPeriDeg    float64   `json:"argPeriapsisDeg"`
	MeanAnom0Deg  float64   `json:"meanAnomaly0Deg"`
	Epoch         time.Time `json:"epoch"`
	CentralMass   float64   `json:"centralMass"`
}

// Snapshot captures the current state of the system.
func (s *System) Snapshot() Snapshot {
	snap := Snapshot{
		Version:          SnapshotVersion,
		Time:             s.time,
		TimeScale:        s.timeScale,
		Paused:           s.paused,
		UseNBody:         s.useNBody,
		UsePerturbations: s.usePerturbations,
		Physics: PhysicsSnapshot{
			G:            s.k.G,
			C:            s.k.C,
			Softening:    s.softening,
			Step:         s.step,
			Relativistic: s.relativistic,
		},
		Perturbations: PerturbationSnapshot{
			ThirdBody:    s.perts.ThirdBody,
			NonSpherical: s.perts.NonSpherical,
			Relativistic: s.perts.Relativistic,
			Drag:         s.perts.Drag,
			Radiation:    s.perts.Radiation,
		},
		Frame: FrameSnapshot{
			Epoch:        s.frame.Epoch,
			ObliquityDeg: s.frame.ObliquityDeg,
			AUMeters:     s.frame.AUMeters,
		},
	}
	for _, b := range s.Bodies() {
		bs := BodySnapshot{
			ID:           b.ID,
			Name:         b.Name,
			Category:     b.Category.String(),
			Mass:         b.Mass,
			Radius:       b.Radius,
			Position:     vec3(b.Position),
			Velocity:     vec3(b.Velocity),
			Acceleration: vec3(b.Acceleration),
			J2:           b.J2,
			ParentID:     b.ParentID,
			GravSource:   b.GravitySource,
			Atmosphere:   b.Atmosphere,
			Drag:         b.Drag,
			Radiation:    b.Radiation,
		}
		if oe := b.Elements; oe != nil {
			bs.Elements = &ElementsSnapshot{
				SemiMajorAxis: oe.SemiMajorAxis,
				Ecc:           oe.Ecc,
				InclDeg:       Rad2deg(oe.Incl),
				RAANDeg:       Rad2deg(oe.RAAN),
				ArgPeriDeg:    Rad2deg(oe.ArgPeriapsis),
				MeanAnom0Deg:  Rad2deg(oe.MeanAnomaly0),
				Epoch:         oe.Epoch,
				CentralMass:   oe.CentralMass,
			}
		}
		snap.Bodies = append(snap.Bodies, bs)
	}
	return snap
}

// WriteJSON serializes the system as indented JSON.
func (s *System) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Snapshot())
}

// LoadSnapshot rebuilds a resumable System from a snapshot. Bodies are added
// parents-first so the hierarchy resolves regardless of serialization order.
func LoadSnapshot(snap Snapshot, logger log.Logger) (*System, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	cfg := Config{
		Constants: Constants{
			G:               snap.Physics.G,
			C:               snap.Physics.C,
			AUMeters:        snap.Frame.AUMeters,
			SolarPressureAU: DefaultConstants().SolarPressureAU,
		},
		Frame: FrameConfig{
			ObliquityDeg: snap.Frame.ObliquityDeg,
			AUMeters:     snap.Frame.AUMeters,
			Epoch:        snap.Frame.Epoch,
		},
		Start:            snap.Time,
		TimeScale:        snap.TimeScale,
		Step:             snap.Physics.Step,
		Softening:        snap.Physics.Softening,
		UseNBody:         snap.UseNBody,
		UsePerturbations: snap.UsePerturbations,
		Relativistic:     snap.Physics.Relativistic,
	}
	s, err := NewSystem(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.perts.ThirdBody = snap.Perturbations.ThirdBody
	s.perts.NonSpherical = snap.Perturbations.NonSpherical
	s.perts.Relativistic = snap.Perturbations.Relativistic
	s.perts.Drag = snap.Perturbations.Drag
	s.perts.Radiation = snap.Perturbations.Radiation
	for _, bs := range sortedParentsFirst(snap.Bodies) {
		cat, err := ParseBodyCategory(bs.Category)
		if err != nil {
			return nil, err
		}
		b := NewBody(bs.ID, bs.Name, cat, bs.Mass, bs.Radius)
		b.Position = vec3(bs.Position)
		b.Velocity = vec3(bs.Velocity)
		b.Acceleration = vec3(bs.Acceleration)
		b.J2 = bs.J2
		b.ParentID = bs.ParentID
		b.GravitySource = bs.GravSource
		b.Atmosphere = bs.Atmosphere
		b.Drag = bs.Drag
		b.Radiation = bs.Radiation
		if es := bs.Elements; es != nil {
			oe, err := NewOrbitalElements(es.SemiMajorAxis, es.Ecc, es.InclDeg, es.RAANDeg, es.ArgPeriDeg, es.MeanAnom0Deg, es.CentralMass, es.Epoch, s.k)
			if err != nil {
				return nil, fmt.Errorf("body %q: %w", bs.ID, err)
			}
			b.Elements = oe
		}
		if err := s.AddBody(b); err != nil {
			return nil, err
		}
	}
	if snap.UseNBody {
		s.reseedNBody()
	}
	if snap.Paused {
		s.Pause()
	}
	return s, nil
}

// ReadJSON deserializes a snapshot and rebuilds the system.
func ReadJSON(r io.Reader, logger log.Logger) (*System, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	return LoadSnapshot(snap, logger)
}

// sortedParentsFirst orders body snapshots so every parent precedes its
// children; unresolved parents keep their relative order.
func sortedParentsFirst(in []BodySnapshot) []BodySnapshot {
	byID := make(map[string]int, len(in))
	for i, bs := range in {
		byID[bs.ID] = i
	}
	out := make([]BodySnapshot, 0, len(in))
	done := make(map[string]bool, len(in))
	var visit func(i int)
	visit = func(i int) {
		bs := in[i]
		if done[bs.ID] {
			return
		}
		done[bs.ID] = true
		if j, ok := byID[bs.ParentID]; ok && bs.ParentID != bs.ID {
			visit(j)
		}
		out = append(out, bs)
	}
	for i := range in {
		visit(i)
	}
	return out
}
