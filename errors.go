package planetary

import "errors"

// Validation errors are fatal to the offending call only; the caller's state
// is left untouched.
var (
	// ErrInvalidMass is returned when registering a body with a zero or
	// negative mass (a division by mass happens in every force evaluation).
	ErrInvalidMass = errors.New("planetary: body mass must be strictly positive")
	// ErrInvalidRadius is returned for a negative body radius.
	ErrInvalidRadius = errors.New("planetary: body radius must not be negative")
	// ErrNegativeTimeScale is returned by SetTimeScale for values below zero.
	ErrNegativeTimeScale = errors.New("planetary: time scale must not be negative")
	// ErrNegativeSoftening is returned for a negative softening length.
	ErrNegativeSoftening = errors.New("planetary: softening length must not be negative")
	// ErrInvalidTimeStep is returned for a non-positive integrator step.
	ErrInvalidTimeStep = errors.New("planetary: integrator step must be positive")
	// ErrUnknownCategory is returned when parsing an unknown body category tag.
	ErrUnknownCategory = errors.New("planetary: unknown body category")
	// ErrParentCycle is returned when a body's parent chain loops back onto itself.
	ErrParentCycle = errors.New("planetary: parent reference cycle")
	// ErrDuplicateBody is returned when adding a body whose id is already registered.
	ErrDuplicateBody = errors.New("planetary: body id already registered")
)

// Orbit propagation errors.
var (
	// ErrUnboundOrbit signals an eccentricity at or above one: parabolic and
	// hyperbolic trajectories cannot be closed by Kepler's equation.
	ErrUnboundOrbit = errors.New("planetary: orbit is parabolic or hyperbolic")
	// ErrInvalidElements is returned when the semi-major axis or the central
	// mass of an element set fails validation at construction.
	ErrInvalidElements = errors.New("planetary: invalid orbital elements")
	// ErrKeplerNoConvergence signals a transient numeric failure of the
	// Newton-Raphson Kepler solver, distinct from an unbound orbit.
	ErrKeplerNoConvergence = errors.New("planetary: Kepler solver did not converge")
)

// Consistency errors.
var (
	// ErrBodyNotFound is the recoverable "no such body id" error.
	ErrBodyNotFound = errors.New("planetary: body not found")
	// ErrRegistriesOutOfSync indicates that the orchestrator, the integrator
	// and the perturbing-body list disagree on the registered body set. This
	// is an internal invariant violation, not a user error.
	ErrRegistriesOutOfSync = errors.New("planetary: body registries out of sync")
)
