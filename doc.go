// Package planetary simulates gravitational systems in SI units. It provides
// Keplerian propagation from orbital elements, a softened RK4 N-body
// integrator, a perturbation model (third body, J2, Schwarzschild, drag,
// solar radiation pressure), astronomical coordinate transforms, and a
// frame-driven orchestrator tying it all together.
package planetary
