// Package grab implements kinematic grab, follow and throw for rigid bodies.
//
// The package is built around a small state machine shared by two input
// drivers:
//
//   - [Grip]: the Idle/Attached state machine. It captures a fixed local
//     offset at grab time, recomputes the target pose every simulation
//     update, writes it to the body every physics step and releases the body
//     with a clamped throw velocity.
//   - [Pool]: the set of bodies currently in proximity of a tracked
//     controller, answering "which one is nearest".
//   - [PointerDriver]: screen-space dragging through the single enabled camera.
//   - [ControllerDriver]: tracked-controller pickup and drop.
//   - [Registry]: records which driver holds which body so two drivers never
//     control the same body.
//
// # Scheduling
//
// Nothing in this package blocks or spawns goroutines. A host calls each
// driver's Update once per rendered frame and FixedUpdate once per physics
// step, before the physics world integrates that step.
//
// # Example
//
//	reg := grab.NewRegistry(log)
//	pool := grab.NewPool("Interactable", controller, grab.DefaultPulse, log)
//	drv := grab.NewControllerDriver("right", controller, pool, hand, grab.DefaultControllerConfig(), reg, log)
//	// per frame:   drv.Update()
//	// per physics: drv.FixedUpdate(); world.Step(dt)
package grab
