// Package physics provides a small rigid-body world for driving grab
// interactions outside a game engine.
//
// Bodies are spheres integrated with semi-implicit Euler against a constant
// gravity and an optional ground plane at y=0:
//
//   - [RigidBody]: position, orientation and velocities, plus queued
//     kinematic moves that are applied by the next [World.Step]
//   - [World]: ordered body set and the fixed-step integrator
//   - [Trigger]: a sphere volume reporting enter/exit overlaps
//
// # Step order
//
// Queued MovePosition/MoveRotation commands replace integration for that
// step, so a body pinned every step does not accumulate gravity.
//
//	w := physics.NewWorld(physics.DefaultSettings(), log)
//	crate := w.Add(physics.NewRigidBody("crate", "Interactable", mgl64.Vec3{0, 1, 0}))
//	w.Step(0.02)
package physics
