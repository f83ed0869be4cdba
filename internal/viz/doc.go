// Package viz renders a running grab scene in the terminal.
//
// The scene is drawn through its main camera onto a braille [Canvas]. The
// mouse drives the scene's pointer driver and the keyboard drives a virtual
// tracked controller:
//
//	mouse drag - grab and throw with the pointer
//	w/a/s/d    - move the controller in the ground plane
//	r/f        - raise/lower the controller
//	q/e        - turn the controller
//	space      - toggle the trigger
//	g          - toggle the grip
//	x          - disable/enable the controller driver
//	v          - toggle the second camera
//	p          - pause
//	o          - start/stop recording grabsim.gif
//	t          - cycle color themes
//	?          - show help
package viz
