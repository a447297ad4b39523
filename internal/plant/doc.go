// Package plant simulates the vehicle the speed controller flies.
//
// The model is kinematic: the autopilot below the controller is assumed to
// track velocity and yaw-rate commands with a first-order lag, which is all
// a velocity-level controller can see. States are integrated with RK4.
package plant
