// Package pid provides the regulators driven by the speed controller.
//
//   - [PID]: scalar regulator (yaw, altitude)
//   - [PID3D]: three independent per-axis regulators sharing one surface
//
// Both support per-term gains, an integral clamp (anti-windup), a first-order
// filter on the derivative term (alpha), symmetric output saturation, optional
// clamping of the proportional term to that saturation, and optional integral
// reset while saturated.
//
// # Usage
//
//	yaw := pid.New()
//	yaw.SetGains(1.0, 0.0, 0.1)
//	rate := yaw.ComputeError(dt, frame.AngleMinError(ref, yawNow))
//
// Regulators are stateful and not safe for concurrent use.
package pid
