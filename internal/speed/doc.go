// Package speed arbitrates between flight-control modes and runs the PID
// cascade that turns a reference and the vehicle state into one
// velocity + yaw-rate command per control cycle.
//
// A [Controller] is driven from a single control loop:
//
//	c := speed.New(speed.WithNamespace("drone0"))
//	c.UpdateParameters(cfg.Parameters())
//	c.SetMode(msg.Mode{Control: msg.Position, Yaw: msg.YawAngle}, out)
//	for range ticker.C {
//		c.UpdateState(pose, twist)
//		c.UpdateReferencePose(target)
//		cmd, err := c.ComputeOutput(dt)
//		if err != nil {
//			continue // hold previous command or fail safe
//		}
//		publish(cmd)
//	}
//
// # Readiness
//
// No command is produced until the vehicle state, a reference valid for the
// active mode, and every required parameter group have arrived. Switching to
// any mode other than HOVER discards the received state and reference.
// Parameter readiness survives mode switches and [Controller.Reset].
//
// # Thread Safety
//
// Controller is NOT safe for concurrent use. All calls must come from the
// control loop.
package speed
