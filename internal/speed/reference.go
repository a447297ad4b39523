package speed

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/speedctl/internal/msg"
)

// UpdateReferencePose takes the position reference in POSITION and
// SPEED_IN_A_PLANE, and the yaw angle reference in SPEED, POSITION and
// SPEED_IN_A_PLANE when flying YAW_ANGLE.
func (c *Controller) UpdateReferencePose(pose msg.Pose) {
	mode := c.modeIn.Control

	if mode == msg.Position || mode == msg.SpeedInAPlane {
		c.ref.Position = pose.Position
		c.refReceived = true
	}

	if (mode == msg.Speed || mode == msg.Position || mode == msg.SpeedInAPlane) &&
		c.modeIn.Yaw == msg.YawAngle {
		c.ref.Yaw.X = pose.Orientation.Yaw()
	}
}

// UpdateReferenceTwist takes the velocity (and, flying YAW_SPEED, yaw rate)
// reference in SPEED and SPEED_IN_A_PLANE. In POSITION the linear part is a
// speed limit applied to the position, velocity and trajectory regulators.
func (c *Controller) UpdateReferenceTwist(twist msg.Twist) {
	switch c.modeIn.Control {
	case msg.Position:
		c.speedLimits = twist.Linear
		c.reg.position.SetOutputSaturation(c.speedLimits)
		c.reg.velocity.SetOutputSaturation(c.speedLimits)
		c.reg.trajectory.SetOutputSaturation(c.speedLimits)
		return
	case msg.Speed, msg.SpeedInAPlane:
	default:
		return
	}

	c.ref.Velocity = twist.Linear
	if c.modeIn.Yaw == msg.YawSpeed {
		c.ref.Yaw.Y = twist.Angular.Z
	}
	c.refReceived = true
}

// UpdateReferenceTrajectory takes a full position, velocity and yaw
// reference in TRAJECTORY. Points with fewer than four entries in any slice
// are rejected and leave the reference untouched.
func (c *Controller) UpdateReferenceTrajectory(pt msg.TrajectoryPoint) error {
	if c.modeIn.Control != msg.Trajectory {
		return nil
	}
	if len(pt.Positions) < msg.TrajectoryDims ||
		len(pt.Velocities) < msg.TrajectoryDims ||
		len(pt.Accelerations) < msg.TrajectoryDims {
		return errors.Wrapf(ErrMalformedReference,
			"trajectory point needs %d entries, got positions=%d velocities=%d accelerations=%d",
			msg.TrajectoryDims, len(pt.Positions), len(pt.Velocities), len(pt.Accelerations))
	}

	p, v, a := pt.Positions, pt.Velocities, pt.Accelerations
	c.ref.Position = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	c.ref.Velocity = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	c.ref.Yaw = r3.Vector{X: p[3], Y: v[3], Z: a[3]}
	c.refReceived = true
	return nil
}
