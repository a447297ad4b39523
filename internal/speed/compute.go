package speed

import (
	"log/slog"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
)

// ComputeOutput runs one control cycle of length dt seconds and returns the
// velocity + yaw-rate command stamped with the output twist frame.
//
// A non-nil error means no usable command was produced; the caller must hold
// its previous command or fail safe. Every gate is evaluated before any
// regulator runs, so a rejected cycle leaves the command and all regulator
// memory untouched. An unknown mode is reported ahead of readiness.
func (c *Controller) ComputeOutput(dt float64) (msg.Twist, error) {
	if err := c.checkMode(); err != nil {
		return msg.Twist{}, err
	}
	if err := c.checkReady(); err != nil {
		return msg.Twist{}, err
	}
	if err := c.checkTranslation(); err != nil {
		return msg.Twist{}, err
	}
	if err := c.checkYaw(); err != nil {
		return msg.Twist{}, err
	}

	var cmd Command
	cmd.Velocity = c.computeTranslation(dt)
	cmd.YawSpeed = c.computeYaw(dt)
	c.cmd = cmd

	return c.output(), nil
}

func (c *Controller) checkMode() error {
	switch c.modeIn.Control {
	case msg.Hover, msg.Position, msg.Speed, msg.SpeedInAPlane, msg.Trajectory:
	default:
		c.log.ErrorThrottled("control_mode", "unknown control mode", slog.String("mode", c.modeIn.Control.String()))
		return errors.Wrapf(ErrUnknownMode, "control mode %s", c.modeIn.Control)
	}
	switch c.modeIn.Yaw {
	case msg.YawAngle, msg.YawSpeed:
	default:
		c.log.ErrorThrottled("yaw_mode", "unknown yaw mode", slog.String("mode", c.modeIn.Yaw.String()))
		return errors.Wrapf(ErrUnknownMode, "yaw mode %s", c.modeIn.Yaw)
	}
	return nil
}

func (c *Controller) checkReady() error {
	switch {
	case !c.stateReceived:
		return c.notReady("state", "state not received yet")
	case !c.params.Ready(param.GroupPlugin):
		return c.notReady("plugin_params", "plugin parameters not read yet")
	case !c.params.Ready(param.GroupPosition):
		return c.notReady("hover_params", "parameters for hover controller not read yet")
	case !c.refReceived:
		return c.notReady("reference", "mode changed but reference not received yet")
	}
	return nil
}

func (c *Controller) checkTranslation() error {
	switch c.modeIn.Control {
	case msg.Hover, msg.Position:
		if !c.params.Ready(param.GroupPosition) {
			return c.notReady("position_params", "position controller parameters not read yet")
		}
	case msg.Speed:
		// Velocity gains are optional: the regulator runs with whatever it has.
		if !c.useBypass && !c.params.Ready(param.GroupVelocity) {
			c.log.WarnThrottled("velocity_params", "velocity controller parameters not read yet")
		}
	case msg.SpeedInAPlane:
		if !c.useBypass && !c.params.Ready(param.GroupSpeedInAPlane) {
			c.log.WarnThrottled("speed_in_a_plane_params", "speed in a plane controller parameters not read yet")
		}
	case msg.Trajectory:
		if !c.params.Ready(param.GroupTrajectory) {
			return c.notReady("trajectory_params", "trajectory controller parameters not read yet")
		}
	}
	return nil
}

func (c *Controller) checkYaw() error {
	if c.modeIn.Yaw == msg.YawAngle && !c.params.Ready(param.GroupYaw) {
		return c.notReady("yaw_params", "yaw controller parameters not read yet")
	}
	return nil
}

func (c *Controller) computeTranslation(dt float64) (v r3.Vector) {
	s, ref := c.state, c.ref

	switch c.modeIn.Control {
	case msg.Hover, msg.Position:
		v = c.reg.position.Compute(dt, s.Position, ref.Position)
	case msg.Speed:
		if c.useBypass {
			v = ref.Velocity
		} else {
			v = c.reg.velocity.Compute(dt, s.Velocity, ref.Velocity)
		}
	case msg.SpeedInAPlane:
		if c.useBypass {
			v = ref.Velocity
		} else {
			v = c.reg.planeSpeed.Compute(dt, s.Velocity, ref.Velocity)
		}
		v.Z = c.reg.planeHeight.Compute(dt, s.Position.Z, ref.Position.Z)
	case msg.Trajectory:
		v = c.reg.trajectory.ComputeTracking(dt, s.Position, ref.Position, s.Velocity, ref.Velocity)
	}
	return v
}

func (c *Controller) computeYaw(dt float64) float64 {
	if c.modeIn.Yaw == msg.YawSpeed {
		return c.ref.Yaw.Y
	}
	return c.reg.yaw.ComputeError(dt, frame.AngleMinError(c.ref.Yaw.X, c.state.Yaw.X))
}

func (c *Controller) output() msg.Twist {
	var t msg.Twist
	t.FrameID = c.io.OutputTwist
	t.Linear = c.cmd.Velocity
	t.Angular.Z = c.cmd.YawSpeed
	return t
}

func (c *Controller) notReady(key, reason string) error {
	c.log.WarnThrottled(key, reason)
	return errors.Wrap(ErrNotReady, reason)
}
