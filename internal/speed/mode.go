package speed

import (
	"log/slog"

	"github.com/san-kum/speedctl/internal/msg"
)

// SetMode activates in as the input mode and out as the mode of the
// published command, and resolves the frames for both.
//
// HOVER is always flown with YAW_ANGLE in the world frame and keeps the
// received state and reference, so it can be entered without a new
// handshake. Every other mode discards them. In all cases the reference is
// re-seated on the current state.
func (c *Controller) SetMode(in, out msg.Mode) bool {
	if in.Control == msg.Hover {
		c.modeIn = msg.Mode{Control: msg.Hover, Yaw: msg.YawAngle, Frame: msg.LocalENUFrame}
	} else {
		c.refReceived = false
		c.stateReceived = false
		c.modeIn = in
	}
	c.modeOut = out
	c.holdReferences()

	switch c.modeIn.Control {
	case msg.Hover, msg.Position, msg.Trajectory:
		c.io = Frames{InputPose: c.frames.World, InputTwist: c.frames.World, OutputTwist: c.frames.World}
	case msg.Speed, msg.SpeedInAPlane:
		c.io.InputPose = c.frames.World
		twist := c.frames.World
		if c.modeOut.Frame == msg.BodyFLUFrame {
			twist = c.frames.Body
		}
		c.io.InputTwist = twist
		c.io.OutputTwist = twist
	}

	c.log.Debug("mode set",
		slog.String("in", c.modeIn.String()),
		slog.String("out", c.modeOut.String()),
		slog.String("twist_frame", c.io.OutputTwist))
	return true
}
