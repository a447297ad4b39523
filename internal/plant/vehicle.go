package plant

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/msg"
)

// Vehicle couples a Multirotor with an integrator and speaks the controller's
// message types. Twists are exchanged in the world frame unless they carry
// the body frame id.
type Vehicle struct {
	model      *Multirotor
	integrator Integrator
	frames     frame.Set

	x State
	u Control
	t float64
}

func NewVehicle(m *Multirotor, frames frame.Set, position r3.Vector, yaw float64) *Vehicle {
	x := make(State, stateDim)
	x[IdxX], x[IdxY], x[IdxZ] = position.X, position.Y, position.Z
	x[IdxYaw] = yaw
	return &Vehicle{
		model:      m,
		integrator: NewRK4(),
		frames:     frames,
		x:          x,
		u:          make(Control, controlDim),
	}
}

func (v *Vehicle) Time() float64    { return v.t }
func (v *Vehicle) State() State     { return v.x.Clone() }
func (v *Vehicle) Control() Control { return append(Control(nil), v.u...) }

func (v *Vehicle) Position() r3.Vector {
	return r3.Vector{X: v.x[IdxX], Y: v.x[IdxY], Z: v.x[IdxZ]}
}

func (v *Vehicle) Velocity() r3.Vector {
	return r3.Vector{X: v.x[IdxVX], Y: v.x[IdxVY], Z: v.x[IdxVZ]}
}

func (v *Vehicle) Yaw() float64 { return v.x[IdxYaw] }

func (v *Vehicle) Pose() msg.Pose {
	return msg.Pose{
		Header:      msg.Header{FrameID: v.frames.World, Stamp: v.stamp()},
		Position:    v.Position(),
		Orientation: frame.FromYaw(v.Yaw()),
	}
}

// Twist reports the measured velocity in frameID.
func (v *Vehicle) Twist(frameID string) msg.Twist {
	lin := v.Velocity()
	if frameID == v.frames.Body {
		lin = WorldToBody(lin, v.Yaw())
	} else {
		frameID = v.frames.World
	}
	return msg.Twist{
		Header:  msg.Header{FrameID: frameID, Stamp: v.stamp()},
		Linear:  lin,
		Angular: r3.Vector{Z: v.x[IdxYawRate]},
	}
}

// Command latches cmd until the next call.
func (v *Vehicle) Command(cmd msg.Twist) {
	lin := cmd.Linear
	if cmd.FrameID == v.frames.Body {
		lin = BodyToWorld(lin, v.Yaw())
	}
	v.u[CmdVX], v.u[CmdVY], v.u[CmdVZ] = lin.X, lin.Y, lin.Z
	v.u[CmdYawRate] = cmd.Angular.Z
}

// Step advances the vehicle by dt under the latched command.
func (v *Vehicle) Step(dt float64) error {
	next := v.integrator.Step(v.model, v.x, v.u, v.t, dt)
	if !next.IsValid() {
		return errors.Wrapf(ErrInvalidState, "t=%.4f", v.t)
	}
	next[IdxYaw] = frame.WrapAngle(next[IdxYaw])
	v.x = next
	v.t += dt
	return nil
}

// stamp is simulation time on a Unix-epoch clock.
func (v *Vehicle) stamp() time.Time {
	return time.Unix(0, 0).UTC().Add(time.Duration(v.t * float64(time.Second)))
}

// BodyToWorld rotates a FLU vector into ENU by yaw.
func BodyToWorld(b r3.Vector, yaw float64) r3.Vector {
	s, c := math.Sincos(yaw)
	return r3.Vector{X: c*b.X - s*b.Y, Y: s*b.X + c*b.Y, Z: b.Z}
}

func WorldToBody(w r3.Vector, yaw float64) r3.Vector {
	s, c := math.Sincos(yaw)
	return r3.Vector{X: c*w.X + s*w.Y, Y: -s*w.X + c*w.Y, Z: w.Z}
}
