package metrics

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/sim"
)

// Tracking is the RMS of a per-sample error.
type Tracking struct {
	name   string
	errFn  func(sim.Sample) float64
	errors []float64
}

// NewPositionRMS tracks the distance between the vehicle and the target position.
func NewPositionRMS() *Tracking {
	return &Tracking{name: "position_rms", errFn: func(s sim.Sample) float64 {
		return s.Position.Sub(s.Target.Position).Norm()
	}}
}

func NewVelocityRMS() *Tracking {
	return &Tracking{name: "velocity_rms", errFn: func(s sim.Sample) float64 {
		return s.Velocity.Sub(s.Target.Velocity).Norm()
	}}
}

// NewPlaneVelocityRMS ignores the vertical axis, which SPEED_IN_A_PLANE
// regulates by position.
func NewPlaneVelocityRMS() *Tracking {
	return &Tracking{name: "plane_velocity_rms", errFn: func(s sim.Sample) float64 {
		d := s.Velocity.Sub(s.Target.Velocity)
		return r3.Vector{X: d.X, Y: d.Y}.Norm()
	}}
}

func NewAltitudeRMS() *Tracking {
	return &Tracking{name: "altitude_rms", errFn: func(s sim.Sample) float64 {
		return s.Position.Z - s.Target.Position.Z
	}}
}

// NewYawRMS uses the shortest angular distance.
func NewYawRMS() *Tracking {
	return &Tracking{name: "yaw_rms", errFn: func(s sim.Sample) float64 {
		return frame.AngleMinError(s.Target.Yaw, s.Yaw)
	}}
}

func (t *Tracking) Name() string { return t.name }

func (t *Tracking) Observe(s sim.Sample) {
	t.errors = append(t.errors, t.errFn(s))
}

func (t *Tracking) Value() float64 {
	if len(t.errors) == 0 {
		return 0
	}
	return floats.Norm(t.errors, 2) / math.Sqrt(float64(len(t.errors)))
}

func (t *Tracking) Reset() { t.errors = t.errors[:0] }
