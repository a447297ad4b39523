package speed_test

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/logging"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/speed"
)

// paramsFor returns every parameter of groups with zero gains and bypass off.
func paramsFor(groups ...param.Group) []param.Parameter {
	var ps []param.Parameter
	for _, g := range groups {
		for _, l := range param.Leaves(g) {
			name := param.Key{Group: g, Leaf: l}.Name()
			if l.Kind() == param.KindBool {
				ps = append(ps, param.Bool(name, false))
			} else {
				ps = append(ps, param.Float(name, 0))
			}
		}
	}
	return ps
}

func allParams() []param.Parameter { return paramsFor(param.Groups()...) }

func newController(opts ...speed.Option) *speed.Controller {
	return speed.New(append([]speed.Option{speed.WithLogger(logging.Discard())}, opts...)...)
}

func pose(p r3.Vector, yaw float64) msg.Pose {
	return msg.Pose{Position: p, Orientation: frame.FromYaw(yaw)}
}

func twist(v r3.Vector, yawRate float64) msg.Twist {
	return msg.Twist{Linear: v, Angular: r3.Vector{Z: yawRate}}
}

func mode(c msg.ControlMode, y msg.YawMode) msg.Mode {
	return msg.Mode{Control: c, Yaw: y, Frame: msg.LocalENUFrame}
}

// fakeRegulator records every call made on it.
type fakeRegulator struct {
	name     string
	calls    *[]string
	computes int
}

func (f *fakeRegulator) record(format string, args ...any) {
	*f.calls = append(*f.calls, f.name+"."+fmt.Sprintf(format, args...))
}

func (f *fakeRegulator) Compute(dt, measured, reference float64) float64 {
	f.computes++
	return 7
}

func (f *fakeRegulator) ComputeError(dt, err float64) float64 {
	f.computes++
	return 7
}

func (f *fakeRegulator) SetGainKp(v float64)                   { f.record("kp=%g", v) }
func (f *fakeRegulator) SetGainKi(v float64)                   { f.record("ki=%g", v) }
func (f *fakeRegulator) SetGainKd(v float64)                   { f.record("kd=%g", v) }
func (f *fakeRegulator) SetAntiWindup(v float64)               { f.record("antiwindup=%g", v) }
func (f *fakeRegulator) SetAlpha(v float64)                    { f.record("alpha=%g", v) }
func (f *fakeRegulator) SetOutputSaturation(v float64)         { f.record("saturation=%g", v) }
func (f *fakeRegulator) SetResetIntegralSaturationFlag(b bool) { f.record("reset_integral=%t", b) }
func (f *fakeRegulator) SetProportionalSaturationFlag(b bool)  { f.record("limit_p=%t", b) }
func (f *fakeRegulator) ResetController()                      {}

type fakeRegulator3D struct {
	name     string
	calls    *[]string
	computes int
}

func (f *fakeRegulator3D) record(format string, args ...any) {
	*f.calls = append(*f.calls, f.name+"."+fmt.Sprintf(format, args...))
}

func (f *fakeRegulator3D) Compute(dt float64, measured, reference r3.Vector) r3.Vector {
	f.computes++
	return r3.Vector{X: 1, Y: 2, Z: 3}
}

func (f *fakeRegulator3D) ComputeTracking(dt float64, pos, posRef, vel, velRef r3.Vector) r3.Vector {
	f.computes++
	return r3.Vector{X: 4, Y: 5, Z: 6}
}

func (f *fakeRegulator3D) SetGainKpX(v float64)    { f.record("kp.x=%g", v) }
func (f *fakeRegulator3D) SetGainKpY(v float64)    { f.record("kp.y=%g", v) }
func (f *fakeRegulator3D) SetGainKpZ(v float64)    { f.record("kp.z=%g", v) }
func (f *fakeRegulator3D) SetGainKiX(v float64)    { f.record("ki.x=%g", v) }
func (f *fakeRegulator3D) SetGainKiY(v float64)    { f.record("ki.y=%g", v) }
func (f *fakeRegulator3D) SetGainKiZ(v float64)    { f.record("ki.z=%g", v) }
func (f *fakeRegulator3D) SetGainKdX(v float64)    { f.record("kd.x=%g", v) }
func (f *fakeRegulator3D) SetGainKdY(v float64)    { f.record("kd.y=%g", v) }
func (f *fakeRegulator3D) SetGainKdZ(v float64)    { f.record("kd.z=%g", v) }
func (f *fakeRegulator3D) SetAntiWindup(v float64) { f.record("antiwindup=%g", v) }
func (f *fakeRegulator3D) SetAlpha(v float64)      { f.record("alpha=%g", v) }
func (f *fakeRegulator3D) SetOutputSaturation(l r3.Vector) {
	f.record("saturation=(%g, %g, %g)", l.X, l.Y, l.Z)
}
func (f *fakeRegulator3D) SetResetIntegralSaturationFlag(b bool) { f.record("reset_integral=%t", b) }
func (f *fakeRegulator3D) SetProportionalSaturationFlag(b bool)  { f.record("limit_p=%t", b) }
func (f *fakeRegulator3D) ResetController()                      {}

// fakes hands out regulators in the order the controller builds them:
// yaw, position, velocity, plane height, plane speed, trajectory.
type fakes struct {
	calls []string
	s     []*fakeRegulator
	v     []*fakeRegulator3D
}

func (f *fakes) factory() speed.RegulatorFactory {
	scalarNames := []string{"yaw", "height"}
	vectorNames := []string{"position", "velocity", "plane", "trajectory"}
	return speed.RegulatorFactory{
		New: func() speed.Regulator {
			r := &fakeRegulator{name: scalarNames[len(f.s)%2], calls: &f.calls}
			f.s = append(f.s, r)
			return r
		},
		New3D: func() speed.Regulator3D {
			r := &fakeRegulator3D{name: vectorNames[len(f.v)%4], calls: &f.calls}
			f.v = append(f.v, r)
			return r
		},
	}
}

func (f *fakes) computes() int {
	n := 0
	for _, r := range f.s {
		n += r.computes
	}
	for _, r := range f.v {
		n += r.computes
	}
	return n
}
