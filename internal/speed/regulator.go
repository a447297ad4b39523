package speed

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/pid"
)

// Regulator is the scalar regulator surface the controller drives.
type Regulator interface {
	Compute(dt, measured, reference float64) float64
	ComputeError(dt, err float64) float64
	SetGainKp(v float64)
	SetGainKi(v float64)
	SetGainKd(v float64)
	SetAntiWindup(v float64)
	SetAlpha(v float64)
	SetOutputSaturation(v float64)
	SetResetIntegralSaturationFlag(b bool)
	SetProportionalSaturationFlag(b bool)
	ResetController()
}

// Regulator3D is the per-axis regulator surface the controller drives.
type Regulator3D interface {
	Compute(dt float64, measured, reference r3.Vector) r3.Vector
	ComputeTracking(dt float64, pos, posRef, vel, velRef r3.Vector) r3.Vector
	SetGainKpX(v float64)
	SetGainKpY(v float64)
	SetGainKpZ(v float64)
	SetGainKiX(v float64)
	SetGainKiY(v float64)
	SetGainKiZ(v float64)
	SetGainKdX(v float64)
	SetGainKdY(v float64)
	SetGainKdZ(v float64)
	SetAntiWindup(v float64)
	SetAlpha(v float64)
	SetOutputSaturation(limit r3.Vector)
	SetResetIntegralSaturationFlag(b bool)
	SetProportionalSaturationFlag(b bool)
	ResetController()
}

// RegulatorFactory builds fresh regulators on Initialize.
type RegulatorFactory struct {
	New   func() Regulator
	New3D func() Regulator3D
}

// DefaultRegulators builds regulators from package pid.
func DefaultRegulators() RegulatorFactory {
	return RegulatorFactory{
		New:   func() Regulator { return pid.New() },
		New3D: func() Regulator3D { return pid.New3D() },
	}
}

// regulators is the complete set of handles, one per role.
type regulators struct {
	yaw         Regulator
	position    Regulator3D
	velocity    Regulator3D
	planeHeight Regulator
	planeSpeed  Regulator3D
	trajectory  Regulator3D
}

func newRegulators(f RegulatorFactory) regulators {
	return regulators{
		yaw:         f.New(),
		position:    f.New3D(),
		velocity:    f.New3D(),
		planeHeight: f.New(),
		planeSpeed:  f.New3D(),
		trajectory:  f.New3D(),
	}
}

func (r regulators) scalars() []Regulator { return []Regulator{r.yaw, r.planeHeight} }

func (r regulators) vectors() []Regulator3D {
	return []Regulator3D{r.position, r.velocity, r.planeSpeed, r.trajectory}
}

func (r regulators) reset() {
	for _, s := range r.scalars() {
		s.ResetController()
	}
	for _, v := range r.vectors() {
		v.ResetController()
	}
}

func setGain(r Regulator, term param.Term, v float64) {
	switch term {
	case param.TermP:
		r.SetGainKp(v)
	case param.TermI:
		r.SetGainKi(v)
	case param.TermD:
		r.SetGainKd(v)
	}
}

func setGain3D(r Regulator3D, term param.Term, axis param.Axis, v float64) {
	switch {
	case term == param.TermP && axis == param.AxisX:
		r.SetGainKpX(v)
	case term == param.TermP && axis == param.AxisY:
		r.SetGainKpY(v)
	case term == param.TermP && axis == param.AxisZ:
		r.SetGainKpZ(v)
	case term == param.TermI && axis == param.AxisX:
		r.SetGainKiX(v)
	case term == param.TermI && axis == param.AxisY:
		r.SetGainKiY(v)
	case term == param.TermI && axis == param.AxisZ:
		r.SetGainKiZ(v)
	case term == param.TermD && axis == param.AxisX:
		r.SetGainKdX(v)
	case term == param.TermD && axis == param.AxisY:
		r.SetGainKdY(v)
	case term == param.TermD && axis == param.AxisZ:
		r.SetGainKdZ(v)
	}
}
