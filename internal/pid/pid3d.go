package pid

import "github.com/golang/geo/r3"

// PID3D runs one PID per axis.
type PID3D struct {
	axes [3]*PID
}

func New3D() *PID3D {
	return &PID3D{axes: [3]*PID{New(), New(), New()}}
}

// Axis exposes the regulator for one axis, 0=X 1=Y 2=Z.
func (p *PID3D) Axis(i int) *PID { return p.axes[i] }

func (p *PID3D) SetGains(kp, ki, kd r3.Vector) {
	p.each(func(i int, a *PID) { a.SetGains(comp(kp, i), comp(ki, i), comp(kd, i)) })
}

func (p *PID3D) SetGainKpX(v float64) { p.axes[0].SetGainKp(v) }
func (p *PID3D) SetGainKpY(v float64) { p.axes[1].SetGainKp(v) }
func (p *PID3D) SetGainKpZ(v float64) { p.axes[2].SetGainKp(v) }
func (p *PID3D) SetGainKiX(v float64) { p.axes[0].SetGainKi(v) }
func (p *PID3D) SetGainKiY(v float64) { p.axes[1].SetGainKi(v) }
func (p *PID3D) SetGainKiZ(v float64) { p.axes[2].SetGainKi(v) }
func (p *PID3D) SetGainKdX(v float64) { p.axes[0].SetGainKd(v) }
func (p *PID3D) SetGainKdY(v float64) { p.axes[1].SetGainKd(v) }
func (p *PID3D) SetGainKdZ(v float64) { p.axes[2].SetGainKd(v) }

func (p *PID3D) Gains() (kp, ki, kd r3.Vector) {
	xp, xi, xd := p.axes[0].Gains()
	yp, yi, yd := p.axes[1].Gains()
	zp, zi, zd := p.axes[2].Gains()
	return r3.Vector{X: xp, Y: yp, Z: zp},
		r3.Vector{X: xi, Y: yi, Z: zi},
		r3.Vector{X: xd, Y: yd, Z: zd}
}

func (p *PID3D) SetAntiWindup(v float64) {
	p.each(func(_ int, a *PID) { a.SetAntiWindup(v) })
}

func (p *PID3D) SetAlpha(v float64) {
	p.each(func(_ int, a *PID) { a.SetAlpha(v) })
}

func (p *PID3D) SetResetIntegralSaturationFlag(b bool) {
	p.each(func(_ int, a *PID) { a.SetResetIntegralSaturationFlag(b) })
}

func (p *PID3D) SetProportionalSaturationFlag(b bool) {
	p.each(func(_ int, a *PID) { a.SetProportionalSaturationFlag(b) })
}

// SetOutputSaturation limits each axis to ±limit on that axis.
func (p *PID3D) SetOutputSaturation(limit r3.Vector) {
	p.each(func(i int, a *PID) { a.SetOutputSaturation(comp(limit, i)) })
}

func (p *PID3D) OutputSaturation() r3.Vector {
	return r3.Vector{X: p.axes[0].saturation, Y: p.axes[1].saturation, Z: p.axes[2].saturation}
}

func (p *PID3D) Compute(dt float64, measured, reference r3.Vector) r3.Vector {
	var out [3]float64
	p.each(func(i int, a *PID) { out[i] = a.Compute(dt, comp(measured, i), comp(reference, i)) })
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// ComputeTracking regulates position with the velocity error as the rate
// term and the reference velocity as feedforward.
func (p *PID3D) ComputeTracking(dt float64, pos, posRef, vel, velRef r3.Vector) r3.Vector {
	var out [3]float64
	p.each(func(i int, a *PID) {
		out[i] = a.ComputeTracking(dt, comp(posRef, i)-comp(pos, i), comp(velRef, i)-comp(vel, i), comp(velRef, i))
	})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

func (p *PID3D) ResetController() {
	p.each(func(_ int, a *PID) { a.ResetController() })
}

func (p *PID3D) each(fn func(int, *PID)) {
	for i, a := range p.axes {
		fn(i, a)
	}
}

func comp(v r3.Vector, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
