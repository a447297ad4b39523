package pid

import "math"

type PID struct {
	kp float64
	ki float64
	kd float64

	antiWindup    float64
	alpha         float64
	saturation    float64
	resetOnSat    bool
	limitProp     bool
	integral      float64
	prevErr       float64
	prevDeriv     float64
	first         bool
	lastSaturated bool
}

func New() *PID {
	return &PID{alpha: 1, first: true}
}

func (p *PID) SetGains(kp, ki, kd float64) {
	p.kp, p.ki, p.kd = kp, ki, kd
}

func (p *PID) SetGainKp(v float64) { p.kp = v }
func (p *PID) SetGainKi(v float64) { p.ki = v }
func (p *PID) SetGainKd(v float64) { p.kd = v }

func (p *PID) Gains() (kp, ki, kd float64) { return p.kp, p.ki, p.kd }

// SetAntiWindup bounds the accumulated integral to ±v. Zero or less disables it.
func (p *PID) SetAntiWindup(v float64) { p.antiWindup = math.Abs(v) }

// SetAlpha sets the derivative filter weight, clamped to [0, 1]. 1 disables filtering.
func (p *PID) SetAlpha(v float64) { p.alpha = clamp(v, 0, 1) }

// SetOutputSaturation limits the output to ±v. Zero or less disables it.
func (p *PID) SetOutputSaturation(v float64) { p.saturation = math.Abs(v) }

func (p *PID) SetResetIntegralSaturationFlag(b bool) { p.resetOnSat = b }

// SetProportionalSaturationFlag clamps the proportional term to the output
// saturation before the terms are summed.
func (p *PID) SetProportionalSaturationFlag(b bool) { p.limitProp = b }

func (p *PID) OutputSaturation() float64 { return p.saturation }
func (p *PID) Integral() float64         { return p.integral }
func (p *PID) Saturated() bool           { return p.lastSaturated }

// Compute regulates measured towards reference.
func (p *PID) Compute(dt, measured, reference float64) float64 {
	return p.ComputeError(dt, reference-measured)
}

// ComputeError regulates a precomputed error, for callers that need
// non-Euclidean error such as wrapped angles.
func (p *PID) ComputeError(dt, err float64) float64 {
	deriv := 0.0
	if !p.first && dt > 0 {
		deriv = (err - p.prevErr) / dt
	}
	return p.step(dt, err, deriv, 0)
}

// ComputeTracking regulates a position error with an explicit rate error
// and adds feedforward to the result.
func (p *PID) ComputeTracking(dt, err, rateErr, feedforward float64) float64 {
	return p.step(dt, err, rateErr, feedforward)
}

func (p *PID) step(dt, err, rawDeriv, feedforward float64) float64 {
	if dt > 0 {
		p.integral += err * dt
		if p.antiWindup > 0 {
			p.integral = clamp(p.integral, -p.antiWindup, p.antiWindup)
		}
	}

	deriv := rawDeriv
	if !p.first {
		deriv = p.alpha*rawDeriv + (1-p.alpha)*p.prevDeriv
	}

	prop := p.kp * err
	if p.limitProp && p.saturation > 0 {
		prop = clamp(prop, -p.saturation, p.saturation)
	}

	u := feedforward + prop + p.ki*p.integral + p.kd*deriv

	p.lastSaturated = false
	if p.saturation > 0 && math.Abs(u) > p.saturation {
		u = clamp(u, -p.saturation, p.saturation)
		p.lastSaturated = true
		if p.resetOnSat {
			p.integral = 0
		}
	}

	p.prevErr = err
	p.prevDeriv = deriv
	p.first = false
	return u
}

// ResetController clears integral and derivative memory. Gains and limits
// are kept.
func (p *PID) ResetController() {
	p.integral = 0
	p.prevErr = 0
	p.prevDeriv = 0
	p.first = true
	p.lastSaturated = false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
