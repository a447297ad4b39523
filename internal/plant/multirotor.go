package plant

import "math"

// State layout of Multirotor.
const (
	IdxX = iota
	IdxY
	IdxZ
	IdxVX
	IdxVY
	IdxVZ
	IdxYaw
	IdxYawRate
	stateDim
)

// Control layout of Multirotor: world-frame velocity and yaw rate commands.
const (
	CmdVX = iota
	CmdVY
	CmdVZ
	CmdYawRate
	controlDim
)

const (
	DefaultTau      = 0.15
	DefaultYawTau   = 0.1
	DefaultMaxSpeed = 10.0
	DefaultMaxYaw   = 2 * math.Pi
)

// Multirotor tracks commanded world velocity and yaw rate through
// first-order lags. Commands beyond the speed limits are clipped.
type Multirotor struct {
	Tau      float64
	YawTau   float64
	MaxSpeed float64
	MaxYaw   float64
	// Wind is a constant world-frame velocity disturbance.
	Wind [3]float64
}

func NewMultirotor() *Multirotor {
	return &Multirotor{
		Tau:      DefaultTau,
		YawTau:   DefaultYawTau,
		MaxSpeed: DefaultMaxSpeed,
		MaxYaw:   DefaultMaxYaw,
	}
}

func (m *Multirotor) StateDim() int   { return stateDim }
func (m *Multirotor) ControlDim() int { return controlDim }

func (m *Multirotor) Derive(x State, u Control, t float64) State {
	dx := make(State, stateDim)
	cmd := make(Control, controlDim)
	copy(cmd, u)

	for i := 0; i < 3; i++ {
		v := x[IdxVX+i]
		dx[IdxX+i] = v + m.Wind[i]
		dx[IdxVX+i] = (limit(cmd[CmdVX+i], m.MaxSpeed) - v) / m.Tau
	}
	dx[IdxYaw] = x[IdxYawRate]
	dx[IdxYawRate] = (limit(cmd[CmdYawRate], m.MaxYaw) - x[IdxYawRate]) / m.YawTau
	return dx
}

func limit(v, max float64) float64 {
	if max <= 0 {
		return v
	}
	return math.Max(-max, math.Min(max, v))
}
