package sim

import (
	"github.com/golang/geo/r3"

	"github.com/san-kum/speedctl/internal/msg"
)

// Target is what a scenario asks for at one instant. Which fields reach the
// controller depends on the active mode.
type Target struct {
	Position     r3.Vector
	Velocity     r3.Vector
	Acceleration r3.Vector
	Yaw          float64
	YawRate      float64
	// SpeedLimit is sent as the POSITION twist when non-zero.
	SpeedLimit r3.Vector
}

// Sample is one control cycle as seen from outside the controller.
type Sample struct {
	T        float64
	Mode     msg.ControlMode
	Position r3.Vector
	Velocity r3.Vector
	Yaw      float64
	YawRate  float64
	Target   Target
	Command  msg.Twist
	Accepted bool
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type ObserverFunc func(Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

type Config struct {
	Dt       float64
	Duration float64
}

type Result struct {
	Scenario   string
	Samples    []Sample
	Rejections int
	Metrics    map[string]float64
}

// Columns names the fields of Sample.Row.
var Columns = []string{
	"t", "mode",
	"x", "y", "z", "vx", "vy", "vz", "yaw", "yaw_rate",
	"ref_x", "ref_y", "ref_z", "ref_vx", "ref_vy", "ref_vz", "ref_yaw", "ref_yaw_rate",
	"cmd_vx", "cmd_vy", "cmd_vz", "cmd_yaw_rate", "accepted",
}

// Row flattens s in Columns order.
func (s Sample) Row() []float64 {
	accepted := 0.0
	if s.Accepted {
		accepted = 1
	}
	return []float64{
		s.T, float64(s.Mode),
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
		s.Yaw, s.YawRate,
		s.Target.Position.X, s.Target.Position.Y, s.Target.Position.Z,
		s.Target.Velocity.X, s.Target.Velocity.Y, s.Target.Velocity.Z,
		s.Target.Yaw, s.Target.YawRate,
		s.Command.Linear.X, s.Command.Linear.Y, s.Command.Linear.Z, s.Command.Angular.Z,
		accepted,
	}
}

// ColumnIndex returns the position of name in Columns, or -1.
func ColumnIndex(name string) int {
	for i, c := range Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Series extracts one column from every sample.
func (r *Result) Series(column string) []float64 {
	idx := ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Row()[idx]
	}
	return out
}

// Times returns the sample timestamps.
func (r *Result) Times() []float64 { return r.Series("t") }
