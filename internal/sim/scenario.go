package sim

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/msg"
)

// Switch changes the controller mode at time At.
type Switch struct {
	At  float64
	In  msg.Mode
	Out msg.Mode
}

type Scenario struct {
	Name        string
	Description string
	In          msg.Mode
	Out         msg.Mode
	Switches    []Switch
	Start       r3.Vector
	StartYaw    float64
	Wind        r3.Vector
	Duration    float64
	Reference   func(t float64) Target
}

// modeAt returns the modes active at t and whether they changed during the
// cycle that starts at t.
func (s Scenario) modeAt(t, dt float64) (in, out msg.Mode, changed bool) {
	in, out = s.In, s.Out
	for _, sw := range s.Switches {
		if sw.At <= t {
			in, out = sw.In, sw.Out
			changed = sw.At > t-dt
		}
	}
	return in, out, changed
}

var (
	worldMode = func(c msg.ControlMode, y msg.YawMode) msg.Mode {
		return msg.Mode{Control: c, Yaw: y, Frame: msg.LocalENUFrame}
	}
	bodyOut = msg.Mode{Frame: msg.BodyFLUFrame}
	hold    = func(t Target) func(float64) Target { return func(float64) Target { return t } }
)

var scenarios = map[string]Scenario{
	"hover": {
		Description: "climb to 2 m, then hold it in HOVER against a crosswind",
		In:          worldMode(msg.Position, msg.YawAngle),
		Switches:    []Switch{{At: 4, In: msg.Mode{Control: msg.Hover}}},
		Wind:        r3.Vector{X: 0.3},
		Duration:    12,
		Reference:   hold(Target{Position: r3.Vector{Z: 2}}),
	},
	"position_step": {
		Description: "step to a new position and heading under a speed limit",
		In:          worldMode(msg.Position, msg.YawAngle),
		Duration:    12,
		Reference: hold(Target{
			Position:   r3.Vector{X: 5, Y: -3, Z: 2},
			Yaw:        math.Pi / 2,
			SpeedLimit: r3.Vector{X: 2, Y: 2, Z: 1},
		}),
	},
	"speed": {
		Description: "world-frame velocity steps while turning",
		In:          worldMode(msg.Speed, msg.YawSpeed),
		Duration:    10,
		Reference: func(t float64) Target {
			if t < 5 {
				return Target{Velocity: r3.Vector{X: 1, Y: 0.5}, YawRate: 0.2}
			}
			return Target{Velocity: r3.Vector{X: -1, Z: 0.3}}
		},
	},
	"speed_body": {
		Description: "fly forward in the body frame while yawing, tracing a circle",
		In:          worldMode(msg.Speed, msg.YawSpeed),
		Out:         bodyOut,
		Duration:    15,
		Reference:   hold(Target{Velocity: r3.Vector{X: 1}, YawRate: 0.5}),
	},
	"speed_in_a_plane": {
		Description: "horizontal velocity at a held altitude and heading",
		In:          worldMode(msg.SpeedInAPlane, msg.YawAngle),
		Start:       r3.Vector{Z: 1},
		Duration:    10,
		Reference: hold(Target{
			Position: r3.Vector{Z: 3},
			Velocity: r3.Vector{X: 1, Y: 1},
			Yaw:      math.Pi / 4,
		}),
	},
	"trajectory_circle": {
		Description: "follow a 3 m circle at 2 m altitude facing along the path",
		In:          worldMode(msg.Trajectory, msg.YawAngle),
		Start:       r3.Vector{X: 3},
		StartYaw:    math.Pi / 2,
		Duration:    20,
		Reference:   circle(3, 0.5, 2),
	},
}

func circle(radius, omega, z float64) func(float64) Target {
	return func(t float64) Target {
		s, c := math.Sincos(omega * t)
		return Target{
			Position:     r3.Vector{X: radius * c, Y: radius * s, Z: z},
			Velocity:     r3.Vector{X: -radius * omega * s, Y: radius * omega * c},
			Acceleration: r3.Vector{X: -radius * omega * omega * c, Y: -radius * omega * omega * s},
			Yaw:          frame.WrapAngle(omega*t + math.Pi/2),
			YawRate:      omega,
		}
	}
}

// Lookup returns the built-in scenario called name.
func Lookup(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	s.Name = name
	return s, ok
}

// Scenarios lists the built-in scenario names, sorted.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
