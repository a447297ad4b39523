package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/speedctl/internal/param"
)

const (
	DefaultDt       = 0.02
	DefaultDuration = 10.0
	DefaultTau      = 0.15
	DefaultPlugin   = "speed_controller"
	DefaultScenario = "position_step"
)

type Config struct {
	Plugin     string           `yaml:"plugin"`
	Namespace  string           `yaml:"namespace"`
	Scenario   string           `yaml:"scenario"`
	Dt         float64          `yaml:"dt"`
	Duration   float64          `yaml:"duration"`
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
}

// PlantConfig tunes the simulated vehicle.
type PlantConfig struct {
	Tau      float64 `yaml:"tau"`
	MaxSpeed float64 `yaml:"max_speed"`
}

type ControllerConfig struct {
	ProportionalLimitation bool       `yaml:"proportional_limitation"`
	UseBypass              bool       `yaml:"use_bypass"`
	Position               Gains3D    `yaml:"position_control"`
	Velocity               Gains3D    `yaml:"velocity_control"`
	SpeedInAPlane          PlaneGains `yaml:"speed_in_a_plane_control"`
	Trajectory             Gains3D    `yaml:"trajectory_control"`
	Yaw                    Gains      `yaml:"yaw_control"`
}

// Shared holds the leaves every regulator group carries.
type Shared struct {
	ResetIntegral bool    `yaml:"reset_integral"`
	AntiWindup    float64 `yaml:"antiwindup_cte"`
	Alpha         float64 `yaml:"alpha"`
}

type Axes struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type Gains struct {
	Shared `yaml:",inline"`
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
}

type Gains3D struct {
	Shared `yaml:",inline"`
	Kp     Axes `yaml:"kp"`
	Ki     Axes `yaml:"ki"`
	Kd     Axes `yaml:"kd"`
}

type PlaneGains struct {
	Shared `yaml:",inline"`
	Height TermGains `yaml:"height"`
	Speed  PlaneAxes `yaml:"speed"`
}

type TermGains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// PlaneAxes has no Z; the height regulator owns it.
type PlaneAxes struct {
	Kp Axes `yaml:"kp"`
	Ki Axes `yaml:"ki"`
	Kd Axes `yaml:"kd"`
}

func uniform(v float64) Axes { return Axes{X: v, Y: v, Z: v} }

func DefaultConfig() *Config {
	shared := Shared{ResetIntegral: true, AntiWindup: 5, Alpha: 0.3}
	return &Config{
		Plugin:   DefaultPlugin,
		Scenario: DefaultScenario,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Plant:    PlantConfig{Tau: DefaultTau, MaxSpeed: 10},
		Controller: ControllerConfig{
			Position: Gains3D{Shared: shared, Kp: uniform(1.2), Ki: uniform(0.01), Kd: uniform(0.05)},
			Velocity: Gains3D{Shared: shared, Kp: uniform(1.0), Ki: uniform(2.0), Kd: uniform(0.0)},
			SpeedInAPlane: PlaneGains{
				Shared: shared,
				Height: TermGains{Kp: 1.5, Ki: 0.02, Kd: 0.0},
				Speed:  PlaneAxes{Kp: uniform(1.0), Ki: uniform(2.0)},
			},
			Trajectory: Gains3D{Shared: shared, Kp: uniform(2.0), Ki: uniform(0.05), Kd: uniform(0.3)},
			Yaw:        Gains{Shared: shared, Kp: 2.0, Ki: 0.0, Kd: 0.02},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters flattens the controller section into fully qualified
// parameters, one for every name each group requires.
func (c *Config) Parameters() []param.Parameter {
	var ps []param.Parameter
	for _, g := range param.Groups() {
		for _, l := range param.Leaves(g) {
			name := param.Key{Group: g, Leaf: l}.Name()
			if l.Kind() == param.KindBool {
				ps = append(ps, param.Bool(name, c.Controller.boolLeaf(g, l)))
			} else {
				ps = append(ps, param.Float(name, c.Controller.floatLeaf(g, l)))
			}
		}
	}
	return ps
}

func (cc *ControllerConfig) shared(g param.Group) Shared {
	switch g {
	case param.GroupPosition:
		return cc.Position.Shared
	case param.GroupVelocity:
		return cc.Velocity.Shared
	case param.GroupSpeedInAPlane:
		return cc.SpeedInAPlane.Shared
	case param.GroupTrajectory:
		return cc.Trajectory.Shared
	case param.GroupYaw:
		return cc.Yaw.Shared
	}
	return Shared{}
}

func (cc *ControllerConfig) boolLeaf(g param.Group, l param.Leaf) bool {
	switch l {
	case param.LeafProportionalLimitation:
		return cc.ProportionalLimitation
	case param.LeafUseBypass:
		return cc.UseBypass
	case param.LeafResetIntegral:
		return cc.shared(g).ResetIntegral
	}
	return false
}

func (cc *ControllerConfig) floatLeaf(g param.Group, l param.Leaf) float64 {
	switch l {
	case param.LeafAntiWindup:
		return cc.shared(g).AntiWindup
	case param.LeafAlpha:
		return cc.shared(g).Alpha
	}
	term, axis, ok := l.Gain()
	if !ok {
		return 0
	}
	switch g {
	case param.GroupPosition:
		return cc.Position.pick(term).axis(axis)
	case param.GroupVelocity:
		return cc.Velocity.pick(term).axis(axis)
	case param.GroupTrajectory:
		return cc.Trajectory.pick(term).axis(axis)
	case param.GroupYaw:
		return TermGains{Kp: cc.Yaw.Kp, Ki: cc.Yaw.Ki, Kd: cc.Yaw.Kd}.pick(term)
	case param.GroupSpeedInAPlane:
		if axis == param.AxisNone {
			return cc.SpeedInAPlane.Height.pick(term)
		}
		return cc.SpeedInAPlane.Speed.pick(term).axis(axis)
	}
	return 0
}

func (g Gains3D) pick(t param.Term) Axes {
	return PlaneAxes{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd}.pick(t)
}

func (p PlaneAxes) pick(t param.Term) Axes {
	switch t {
	case param.TermP:
		return p.Kp
	case param.TermI:
		return p.Ki
	default:
		return p.Kd
	}
}

func (g TermGains) pick(t param.Term) float64 {
	switch t {
	case param.TermP:
		return g.Kp
	case param.TermI:
		return g.Ki
	default:
		return g.Kd
	}
}

func (a Axes) axis(ax param.Axis) float64 {
	switch ax {
	case param.AxisX:
		return a.X
	case param.AxisY:
		return a.Y
	case param.AxisZ:
		return a.Z
	}
	return 0
}

// ParseOverrides reads "name=value" pairs, typing each value by the leaf
// its name resolves to.
func ParseOverrides(pairs []string) ([]param.Parameter, error) {
	ps := make([]param.Parameter, 0, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.Errorf("override %q: want name=value", pair)
		}
		key, ok := param.Parse(name)
		if !ok {
			return nil, errors.Errorf("override %q: unknown parameter", name)
		}
		v, err := param.ParseValue(key.Leaf.Kind(), strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "override %q", name)
		}
		ps = append(ps, param.Parameter{Name: key.Name(), Value: v})
	}
	return ps, nil
}
