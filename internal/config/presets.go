package config

import "sort"

// Presets are named tunings applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"gentle": func(c *Config) {
		c.Controller.ProportionalLimitation = true
		c.Controller.Position.Kp = uniform(0.6)
		c.Controller.Position.Kd = uniform(0.0)
		c.Controller.Yaw.Kp = 1.0
		c.Plant.MaxSpeed = 2
	},
	"aggressive": func(c *Config) {
		c.Controller.Position.Kp = uniform(2.5)
		c.Controller.Position.Kd = uniform(0.2)
		c.Controller.Velocity.Kp = uniform(1.8)
		c.Controller.Trajectory.Kp = uniform(3.5)
		c.Controller.Yaw.Kp = 3.5
	},
	"bypass": func(c *Config) {
		c.Controller.UseBypass = true
	},
	"sluggish_plant": func(c *Config) {
		c.Plant.Tau = 0.6
		c.Duration = 20
	},
	"unlimited_integral": func(c *Config) {
		for _, s := range []*Shared{
			&c.Controller.Position.Shared,
			&c.Controller.Velocity.Shared,
			&c.Controller.SpeedInAPlane.Shared,
			&c.Controller.Trajectory.Shared,
			&c.Controller.Yaw.Shared,
		} {
			s.AntiWindup = 0
			s.ResetIntegral = false
		}
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
