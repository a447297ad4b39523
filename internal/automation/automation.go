// Package automation runs scripted batches of flights described in YAML.
package automation

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/speedctl/internal/config"
	"github.com/san-kum/speedctl/internal/sim"
)

// Script is a named sequence of flights.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one flight. Empty fields fall back to the scenario and preset
// defaults.
type Step struct {
	Scenario string   `yaml:"scenario"`
	Preset   string   `yaml:"preset"`
	Set      []string `yaml:"set"`
	Dt       float64  `yaml:"dt"`
	Duration float64  `yaml:"duration"`
}

// LoadScript reads and validates a script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step before anything flies.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.Errorf("script %q has no steps", s.Name)
	}
	for i, st := range s.Steps {
		if _, ok := sim.Lookup(st.Scenario); !ok {
			return errors.Errorf("step %d: unknown scenario %q", i+1, st.Scenario)
		}
		if st.Preset != "" && config.GetPreset(st.Preset) == nil {
			return errors.Errorf("step %d: unknown preset %q", i+1, st.Preset)
		}
		if _, err := config.ParseOverrides(st.Set); err != nil {
			return errors.Wrapf(err, "step %d", i+1)
		}
		if st.Dt < 0 || st.Duration < 0 {
			return errors.Errorf("step %d: negative dt or duration", i+1)
		}
	}
	return nil
}

// Config resolves the tuning for st.
func (st Step) Config() *config.Config {
	cfg := config.DefaultConfig()
	if st.Preset != "" {
		if p := config.GetPreset(st.Preset); p != nil {
			cfg = p
		}
	}
	cfg.Scenario = st.Scenario
	if st.Dt > 0 {
		cfg.Dt = st.Dt
	}
	cfg.Duration = st.Duration
	return cfg
}

// BuildFunc turns a step into a ready runner.
type BuildFunc func(st Step, cfg *config.Config, sc sim.Scenario) (*sim.Runner, error)

// ResultFunc receives each finished flight.
type ResultFunc func(i int, st Step, cfg *config.Config, res *sim.Result) error

// Run flies the steps in order and stops at the first failure.
func Run(ctx context.Context, s *Script, build BuildFunc, done ResultFunc) ([]*sim.Result, error) {
	results := make([]*sim.Result, 0, len(s.Steps))
	for i, st := range s.Steps {
		sc, ok := sim.Lookup(st.Scenario)
		if !ok {
			return results, errors.Errorf("step %d: unknown scenario %q", i+1, st.Scenario)
		}
		cfg := st.Config()
		r, err := build(st, cfg, sc)
		if err != nil {
			return results, errors.Wrapf(err, "step %d setup", i+1)
		}
		res, err := r.Run(ctx, sc, sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
		if err != nil {
			return results, errors.Wrapf(err, "step %d run", i+1)
		}
		results = append(results, res)
		if done != nil {
			if err := done(i, st, cfg, res); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}
