package main

import (
	"log/slog"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/speedctl/internal/config"
	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/logging"
	"github.com/san-kum/speedctl/internal/metrics"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/plant"
	"github.com/san-kum/speedctl/internal/plugin"
	"github.com/san-kum/speedctl/internal/sim"
)

// loadConfig resolves defaults, then the preset, then the config file, then
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	} else if configFile == "" {
		// Scenarios carry their own length unless one was asked for.
		cfg.Duration = 0
	}
	return cfg, nil
}

func newLogger() *logging.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewText(os.Stderr, level)
}

func newQuietLogger() *logging.Logger {
	return logging.NewText(os.Stderr, slog.LevelError)
}

// newRunner loads a fresh controller from the plugin registry, tunes it and
// pairs it with a vehicle built from cfg.Plant. extra is applied after the
// config and --set overrides.
func newRunner(cfg *config.Config, sc sim.Scenario, log *logging.Logger, extra ...param.Parameter) (*sim.Runner, error) {
	ctrl, err := plugin.Default().Load(cfg.Plugin, plugin.Options{
		Namespace: cfg.Namespace,
		Logger:    logging.New(log.With("scenario", sc.Name)),
	})
	if err != nil {
		return nil, err
	}
	ps, err := parameters(cfg)
	if err != nil {
		return nil, err
	}
	ps = append(ps, extra...)
	ok, err := ctrl.UpdateParameters(ps)
	if err != nil {
		return nil, errors.Wrap(err, "tune controller")
	}
	if !ok {
		return nil, errors.New("tune controller: parameters incomplete")
	}

	model := plant.NewMultirotor()
	if cfg.Plant.Tau > 0 {
		model.Tau = cfg.Plant.Tau
	}
	if cfg.Plant.MaxSpeed > 0 {
		model.MaxSpeed = cfg.Plant.MaxSpeed
	}

	r := sim.NewRunner(ctrl, model, frame.NewSet(cfg.Namespace), log)
	for _, m := range metrics.Default(sc.In) {
		r.AddMetric(m)
	}
	return r, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
