// Package sim closes the loop between a motion controller and a simulated
// vehicle and records what happens each control cycle.
package sim

import (
	"context"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/logging"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/plant"
)

var ErrInvalidConfig = errors.New("sim: invalid run configuration")

// Controller is the part of a motion controller the runner drives.
type Controller interface {
	SetMode(in, out msg.Mode) bool
	UpdateState(pose msg.Pose, twist msg.Twist)
	UpdateReferencePose(pose msg.Pose)
	UpdateReferenceTwist(twist msg.Twist)
	UpdateReferenceTrajectory(pt msg.TrajectoryPoint) error
	ComputeOutput(dt float64) (msg.Twist, error)
	DesiredPoseFrame() string
	DesiredTwistFrame() string
}

type Runner struct {
	ctrl      Controller
	model     plant.Multirotor
	frames    frame.Set
	metrics   []Metric
	observers []Observer
	log       *logging.Logger
}

// NewRunner flies ctrl against a copy of model. frames must match the
// controller's namespace.
func NewRunner(ctrl Controller, model *plant.Multirotor, frames frame.Set, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.New(nil)
	}
	return &Runner{ctrl: ctrl, model: *model, frames: frames, log: log}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run flies sc for cfg.Duration, or sc.Duration when cfg.Duration is zero.
// Rejected cycles leave the previous command latched on the vehicle.
func (r *Runner) Run(ctx context.Context, sc Scenario, cfg Config) (*Result, error) {
	if cfg.Duration == 0 {
		cfg.Duration = sc.Duration
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if sc.Reference == nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "scenario %q has no reference", sc.Name)
	}

	model := r.model
	model.Wind = [3]float64{sc.Wind.X, sc.Wind.Y, sc.Wind.Z}
	vehicle := plant.NewVehicle(&model, r.frames, sc.Start, sc.StartYaw)

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Scenario: sc.Name,
		Samples:  make([]Sample, 0, steps),
		Metrics:  make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	r.log.Info("run started", slog.String("scenario", sc.Name), slog.Float64("duration", cfg.Duration), slog.Float64("dt", cfg.Dt))
	var latched msg.Twist
	in, out, _ := sc.modeAt(0, cfg.Dt)
	r.ctrl.SetMode(in, out)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		var changed bool
		if in, out, changed = sc.modeAt(t, cfg.Dt); changed && i > 0 {
			r.ctrl.SetMode(in, out)
			r.log.Info("mode switched", slog.Float64("t", t), slog.String("mode", in.String()))
		}

		pose := vehicle.Pose()
		twist := vehicle.Twist(r.ctrl.DesiredTwistFrame())
		r.ctrl.UpdateState(pose, twist)

		target := sc.Reference(t)
		if err := r.sendReference(in, target); err != nil {
			return result, err
		}

		cmd, err := r.ctrl.ComputeOutput(cfg.Dt)
		accepted := err == nil
		if accepted {
			vehicle.Command(cmd)
			latched = cmd
		} else {
			result.Rejections++
			r.log.Debug("cycle rejected", slog.Float64("t", t), slog.String("err", err.Error()))
		}

		s := Sample{
			T:        t,
			Mode:     in.Control,
			Position: pose.Position,
			Velocity: twist.Linear,
			Yaw:      pose.Orientation.Yaw(),
			YawRate:  twist.Angular.Z,
			Target:   target,
			Command:  latched,
			Accepted: accepted,
		}
		result.Samples = append(result.Samples, s)
		for _, m := range r.metrics {
			m.Observe(s)
		}
		for _, o := range r.observers {
			o.OnStep(s)
		}

		if err := vehicle.Step(cfg.Dt); err != nil {
			return result, errors.Wrapf(err, "step %d", i)
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	r.log.Info("run finished", slog.String("scenario", sc.Name), slog.Int("rejections", result.Rejections))
	return result, nil
}

func (r *Runner) sendReference(in msg.Mode, tg Target) error {
	pose := msg.Pose{
		Header:      msg.Header{FrameID: r.ctrl.DesiredPoseFrame()},
		Position:    tg.Position,
		Orientation: frame.FromYaw(tg.Yaw),
	}
	twist := msg.Twist{
		Header:  msg.Header{FrameID: r.ctrl.DesiredTwistFrame()},
		Linear:  tg.Velocity,
		Angular: r3.Vector{Z: tg.YawRate},
	}

	switch in.Control {
	case msg.Position:
		r.ctrl.UpdateReferencePose(pose)
		if tg.SpeedLimit != (r3.Vector{}) {
			r.ctrl.UpdateReferenceTwist(msg.Twist{Header: twist.Header, Linear: tg.SpeedLimit})
		}
	case msg.Speed, msg.SpeedInAPlane:
		r.ctrl.UpdateReferencePose(pose)
		r.ctrl.UpdateReferenceTwist(twist)
	case msg.Trajectory:
		p, v, a := tg.Position, tg.Velocity, tg.Acceleration
		pt := msg.TrajectoryPoint{
			Positions:     []float64{p.X, p.Y, p.Z, tg.Yaw},
			Velocities:    []float64{v.X, v.Y, v.Z, tg.YawRate},
			Accelerations: []float64{a.X, a.Y, a.Z, 0},
		}
		if err := r.ctrl.UpdateReferenceTrajectory(pt); err != nil {
			return errors.Wrap(err, "trajectory reference")
		}
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.Dt <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
