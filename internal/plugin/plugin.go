// Package plugin lets a host load a motion controller by name and drive it
// through a single capability interface.
package plugin

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/san-kum/speedctl/internal/logging"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/speed"
)

// SpeedController is the name the speed controller registers under.
const SpeedController = "speed_controller"

var ErrUnknownPlugin = errors.New("plugin: unknown controller")

// Controller is everything a host needs from a motion controller.
type Controller interface {
	Initialize()
	SetMode(in, out msg.Mode) bool
	UpdateState(pose msg.Pose, twist msg.Twist)
	UpdateReferencePose(pose msg.Pose)
	UpdateReferenceTwist(twist msg.Twist)
	UpdateReferenceTrajectory(pt msg.TrajectoryPoint) error
	ComputeOutput(dt float64) (msg.Twist, error)
	UpdateParameters(ps []param.Parameter) (bool, error)
	Reset()
	DesiredPoseFrame() string
	DesiredTwistFrame() string
}

var _ Controller = (*speed.Controller)(nil)

// Options are handed to every factory.
type Options struct {
	Namespace string
	Logger    *logging.Logger
}

type Factory func(Options) Controller

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry holding every controller this module ships.
func Default() *Registry {
	r := NewRegistry()
	r.Register(SpeedController, func(o Options) Controller {
		opts := []speed.Option{speed.WithNamespace(o.Namespace)}
		if o.Logger != nil {
			opts = append(opts, speed.WithLogger(o.Logger))
		}
		return speed.New(opts...)
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Load builds a fresh controller.
func (r *Registry) Load(name string, o Options) (Controller, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPlugin, "%q", name)
	}
	return f(o), nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
