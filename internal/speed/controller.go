package speed

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/speedctl/internal/frame"
	"github.com/san-kum/speedctl/internal/logging"
	"github.com/san-kum/speedctl/internal/msg"
	"github.com/san-kum/speedctl/internal/param"
	"github.com/san-kum/speedctl/internal/readiness"
)

// UAVState is either the measured vehicle state or a reference. Yaw holds
// (angle, rate, acceleration).
type UAVState struct {
	Position r3.Vector
	Velocity r3.Vector
	Yaw      r3.Vector
}

type Command struct {
	Velocity r3.Vector
	YawSpeed float64
}

// Flags is a snapshot of everything the readiness gate looks at.
type Flags struct {
	StateReceived           bool
	ReferenceReceived       bool
	PluginParamsRead        bool
	PositionParamsRead      bool
	VelocityParamsRead      bool
	SpeedInAPlaneParamsRead bool
	TrajectoryParamsRead    bool
	YawParamsRead           bool
}

// Frames are the frame identifiers collaborators must use for the active mode.
type Frames struct {
	InputPose   string
	InputTwist  string
	OutputTwist string
}

type Controller struct {
	log     *logging.Logger
	frames  frame.Set
	factory RegulatorFactory

	modeIn  msg.Mode
	modeOut msg.Mode
	io      Frames

	stateReceived bool
	refReceived   bool
	params        *readiness.Tracker[param.Group]

	reg regulators

	state UAVState
	ref   UAVState
	cmd   Command

	speedLimits            r3.Vector
	useBypass              bool
	proportionalLimitation bool
}

type Option func(*Controller)

func WithLogger(l *logging.Logger) Option { return func(c *Controller) { c.log = l } }

// WithNamespace prefixes frame identifiers with the vehicle namespace.
func WithNamespace(ns string) Option {
	return func(c *Controller) { c.frames = frame.NewSet(ns) }
}

func WithRegulators(f RegulatorFactory) Option { return func(c *Controller) { c.factory = f } }

// New returns an initialized controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		frames:  frame.NewSet(""),
		factory: DefaultRegulators(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.New(nil)
	}
	c.Initialize()
	return c
}

// Initialize builds fresh regulators, forgets every received input and
// parameter, and resets state.
func (c *Controller) Initialize() {
	c.reg = newRegulators(c.factory)

	c.params = readiness.New[param.Group]()
	for _, g := range param.Groups() {
		c.params.Register(g, param.Names(g))
	}

	c.modeIn = msg.Mode{}
	c.modeOut = msg.Mode{}
	c.io = Frames{InputPose: c.frames.World, InputTwist: c.frames.World, OutputTwist: c.frames.World}
	c.stateReceived = false
	c.refReceived = false
	c.speedLimits = r3.Vector{}
	c.useBypass = false
	c.proportionalLimitation = false

	c.Reset()
}

// Reset zeroes state, reference and command and clears regulator memory.
// Gains, limits and parameter readiness are kept.
func (c *Controller) Reset() {
	c.ref = UAVState{}
	c.state = UAVState{}
	c.cmd = Command{}
	c.reg.reset()
}

// holdReferences re-seats the reference on the current state so nothing
// carries over from a previous mode.
func (c *Controller) holdReferences() {
	c.ref = UAVState{
		Position: c.state.Position,
		Yaw:      c.state.Yaw,
	}
}

// UpdateState overwrites the measured vehicle state.
func (c *Controller) UpdateState(pose msg.Pose, twist msg.Twist) {
	c.state = UAVState{
		Position: pose.Position,
		Velocity: twist.Linear,
		Yaw:      r3.Vector{X: pose.Orientation.Yaw(), Y: twist.Angular.Z},
	}
	c.stateReceived = true
}

func (c *Controller) Flags() Flags {
	return Flags{
		StateReceived:           c.stateReceived,
		ReferenceReceived:       c.refReceived,
		PluginParamsRead:        c.params.Ready(param.GroupPlugin),
		PositionParamsRead:      c.params.Ready(param.GroupPosition),
		VelocityParamsRead:      c.params.Ready(param.GroupVelocity),
		SpeedInAPlaneParamsRead: c.params.Ready(param.GroupSpeedInAPlane),
		TrajectoryParamsRead:    c.params.Ready(param.GroupTrajectory),
		YawParamsRead:           c.params.Ready(param.GroupYaw),
	}
}

// Outstanding lists the parameter names g still waits for.
func (c *Controller) Outstanding(g param.Group) []string { return c.params.Outstanding(g) }

func (c *Controller) Mode() (in, out msg.Mode) { return c.modeIn, c.modeOut }
func (c *Controller) State() UAVState          { return c.state }
func (c *Controller) Reference() UAVState      { return c.ref }
func (c *Controller) Command() Command         { return c.cmd }
func (c *Controller) Frames() Frames           { return c.io }
func (c *Controller) SpeedLimits() r3.Vector   { return c.speedLimits }
func (c *Controller) UseBypass() bool          { return c.useBypass }

func (c *Controller) DesiredPoseFrame() string  { return c.io.InputPose }
func (c *Controller) DesiredTwistFrame() string { return c.io.InputTwist }
func (c *Controller) OutputTwistFrame() string  { return c.io.OutputTwist }
